package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CONTINENTAL"

	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Admin   AdminSeedConfig
	Captcha CaptchaConfig
	Media   MediaConfig
}

type AppConfig struct {
	Env            string `envconfig:"CONTINENTAL_APP_ENV" default:"dev"`
	StorefrontPort string `envconfig:"CONTINENTAL_STOREFRONT_PORT" default:"3000"`
	AdminPort      string `envconfig:"CONTINENTAL_ADMIN_PORT" default:"2002"`
	SiteURL        string `envconfig:"CONTINENTAL_SITE_URL" default:"http://localhost:3000"`
	LogLevel       string `envconfig:"CONTINENTAL_LOG_LEVEL" default:"info"`
	LogFile        string `envconfig:"CONTINENTAL_LOG_FILE"`
	BodyLimitBytes int    `envconfig:"CONTINENTAL_BODY_LIMIT_BYTES" default:"1048576"`
	TemplatesDir   string `envconfig:"CONTINENTAL_TEMPLATES_DIR" default:"./web/templates"`
	StaticDir      string `envconfig:"CONTINENTAL_STATIC_DIR" default:"./web/static"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	Driver          string        `envconfig:"CONTINENTAL_DB_DRIVER" default:"sqlite"`
	DSN             string        `envconfig:"CONTINENTAL_DB_DSN" default:"continental.db"`
	MaxOpenConns    int           `envconfig:"CONTINENTAL_DB_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONTINENTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	Seed            bool          `envconfig:"CONTINENTAL_DB_SEED" default:"true"`
}

type RedisConfig struct {
	// Empty URL keeps rate-limit counters in process memory.
	URL string `envconfig:"CONTINENTAL_REDIS_URL"`
}

type JWTConfig struct {
	Secret string        `envconfig:"CONTINENTAL_JWT_SECRET"`
	Issuer string        `envconfig:"CONTINENTAL_JWT_ISSUER" default:"continental-admin"`
	TTL    time.Duration `envconfig:"CONTINENTAL_JWT_TTL" default:"24h"`
}

type AdminSeedConfig struct {
	Username string `envconfig:"CONTINENTAL_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"CONTINENTAL_ADMIN_PASSWORD"`
}

type CaptchaConfig struct {
	Secret    string        `envconfig:"CONTINENTAL_RECAPTCHA_SECRET_KEY"`
	SiteKey   string        `envconfig:"CONTINENTAL_RECAPTCHA_SITE_KEY"`
	VerifyURL string        `envconfig:"CONTINENTAL_RECAPTCHA_VERIFY_URL" default:"https://www.google.com/recaptcha/api/siteverify"`
	MinScore  float64       `envconfig:"CONTINENTAL_RECAPTCHA_MIN_SCORE" default:"0.5"`
	Timeout   time.Duration `envconfig:"CONTINENTAL_RECAPTCHA_TIMEOUT" default:"5s"`
}

type MediaConfig struct {
	Dir          string `envconfig:"CONTINENTAL_MEDIA_DIR" default:"./web/media"`
	PublicPrefix string `envconfig:"CONTINENTAL_MEDIA_PUBLIC_PREFIX" default:"/media"`
	MaxUploadMB  int    `envconfig:"CONTINENTAL_MAX_UPLOAD_MB" default:"5"`
}

// Load reads an optional .env file and then the process environment. Tags
// carry the full variable name; envconfig falls back to them when the
// nested prefixed key is unset.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks rules that span fields. Admin-only settings are checked
// when requireAdmin is set.
func (c Config) Validate(requireAdmin bool) error {
	switch c.DB.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("db dsn is required")
	}
	if c.Captcha.MinScore < 0 || c.Captcha.MinScore > 1 {
		return fmt.Errorf("recaptcha min score must be within [0,1]")
	}
	if requireAdmin {
		if len(c.JWT.Secret) < 16 {
			return fmt.Errorf("jwt secret must be at least 16 characters")
		}
		if c.JWT.TTL <= 0 {
			return fmt.Errorf("jwt ttl must be positive")
		}
	}
	return nil
}

func (c MediaConfig) MaxUploadBytes() int {
	if c.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return c.MaxUploadMB << 20
}
