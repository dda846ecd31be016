package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.App.StorefrontPort)
	assert.Equal(t, "2002", cfg.App.AdminPort)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, 0.5, cfg.Captcha.MinScore)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONTINENTAL_DB_DRIVER", "mysql")
	t.Setenv("CONTINENTAL_DB_DSN", "user:pw@tcp(localhost:3306)/continental")
	t.Setenv("CONTINENTAL_RECAPTCHA_MIN_SCORE", "0.7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 0.7, cfg.Captcha.MinScore)
}

func TestValidate(t *testing.T) {
	base := Config{
		DB:      DBConfig{Driver: DriverSQLite, DSN: ":memory:"},
		Captcha: CaptchaConfig{MinScore: 0.5},
		JWT:     JWTConfig{TTL: time.Hour},
	}
	require.NoError(t, base.Validate(false))

	require.Error(t, base.Validate(true), "admin requires a jwt secret")
	withSecret := base
	withSecret.JWT.Secret = "0123456789abcdef"
	require.NoError(t, withSecret.Validate(true))

	badDriver := base
	badDriver.DB.Driver = "postgres"
	require.Error(t, badDriver.Validate(false))

	badScore := base
	badScore.Captcha.MinScore = 1.5
	require.Error(t, badScore.Validate(false))
}

func TestMaxUploadBytes(t *testing.T) {
	assert.Equal(t, 5<<20, MediaConfig{}.MaxUploadBytes())
	assert.Equal(t, 2<<20, MediaConfig{MaxUploadMB: 2}.MaxUploadBytes())
}
