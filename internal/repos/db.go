package repos

import (
	"context"
	"database/sql/driver"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"continental/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	// the built-in lower() folds ASCII only
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, foldLower)
}

func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// OpenDB opens a SQLite database at dsn and applies migrations. Tests use ":memory:".
func OpenDB(dsn string) (*sqlx.DB, error) {
	return Open(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn})
}

// Connect opens and pings the configured database without migrating it.
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	driver, dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if isMemory(cfg) {
		// every new connection to :memory: is a fresh database
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects, migrates, and seeds demo data when asked.
func Open(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if cfg.Seed {
		if err := seedIfEmpty(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func isMemory(cfg config.DBConfig) bool {
	return cfg.Driver == config.DriverSQLite &&
		(strings.HasPrefix(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory"))
}

func driverDSN(cfg config.DBConfig) (string, string, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		dsn := cfg.DSN
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		if !strings.Contains(dsn, "foreign_keys") {
			dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
		return "sqlite", dsn, nil
	case config.DriverMySQL:
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc.ParseTime = true
		mc.MultiStatements = true
		// UPDATE reports matched rows, so an unchanged row still counts as found
		mc.ClientFoundRows = true
		return "mysql", mc.FormatDSN(), nil
	}
	return "", "", fmt.Errorf("unsupported db driver %q", cfg.Driver)
}

func dialect(db *sqlx.DB) (goose.Dialect, string) {
	if db.DriverName() == "mysql" {
		return goose.DialectMySQL, "migrations/mysql"
	}
	return goose.DialectSQLite3, "migrations/sqlite"
}

// Migrate runs a goose command (up, down, status, version) against the embedded migrations.
func Migrate(ctx context.Context, db *sqlx.DB, command string) error {
	d, dir := dialect(db)
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(d, db.DB, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	switch command {
	case "up":
		_, err = p.Up(ctx)
	case "down":
		_, err = p.Down(ctx)
	case "status":
		var st []*goose.MigrationStatus
		st, err = p.Status(ctx)
		for _, s := range st {
			fmt.Printf("%-8s %s\n", s.State, s.Source.Path)
		}
	case "version":
		var v int64
		v, err = p.GetDBVersion(ctx)
		fmt.Printf("version %d\n", v)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
