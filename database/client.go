// Package database opens the backing SQL database, wires the bun dialect for
// the configured driver, and applies the embedded migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-remediation-notify/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const defaultPingTimeout = 5 * time.Second

// Config carries the connection settings for the notification store.
type Config struct {
	Driver      string        `json:"driver" koanf:"driver" mapstructure:"driver"`
	DSN         string        `json:"dsn" koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `json:"debug" koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `json:"ping_timeout" koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	return "go-remediation-notify"
}

// NewClient opens the database, registers the migrations for the configured
// dialect, and runs them. Callers own the returned client and must Close it.
func NewClient(ctx context.Context, cfg Config) (*persistence.Client, error) {
	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driver == "" {
		return nil, fmt.Errorf("database: driver is required")
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database: dsn is required")
	}

	var (
		dialect schema.Dialect
		target  string
	)
	switch driver {
	case "postgres", "postgresql", "pg":
		driver = "postgres"
		dialect = pgdialect.New()
		target = migrations.DialectPostgres
	case "sqlite", "sqlite3":
		driver = "sqlite3"
		dialect = sqlitedialect.New()
		target = migrations.DialectSQLite
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
	cfg.Driver = driver

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database: new persistence client: %w", err)
	}

	err = migrations.Register(ctx, func(_ context.Context, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, target)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("database: migrate: %w", err)
	}

	return client, nil
}
