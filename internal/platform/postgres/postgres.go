package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sgmdata-labs/sgmsync-go/internal/platform/env"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config holds the relational-backend connection settings, sourced from
// the SGM_DB_* environment keys the deployment provides.
type Config struct {
	Host        string
	Port        int
	User        string
	Secret      string
	Database    string
	PingTimeout time.Duration

	// Each pipeline run owns its connection; the pool exists only so
	// concurrent runs in one process do not share a session.
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func ConfigFromEnv() (Config, error) {
	port, err := env.Int("SGM_DB_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	pingTimeout, err := env.Duration("SGM_DB_PING_TIMEOUT", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxOpenConns, err := env.Int("SGM_DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := env.Duration("SGM_DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Host:            env.String("SGM_DB_HOST", "localhost"),
		Port:            port,
		User:            env.String("SGM_DB_USER", "sgmlive"),
		Secret:          env.String("SGM_DB_SECRET", ""),
		Database:        env.String("SGM_DB_NAME", "sgmlive"),
		PingTimeout:     pingTimeout,
		MaxOpenConns:    maxOpenConns,
		ConnMaxLifetime: connMaxLifetime,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("SGM_DB_HOST is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("SGM_DB_PORT must be a valid port")
	}
	if c.User == "" {
		return errors.New("SGM_DB_USER is required")
	}
	if c.Database == "" {
		return errors.New("SGM_DB_NAME is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("SGM_DB_PING_TIMEOUT must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("SGM_DB_MAX_OPEN_CONNS must be >= 1")
	}
	return nil
}

func (c Config) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Secret),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}
	return u.String()
}

// Open connects through the pgx stdlib driver and verifies the backend
// is reachable. A failed ping is a fatal infra error for the caller.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
