// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"churn-loader/internal/common/config"
	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/common/logger"

	_ "github.com/lib/pq"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// ErrNoConnection marks work skipped because Connect yielded no client.
// Connect has already logged the cause.
var ErrNoConnection = errors.New("no database connection")

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// Validate reports missing or malformed connection parameters as a
// configuration error.
func Validate(cfg config.PostgresConfig) error {
	if missing := cfg.MissingFields(); len(missing) > 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("missing postgres settings: %s", strings.Join(missing, ", ")))
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return apperrors.NewConfigurationError(fmt.Sprintf("invalid postgres port %q", cfg.Port))
	}
	return nil
}

// NewPostgres creates a new PostgreSQL client. The pool is capped at a
// single connection: every step works over one connection only.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, cfg.GetDSN())
	if err != nil {
		return nil, apperrors.NewConnectionError(fmt.Errorf("failed to open postgres: %w", err))
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Connect opens and pings a connection. Any failure is logged and yields a
// nil client, which callers treat as "no connection, do nothing".
func Connect(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) *PostgresClient {
	client, err := NewPostgres(cfg)
	if err != nil {
		log.Error("couldn't create the postgres connection", map[string]interface{}{
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err,
		})
		return nil
	}

	if err := client.Ping(ctx); err != nil {
		log.Error("couldn't create the postgres connection", map[string]interface{}{
			"errorCode": string(apperrors.ErrCodeConfiguration),
			"host":      cfg.Host,
			"port":      cfg.Port,
			"database":  cfg.Database,
			"error":     err,
		})
		_ = client.Close()
		return nil
	}

	log.Debug("postgres connection established", map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return client
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection. Safe on a nil client.
func (c *PostgresClient) Close() error {
	if c != nil && c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
