package database

import (
	"context"
	"fmt"
	"time"

	"barcatalog-backend/internal/config"
	"barcatalog-backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB wraps the pgx connection pool and its lifecycle
type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config config.DatabaseConfig
}

const (
	connectMaxRetries = 3
	connectRetryDelay = 2 * time.Second
)

// NewPostgresDB opens a connection pool and verifies it with a ping.
// Connection attempts are retried a few times so the service survives
// a database that is still starting up.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig) (*PostgresDB, error) {
	db := &PostgresDB{Config: cfg}

	poolConfig, err := pgxpool.ParseConfig(db.connectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}

		if attempt < connectMaxRetries {
			logger.Warn("database connect failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			time.Sleep(connectRetryDelay * time.Duration(attempt))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectMaxRetries, err)
	}

	db.Pool = pool
	logger.Info("connected to postgres", map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return db, nil
}

func (db *PostgresDB) connectionString() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		db.Config.User,
		db.Config.Password,
		db.Config.Host,
		db.Config.Port,
		db.Config.Database,
		db.Config.SSLMode,
	)
}

// HealthCheck pings the database
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close releases the connection pool
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
