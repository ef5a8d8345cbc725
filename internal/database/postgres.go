package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, config Config) (*DB, error) {
	pgPool, err := pgxpool.New(ctx, config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{
		Pool: pgPool,
	}, nil
}

// NewWithBackoff connects and pings, retrying with exponential backoff.
func NewWithBackoff(ctx context.Context, config Config, maxRetries int) (*DB, error) {
	var err error
	for i := range maxRetries {
		if i > 0 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Info().Dur("backoff", backoff).Msg("Waiting before database retry")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var db *DB
		db, err = New(ctx, config)
		if err == nil {
			if err = db.Ping(ctx); err == nil {
				log.Info().Int("attempts_needed", i+1).Msg("Database connected")
				return db, nil
			}
			db.Close()
		}

		log.Warn().Err(err).Int("attempt", i+1).Msg("Database connection failed")
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.Pool.Close()
}
