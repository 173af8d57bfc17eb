package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"appointment-booking-api/internal/booking"
	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/store"
)

// repository is a booking.Repository that can also migrate its schema.
type repository interface {
	booking.Repository
	Migrate(ctx context.Context) error
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openStore connects to the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := store.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		pool, err := pgxpool.New(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		return store.New(pool), pool.Close, nil
	}
}
