package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/restaurant-etl/internal/store"
)

var errNoDatabase = errors.New("no database configured: pass --database-url or set ETL_DATABASE_URL or DATABASE_URL")

// openStore connects to PostgreSQL and optionally applies the schema. The
// caller closes the returned pool.
func openStore(ctx context.Context, s settings) (*store.Store, *pgxpool.Pool, error) {
	if s.DatabaseURL == "" {
		return nil, nil, errNoDatabase
	}

	pool, err := pgxpool.New(ctx, s.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := store.New(pool)
	if s.Migrate {
		if err := st.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return st, pool, nil
}
