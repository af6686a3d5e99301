// Package store implements the import pipeline's storage on PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
	db "github.com/JonMunkholm/restaurant-etl/internal/database"
)

// ErrNotFound is core.ErrNotFound, returned by lookups and deletes that
// match nothing.
var ErrNotFound = core.ErrNotFound

var (
	_ core.Store       = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
	_ core.Tx          = (*txStore)(nil)
)

// Store is a core.Store backed by a pgx pool.
type Store struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		queries: db.New(pool),
	}
}

// Migrate applies the database schema.
func (s *Store) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, s.pool)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) FindRestaurant(ctx context.Context, name, address string) (*core.Restaurant, error) {
	return findRestaurant(ctx, s.queries, name, address)
}

func (s *Store) InsertRestaurant(ctx context.Context, r core.NewRestaurant) (core.Restaurant, error) {
	return insertRestaurant(ctx, s.queries, r)
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txStore{tx: tx, queries: s.queries.WithTx(tx)}, nil
}

// GetRestaurant returns the restaurant with id, or ErrNotFound.
func (s *Store) GetRestaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	row, err := s.queries.GetRestaurant(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Restaurant{}, ErrNotFound
	}
	if err != nil {
		return core.Restaurant{}, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return toCoreRestaurant(row), nil
}

// ListRestaurants returns restaurants matching the filter ordered by id.
func (s *Store) ListRestaurants(ctx context.Context, filter db.ListRestaurantsParams) ([]core.Restaurant, error) {
	rows, err := s.queries.ListRestaurants(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	out := make([]core.Restaurant, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCoreRestaurant(r))
	}
	return out, nil
}

// DeleteRestaurant removes one restaurant, or returns ErrNotFound.
func (s *Store) DeleteRestaurant(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteRestaurant(ctx, id)
	if err != nil {
		return fmt.Errorf("delete restaurant %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordImportRun persists a run summary.
func (s *Store) RecordImportRun(ctx context.Context, run core.ImportRun) error {
	if err := s.queries.InsertImportRun(ctx, importRunParams(run)); err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the most recent runs first.
func (s *Store) ListImportRuns(ctx context.Context, limit int32) ([]core.ImportRun, error) {
	rows, err := s.queries.ListImportRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	out := make([]core.ImportRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCoreImportRun(r))
	}
	return out, nil
}

// txStore scopes the repository to one pgx transaction. Begin on it opens
// a savepoint.
type txStore struct {
	tx      pgx.Tx
	queries *db.Queries
}

func (t *txStore) FindRestaurant(ctx context.Context, name, address string) (*core.Restaurant, error) {
	return findRestaurant(ctx, t.queries, name, address)
}

func (t *txStore) InsertRestaurant(ctx context.Context, r core.NewRestaurant) (core.Restaurant, error) {
	return insertRestaurant(ctx, t.queries, r)
}

func (t *txStore) Begin(ctx context.Context) (core.Tx, error) {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin savepoint: %w", err)
	}
	return &txStore{tx: nested, queries: t.queries.WithTx(nested)}, nil
}

func (t *txStore) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (t *txStore) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func findRestaurant(ctx context.Context, q *db.Queries, name, address string) (*core.Restaurant, error) {
	row, err := q.GetRestaurantByNaturalKey(ctx, db.GetRestaurantByNaturalKeyParams{
		Name:    name,
		Address: address,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup restaurant: %w", err)
	}
	r := toCoreRestaurant(row)
	return &r, nil
}

func insertRestaurant(ctx context.Context, q *db.Queries, r core.NewRestaurant) (core.Restaurant, error) {
	row, err := q.InsertRestaurant(ctx, insertParams(r))
	if err != nil {
		return core.Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	return toCoreRestaurant(row), nil
}

func insertParams(r core.NewRestaurant) db.InsertRestaurantParams {
	return db.InsertRestaurantParams{
		Name:             r.Name,
		Address:          r.Address,
		Phone:            r.Phone,
		Email:            r.Email,
		OpeningDate:      pgtype.Date{Time: dateOnly(r.OpeningDate), Valid: true},
		SeatsCount:       r.SeatsCount,
		RestaurantTypeID: r.RestaurantTypeID,
		IsActive:         r.IsActive,
	}
}

func toCoreRestaurant(r db.Restaurant) core.Restaurant {
	return core.Restaurant{
		ID:               r.ID,
		Name:             r.Name,
		Address:          r.Address,
		Phone:            r.Phone,
		Email:            r.Email,
		OpeningDate:      r.OpeningDate.Time,
		SeatsCount:       r.SeatsCount,
		RestaurantTypeID: r.RestaurantTypeID,
		IsActive:         r.IsActive,
		CreatedAt:        r.CreatedAt.Time,
	}
}

func importRunParams(run core.ImportRun) db.InsertImportRunParams {
	return db.InsertImportRunParams{
		ID:         core.ToPgUUID(run.ID),
		FileName:   run.FileName,
		Entity:     string(run.Entity),
		Total:      int32(run.Total),
		Successful: int32(run.Successful),
		Failed:     int32(run.Failed),
		Skipped:    int32(run.Skipped),
		FatalError: core.ToPgText(run.FatalError),
		StartedAt:  pgtype.Timestamptz{Time: run.StartedAt, Valid: !run.StartedAt.IsZero()},
		DurationMs: run.Duration.Milliseconds(),
	}
}

func toCoreImportRun(r db.ImportRun) core.ImportRun {
	return core.ImportRun{
		ID:         core.PgUUIDToString(r.ID),
		FileName:   r.FileName,
		Entity:     core.EntityKind(r.Entity),
		Total:      int(r.Total),
		Successful: int(r.Successful),
		Failed:     int(r.Failed),
		Skipped:    int(r.Skipped),
		FatalError: r.FatalError.String,
		StartedAt:  r.StartedAt.Time,
		Duration:   time.Duration(r.DurationMs) * time.Millisecond,
	}
}

// dateOnly drops the clock part so a DATE column stores the calendar day
// the row named.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
