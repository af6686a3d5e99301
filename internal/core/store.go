package core

import (
	"context"
	"time"
)

// RestaurantRepository is the slice of storage the restaurant loader needs.
type RestaurantRepository interface {
	// FindRestaurant looks a restaurant up by its natural key. It returns
	// nil and no error when none exists.
	FindRestaurant(ctx context.Context, name, address string) (*Restaurant, error)
	InsertRestaurant(ctx context.Context, r NewRestaurant) (Restaurant, error)
}

// Store is the storage engine behind a load. Begin on a Store starts a
// transaction; Begin on a Tx starts a nested one (a savepoint).
type Store interface {
	RestaurantRepository
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a Store scoped to one transaction.
type Tx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ImportRun summarises one finished import.
type ImportRun struct {
	ID         string        `json:"id"`
	FileName   string        `json:"file_name"`
	Entity     EntityKind    `json:"entity"`
	Total      int           `json:"total_records"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	FatalError string        `json:"fatal_error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// RunRecorder persists import run summaries.
type RunRecorder interface {
	RecordImportRun(ctx context.Context, run ImportRun) error
}
