package core

import (
	"context"
	"errors"
	"sync"
)

// memStore is an in-memory Store. Transactions stage inserts and publish
// them to their parent on commit; the outermost commit publishes to the
// store itself.
type memStore struct {
	mu     sync.Mutex
	rows   []Restaurant
	nextID int64

	insertErr map[string]error // by restaurant name
	commitErr error            // returned by every top-level commit
	findErr   error
}

func newMemStore() *memStore {
	return &memStore{insertErr: make(map[string]error)}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) FindRestaurant(ctx context.Context, name, address string) (*Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	return findIn(s.rows, name, address), nil
}

func (s *memStore) InsertRestaurant(ctx context.Context, r NewRestaurant) (Restaurant, error) {
	tx := &memTx{store: s}
	row, err := tx.InsertRestaurant(ctx, r)
	if err != nil {
		return Restaurant{}, err
	}
	return row, tx.Commit(ctx)
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) all() []Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Restaurant(nil), s.rows...)
}

type memTx struct {
	store   *memStore
	parent  *memTx
	pending []Restaurant
	done    bool
}

func (tx *memTx) Begin(ctx context.Context) (Tx, error) {
	if tx.done {
		return nil, errors.New("tx is closed")
	}
	return &memTx{store: tx.store, parent: tx}, nil
}

func (tx *memTx) FindRestaurant(ctx context.Context, name, address string) (*Restaurant, error) {
	for t := tx; t != nil; t = t.parent {
		if r := findIn(t.pending, name, address); r != nil {
			return r, nil
		}
	}
	return tx.store.FindRestaurant(ctx, name, address)
}

func (tx *memTx) InsertRestaurant(ctx context.Context, r NewRestaurant) (Restaurant, error) {
	if err := tx.store.insertErr[r.Name]; err != nil {
		return Restaurant{}, err
	}
	existing, err := tx.FindRestaurant(ctx, r.Name, r.Address)
	if err != nil {
		return Restaurant{}, err
	}
	if existing != nil {
		return Restaurant{}, errors.New(`duplicate key value violates unique constraint "restaurants_name_address_key"`)
	}

	tx.store.mu.Lock()
	tx.store.nextID++
	id := tx.store.nextID
	tx.store.mu.Unlock()

	row := Restaurant{
		ID:               id,
		Name:             r.Name,
		Address:          r.Address,
		Phone:            r.Phone,
		Email:            r.Email,
		OpeningDate:      r.OpeningDate,
		SeatsCount:       r.SeatsCount,
		RestaurantTypeID: r.RestaurantTypeID,
		IsActive:         r.IsActive,
	}
	tx.pending = append(tx.pending, row)
	return row, nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("tx is closed")
	}
	tx.done = true

	if tx.parent != nil {
		tx.parent.pending = append(tx.parent.pending, tx.pending...)
		return nil
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.store.commitErr != nil {
		return tx.store.commitErr
	}
	tx.store.rows = append(tx.store.rows, tx.pending...)
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.done = true
	tx.pending = nil
	return nil
}

func findIn(rows []Restaurant, name, address string) *Restaurant {
	for i := range rows {
		if rows[i].Name == name && rows[i].Address == address {
			r := rows[i]
			return &r
		}
	}
	return nil
}

// memRuns records import runs.
type memRuns struct {
	mu   sync.Mutex
	runs []ImportRun
	err  error
}

func (m *memRuns) RecordImportRun(ctx context.Context, run ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}
