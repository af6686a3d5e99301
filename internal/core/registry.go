package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LoaderRegistry maps entity kinds to the loaders that persist them.
type LoaderRegistry struct {
	mu      sync.RWMutex
	loaders map[EntityKind]RowLoader
}

// NewLoaderRegistry returns a registry holding the given loaders.
func NewLoaderRegistry(loaders ...RowLoader) *LoaderRegistry {
	r := &LoaderRegistry{loaders: make(map[EntityKind]RowLoader, len(loaders))}
	for _, l := range loaders {
		r.Register(l)
	}
	return r
}

// Register adds a loader.
// Panics if a loader for the same entity kind is already registered.
func (r *LoaderRegistry) Register(l RowLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[l.Entity()]; exists {
		panic(fmt.Sprintf("loader already registered: %s", l.Entity()))
	}
	r.loaders[l.Entity()] = l
}

// Get returns the loader for kind.
// Returns false if not found.
func (r *LoaderRegistry) Get(kind EntityKind) (RowLoader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.loaders[kind]
	return l, ok
}

// Kinds returns every loadable entity kind, sorted.
func (r *LoaderRegistry) Kinds() []EntityKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]EntityKind, 0, len(r.loaders))
	for k := range r.loaders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func joinKinds(kinds []EntityKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
