// Package collision maps schema names to the xxHash ids stored in frame
// headers and rejects names whose ids collide.
package collision

import (
	"fmt"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/internal/hash"
)

type entry[T any] struct {
	name  string
	value T
}

// Registry associates schema names, their ids and a value per schema.
// It is not safe for concurrent registration.
type Registry[T any] struct {
	byID  map[uint64]entry[T]
	names []string
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{byID: make(map[uint64]entry[T])}
}

// Register adds a named schema and returns its id.
//
// It fails with errs.ErrInvalidSchemaName for an empty name,
// errs.ErrDuplicateSchema when the name is already present and
// errs.ErrHashCollision when another name hashes to the same id.
func (r *Registry[T]) Register(name string, value T) (uint64, error) {
	id := hash.ID(name)
	if err := r.track(name, id, value); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *Registry[T]) track(name string, id uint64, value T) error {
	if name == "" {
		return errs.ErrInvalidSchemaName
	}
	if existing, ok := r.byID[id]; ok {
		if existing.name == name {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateSchema, name)
		}

		return fmt.Errorf("%w: %q and %q share id %#016x", errs.ErrHashCollision, existing.name, name, id)
	}
	r.byID[id] = entry[T]{name: name, value: value}
	r.names = append(r.names, name)

	return nil
}

// Lookup returns the name and value registered under id.
func (r *Registry[T]) Lookup(id uint64) (string, T, bool) {
	e, ok := r.byID[id]
	return e.name, e.value, ok
}

// Get returns the id and value registered under name.
func (r *Registry[T]) Get(name string) (uint64, T, bool) {
	id := hash.ID(name)
	e, ok := r.byID[id]
	if !ok || e.name != name {
		var zero T
		return 0, zero, false
	}

	return id, e.value, true
}

// Names returns the registered names in registration order.
func (r *Registry[T]) Names() []string {
	return r.names
}

// Count returns the number of registered schemas.
func (r *Registry[T]) Count() int {
	return len(r.names)
}
