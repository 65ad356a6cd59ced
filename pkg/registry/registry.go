package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/liboverride/pkg/errors"
)

// Registry is a generic, thread-safe registry keyed by a string-like type
type Registry[K ~string, T any] interface {
	// Register adds an item, failing if the key is taken
	Register(key K, item T) error

	// Set adds or replaces an item
	Set(key K, item T)

	// Get retrieves an item from the registry
	Get(key K) (T, error)

	// Lookup is Get with a found flag instead of an error
	Lookup(key K) (T, bool)

	// Remove removes an item from the registry
	Remove(key K) error

	// Keys returns all registered keys in sorted order
	Keys() []K

	// Has checks if a key is registered
	Has(key K) bool

	// Clear removes all items from the registry
	Clear()

	// Count returns the number of registered items
	Count() int
}

type registry[K ~string, T any] struct {
	mu    sync.RWMutex
	items map[K]T
}

// New creates a new Registry instance
func New[K ~string, T any]() Registry[K, T] {
	return &registry[K, T]{
		items: make(map[K]T),
	}
}

func (r *registry[K, T]) Register(key K, item T) error {
	if key == "" {
		return errors.New(errors.ErrInvalidInput, "registry key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "item '%s' is already registered", key)
	}

	r.items[key] = item
	return nil
}

func (r *registry[K, T]) Set(key K, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = item
}

func (r *registry[K, T]) Get(key K) (T, error) {
	item, ok := r.Lookup(key)
	if !ok {
		return item, errors.Newf(errors.ErrNotFound, "item '%s' not found in registry", key)
	}
	return item, nil
}

func (r *registry[K, T]) Lookup(key K) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[key]
	return item, ok
}

func (r *registry[K, T]) Remove(key K) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; !exists {
		return errors.Newf(errors.ErrNotFound, "item '%s' not found in registry", key)
	}

	delete(r.items, key)
	return nil
}

func (r *registry[K, T]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *registry[K, T]) Has(key K) bool {
	_, ok := r.Lookup(key)
	return ok
}

func (r *registry[K, T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[K]T)
}

func (r *registry[K, T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// MustRegister registers an item and panics if registration fails.
// Meant for init() functions, where a failure is a programming error.
func MustRegister[K ~string, T any](reg Registry[K, T], key K, item T) {
	if err := reg.Register(key, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", key, err))
	}
}

// MustGet retrieves an item and panics if not found
func MustGet[K ~string, T any](reg Registry[K, T], key K) T {
	item, err := reg.Get(key)
	if err != nil {
		panic(fmt.Sprintf("failed to get %s: %v", key, err))
	}
	return item
}
