package catalog

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Catalog)
	registryMu sync.RWMutex
)

// Register adds a catalog to the registry.
// Panics if the catalog is invalid or its key is already registered.
func Register(c Catalog) {
	if err := Add(c); err != nil {
		panic(err.Error())
	}
}

// Add is Register returning an error instead of panicking. Use it for
// catalogs read from disk.
func Add(c Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[c.Key]; exists {
		return fmt.Errorf("catalog already registered: %s", c.Key)
	}

	// Copy so later changes to the caller's slice cannot leak in.
	c.Fields = append([]Field(nil), c.Fields...)
	registry[c.Key] = c
	return nil
}

// Get returns a catalog by key.
// Returns false if not found.
func Get(key string) (Catalog, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[key]
	return c, ok
}

// Lookup is Get with an error wrapping ErrUnknownCatalog.
func Lookup(key string) (Catalog, error) {
	c, ok := Get(key)
	if !ok {
		return Catalog{}, fmt.Errorf("%w: %s", ErrUnknownCatalog, key)
	}
	return c, nil
}

// All returns all registered catalogs sorted by key.
func All() []Catalog {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Catalog, 0, len(registry))
	for _, c := range registry {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns all registered catalog keys, sorted.
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, c := range all {
		keys[i] = c.Key
	}
	return keys
}

// Count returns the number of registered catalogs.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered catalogs.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Catalog)
}
