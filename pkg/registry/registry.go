// Package registry provides a process-wide namespace of named atomic cells.
//
// Services typically hold counters in a shared registry so that HTTP
// handlers, background workers and exporters can address the same cell by
// name without passing pointers around.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/mnohosten/atomic32/pkg/atomic32"
)

// Registry maps names to atomic cells. Cells are created on first use and
// live until removed; all methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	cells     map[string]*atomic32.Int32
	createdAt time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		cells:     make(map[string]*atomic32.Int32),
		createdAt: time.Now(),
	}
}

// Get returns the cell registered under name, creating a zero-valued cell
// if none exists. Concurrent callers racing on the same name receive the
// same cell.
func (r *Registry) Get(name string) *atomic32.Int32 {
	r.mu.RLock()
	cell, ok := r.cells[name]
	r.mu.RUnlock()
	if ok {
		return cell
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock; another goroutine may have won the race
	if cell, ok := r.cells[name]; ok {
		return cell
	}
	cell = atomic32.New(0)
	r.cells[name] = cell
	return cell
}

// Lookup returns the cell registered under name, or false if no such cell
// exists. Unlike Get it never creates.
func (r *Registry) Lookup(name string) (*atomic32.Int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cell, ok := r.cells[name]
	return cell, ok
}

// Register binds an existing cell under name, replacing any previous cell.
// Useful for seeding a registry with pre-initialized values.
func (r *Registry) Register(name string, cell *atomic32.Int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cells[name] = cell
}

// Remove deletes the cell registered under name and reports whether it
// existed. Goroutines still holding the pointer keep a working cell; it is
// simply no longer reachable through the registry.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cells[name]; !ok {
		return false
	}
	delete(r.cells, name)
	return true
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.cells))
	for name := range r.cells {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered cells.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.cells)
}

// Snapshot returns the current value of every registered cell. Each value
// is read atomically but the snapshot as a whole is not a consistent cut;
// cells may move while the map is being built.
func (r *Registry) Snapshot() map[string]int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]int32, len(r.cells))
	for name, cell := range r.cells {
		snapshot[name] = cell.Load()
	}
	return snapshot
}

// Reset removes every cell from the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cells = make(map[string]*atomic32.Int32)
	r.createdAt = time.Now()
}

// Uptime returns how long ago the registry was created or last reset.
func (r *Registry) Uptime() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return time.Since(r.createdAt)
}

// defaultRegistry is the process-wide registry used by the package-level
// helpers.
var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Get returns a cell from the process-wide registry, creating it if needed.
func Get(name string) *atomic32.Int32 {
	return defaultRegistry.Get(name)
}

// Lookup returns a cell from the process-wide registry without creating it.
func Lookup(name string) (*atomic32.Int32, bool) {
	return defaultRegistry.Lookup(name)
}

// Snapshot returns the current values in the process-wide registry.
func Snapshot() map[string]int32 {
	return defaultRegistry.Snapshot()
}
