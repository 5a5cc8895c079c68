package metrics

import (
	"fmt"
	"sync"
)

// Collectible is any instrument the registry can index and collect.
type Collectible interface {
	Name() string
	Collect() CollectedMetric
}

// Registry indexes instruments by metric name. Instruments register once at
// construction and stay registered for the process's lifetime; there is no
// removal path. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Collectible
}

// DefaultRegistry is the process-wide registry the package-level gauge
// constructors register into.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Collectible)}
}

// Register adds m to the registry. Registering a second instrument under a
// name that is already taken is rejected with an error; the existing
// instrument is kept.
func (r *Registry) Register(m Collectible) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.metrics[m.Name()]; exists {
		return fmt.Errorf("metric %q already registered", m.Name())
	}
	r.metrics[m.Name()] = m
	return nil
}

// MustRegister is Register but panics on a duplicate name. Instruments are
// constructed once at process start, so a duplicate is a programmer error.
func (r *Registry) MustRegister(m Collectible) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Get returns the instrument registered under name, if any.
func (r *Registry) Get(name string) (Collectible, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	return m, ok
}

// ForEach calls fn once per registered instrument. fn must not register
// instruments.
func (r *Registry) ForEach(fn func(Collectible)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.metrics {
		fn(m)
	}
}

// CollectAll snapshots every registered instrument. Order is unspecified.
func (r *Registry) CollectAll() []CollectedMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	collected := make([]CollectedMetric, 0, len(r.metrics))
	for _, m := range r.metrics {
		collected = append(collected, m.Collect())
	}
	return collected
}
