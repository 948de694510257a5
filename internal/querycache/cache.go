// Package querycache holds the console's disposable projection of the clinic
// API collections, keyed by resource name. Entries are replaced after a
// refetch, never mutated in place.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wolfman30/clinic-console/internal/observability/metrics"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

var (
	// ErrUnknownKey is returned by Get for keys without a registered loader.
	ErrUnknownKey = errors.New("querycache: no loader registered")
	// ErrTypeMismatch is returned by Typed when the cached value has another type.
	ErrTypeMismatch = errors.New("querycache: cached value has unexpected type")
)

// Loader fetches the authoritative value for one key.
type Loader func(ctx context.Context) (any, error)

// Listener is called after a key is invalidated.
type Listener func(key string)

type entry struct {
	value any
	stale bool
}

// Cache is a per-resource query cache. It is safe for concurrent use.
type Cache struct {
	mu          sync.RWMutex
	loaders     map[string]Loader
	entries     map[string]*entry
	generations map[string]uint64
	listeners   map[string]map[int]Listener
	nextID      int

	flights singleflight.Group
	metrics *metrics.CacheMetrics
	logger  *logging.Logger
}

// New creates an empty cache.
func New(logger *logging.Logger, m *metrics.CacheMetrics) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{
		loaders:     make(map[string]Loader),
		entries:     make(map[string]*entry),
		generations: make(map[string]uint64),
		listeners:   make(map[string]map[int]Listener),
		metrics:     m,
		logger:      logger.Component("querycache"),
	}
}

// Register installs the loader for key, replacing any previous one and
// dropping the cached value.
func (c *Cache) Register(key string, loader Loader) {
	c.mu.Lock()
	c.loaders[key] = loader
	delete(c.entries, key)
	c.generations[key]++
	c.mu.Unlock()
}

// Get returns the cached value for key, loading it when missing or stale.
// Concurrent misses share a single fetch that ignores caller cancellation.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, key string) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && !e.stale {
		v := e.value
		c.mu.RUnlock()
		c.metrics.ObserveLookup(key, "hit")
		return v, nil
	}
	loader, registered := c.loaders[key]
	gen := c.generations[key]
	c.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	c.metrics.ObserveLookup(key, "miss")

	// Callers share the flight, so one caller cancelling must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.flights.Do(flightKey(key, gen), func() (any, error) {
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// An invalidation during the fetch makes this value stale on arrival.
		if c.generations[key] == gen {
			c.entries[key] = &entry{value: value}
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		c.metrics.ObserveLookup(key, "error")
		c.logger.Warn("cache load failed", "key", key, "error", err)
		return nil, err
	}
	return v, nil
}

// Peek returns the cached value without loading. ok is false when nothing is
// cached; stale values are still returned with fresh=false.
func (c *Cache) Peek(key string) (value any, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.value, !e.stale, true
}

// Invalidate marks key stale and notifies its listeners. The next Get refetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
	c.generations[key]++
	listeners := make([]Listener, 0, len(c.listeners[key]))
	ids := make([]int, 0, len(c.listeners[key]))
	for id := range c.listeners[key] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, c.listeners[key][id])
	}
	c.mu.Unlock()

	c.metrics.ObserveInvalidation(key)
	c.logger.Debug("cache invalidated", "key", key, "listeners", len(listeners))
	for _, fn := range listeners {
		fn(key)
	}
}

// Subscribe registers fn to run after every invalidation of key. The returned
// func removes the subscription.
func (c *Cache) Subscribe(key string, fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.listeners[key] == nil {
		c.listeners[key] = make(map[int]Listener)
	}
	c.listeners[key][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners[key], id)
			c.mu.Unlock()
		})
	}
}

// DependsOn invalidates key whenever any of deps is invalidated. The
// dependency graph must be acyclic.
func (c *Cache) DependsOn(key string, deps ...string) (unsubscribe func()) {
	unsubs := make([]func(), 0, len(deps))
	for _, dep := range deps {
		unsubs = append(unsubs, c.Subscribe(dep, func(string) { c.Invalidate(key) }))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Typed is Get with a type assertion.
func Typed[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T
	v, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, v)
	}
	return t, nil
}

func flightKey(key string, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}
