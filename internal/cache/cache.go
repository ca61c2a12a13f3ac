// Package cache is a process-wide keyed cache with stale-while-revalidate
// reads.
//
// An entry younger than its TTL is served as is. Between TTL and 1.5×TTL
// the stored value is still served, and one background fetch refreshes it.
// Past 1.5×TTL the entry is treated as absent and the caller waits for a
// fresh fetch. When a new key arrives at capacity the entry with the fewest
// hits (oldest on a tie) is evicted.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxEntries = 200
	DefaultTTL        = 90 * time.Second
)

// Metrics receives cache events. *metrics.Collector satisfies it.
type Metrics interface {
	CacheHit()
	CacheStaleHit()
	CacheMiss()
	CacheEviction()
	CacheRevalidateFailed()
}

type noopMetrics struct{}

func (noopMetrics) CacheHit()              {}
func (noopMetrics) CacheStaleHit()         {}
func (noopMetrics) CacheMiss()             {}
func (noopMetrics) CacheEviction()         {}
func (noopMetrics) CacheRevalidateFailed() {}

// Options configures a Cache. Zero fields take defaults.
type Options struct {
	MaxEntries int
	DefaultTTL time.Duration
	// Now is the wall clock; tests substitute a fake.
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics Metrics
}

type entry struct {
	value        any
	storedAt     time.Time
	ttl          time.Duration
	hits         int
	revalidating bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
	metrics    Metrics

	// gen advances on every invalidation; a miss whose fetch straddles
	// one is returned to its callers but not stored.
	gen      uint64
	fetching map[string]int
	misses   singleflight.Group
	pending  sync.WaitGroup
}

// New constructs an empty Cache.
func New(opts Options) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		fetching:   make(map[string]int),
		maxEntries: opts.MaxEntries,
		defaultTTL: opts.DefaultTTL,
		now:        opts.Now,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	return c
}

// Get returns the value cached under key, calling fetch when there is none
// or it has expired. A ttl of zero uses the cache default.
//
// Errors from a synchronous fetch are returned and nothing is stored.
// Errors from a background refresh are logged and the stale value stays.
func Get[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	erased := func(ctx context.Context) (any, error) { return fetch(ctx) }
	isT := func(v any) bool { _, ok := v.(T); return ok }

	if v, ok := c.lookup(ctx, key, isT, erased); ok {
		return v.(T), nil
	}

	c.metrics.CacheMiss()
	v, err, _ := c.misses.Do(key, func() (any, error) {
		gen := c.beginFetch(key)
		defer c.endFetch(key)

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(key, v, ttl, gen)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	// A concurrent caller shared the key with another type.
	return fetch(ctx)
}

// lookup serves fresh and stale-servable entries of the wanted type. It
// reports false when the caller has to fetch synchronously.
func (c *Cache) lookup(ctx context.Context, key string, wanted func(any) bool, fetch func(context.Context) (any, error)) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !wanted(e.value) {
		c.mu.Unlock()
		return nil, false
	}

	age := c.now().Sub(e.storedAt)
	if age < 0 {
		age = 0
	}
	switch {
	case age < e.ttl:
		e.hits++
		v := e.value
		c.mu.Unlock()
		c.metrics.CacheHit()
		return v, true

	case age < e.ttl+e.ttl/2:
		e.hits++
		v := e.value
		start := !e.revalidating
		e.revalidating = true
		c.mu.Unlock()

		c.metrics.CacheStaleHit()
		if start {
			c.revalidate(ctx, key, e, fetch)
		}
		return v, true
	}

	c.mu.Unlock()
	return nil, false
}

// revalidate refreshes e in the background. The result is dropped when e
// was invalidated or replaced while the fetch ran.
func (c *Cache) revalidate(ctx context.Context, key string, e *entry, fetch func(context.Context) (any, error)) {
	ctx = context.WithoutCancel(ctx)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		v, err := fetch(ctx)

		c.mu.Lock()
		e.revalidating = false
		current := c.entries[key] == e
		if err == nil && current {
			e.value = v
			e.storedAt = c.now()
		}
		c.mu.Unlock()

		if err != nil {
			c.metrics.CacheRevalidateFailed()
			c.log.Warn().Err(err).Str("key", key).Msg("cache revalidation failed")
		}
	}()
}

func (c *Cache) beginFetch(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching[key]++
	return c.gen
}

func (c *Cache) endFetch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetching[key]--; c.fetching[key] <= 0 {
		delete(c.fetching, key)
	}
}

// storeIfCurrent stores v unless an invalidation ran since gen was taken.
func (c *Cache) storeIfCurrent(key string, v any, ttl time.Duration, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOne()
	}
	c.entries[key] = &entry{value: v, storedAt: c.now(), ttl: ttl}
}

// evictOne drops the entry with the fewest hits, the oldest among equals.
// Callers hold mu.
func (c *Cache) evictOne() {
	var (
		victim string
		worst  *entry
	)
	for k, e := range c.entries {
		if worst == nil ||
			e.hits < worst.hits ||
			(e.hits == worst.hits && e.storedAt.Before(worst.storedAt)) ||
			(e.hits == worst.hits && e.storedAt.Equal(worst.storedAt) && k < victim) {
			victim, worst = k, e
		}
	}
	if worst != nil {
		delete(c.entries, victim)
		c.metrics.CacheEviction()
	}
}

// invalidated marks every fetch in flight as stale and detaches the
// in-flight ones that match so new callers start a fresh fetch. Callers
// hold mu.
func (c *Cache) invalidated(match func(key string) bool) {
	c.gen++
	for k := range c.fetching {
		if match(k) {
			c.misses.Forget(k)
		}
	}
}

// Invalidate removes key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.invalidated(func(k string) bool { return k == key })
	c.mu.Unlock()
}

// InvalidatePattern removes every key containing substr and returns how
// many were removed.
func (c *Cache) InvalidatePattern(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if strings.Contains(k, substr) {
			delete(c.entries, k)
			n++
		}
	}
	c.invalidated(func(k string) bool { return strings.Contains(k, substr) })
	return n
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.invalidated(func(string) bool { return true })
	c.mu.Unlock()
}

// Wait blocks until in-flight background refreshes finish.
func (c *Cache) Wait() {
	c.pending.Wait()
}

// EntryStats describes one cached key.
type EntryStats struct {
	Key       string `json:"key"`
	AgeMillis int64  `json:"age_ms"`
	TTLMillis int64  `json:"ttl_ms"`
	Hits      int    `json:"hits"`
}

// Stats is a point-in-time snapshot of the cache.
type Stats struct {
	Size    int          `json:"size"`
	MaxSize int          `json:"max_size"`
	Entries []EntryStats `json:"entries"`
}

// Stats snapshots the cache, entries ordered by key.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := Stats{Size: len(c.entries), MaxSize: c.maxEntries, Entries: make([]EntryStats, 0, len(c.entries))}
	for k, e := range c.entries {
		out.Entries = append(out.Entries, EntryStats{
			Key:       k,
			AgeMillis: now.Sub(e.storedAt).Milliseconds(),
			TTLMillis: e.ttl.Milliseconds(),
			Hits:      e.hits,
		})
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].Key < out.Entries[j].Key })
	return out
}
