// redirect/cache.go
package redirect

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/model"
)

const (
	DefaultCacheTTL     = 60 * time.Second
	DefaultStoreTimeout = 5 * time.Second
	DefaultRetryBackoff = 5 * time.Second

	refreshKey = "active-redirects"
)

// ActiveRedirectSource is the part of the redirect store the cache reads from.
type ActiveRedirectSource interface {
	FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error)
}

// RulesCache serves the currently active redirect rules.
type RulesCache interface {
	GetActiveRedirects(ctx context.Context) []model.RedirectRule
	Invalidate()
}

// Invalidator is implemented by anything holding a redirect snapshot.
type Invalidator interface {
	Invalidate()
}

type CacheState string

const (
	CacheEmpty CacheState = "EMPTY"
	CacheFresh CacheState = "FRESH"
	CacheStale CacheState = "STALE"
)

// CacheStats describes the snapshot currently held by a Cache.
type CacheStats struct {
	State     CacheState    `json:"state"`
	Rules     int           `json:"rules"`
	Age       time.Duration `json:"age"`
	FetchedAt time.Time     `json:"fetchedAt,omitempty"`
}

// refreshFailure records when a refresh for a generation last failed.
type refreshFailure struct {
	at         time.Time
	generation uint64
}

// snapshot is immutable once published.
type snapshot struct {
	rules      []model.RedirectRule
	fetchedAt  time.Time
	generation uint64
}

// Cache is a process-local, time-boxed snapshot of the store's active rules.
// The snapshot is replaced as a whole, never mutated, so readers need no lock.
type Cache struct {
	source       ActiveRedirectSource
	ttl          time.Duration
	storeTimeout time.Duration
	retryBackoff time.Duration
	now          func() time.Time

	current     atomic.Pointer[snapshot]
	generation  atomic.Uint64
	lastFailure atomic.Pointer[refreshFailure]
	refresh     singleflight.Group
}

type CacheOption func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithStoreTimeout bounds each refresh fetch.
func WithStoreTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithRetryBackoff sets how long a failed refresh keeps serving the stale
// snapshot before the store is tried again. Zero retries on every call.
func WithRetryBackoff(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d >= 0 {
			c.retryBackoff = d
		}
	}
}

func NewCache(source ActiveRedirectSource, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		source:       source,
		ttl:          ttl,
		storeTimeout: DefaultStoreTimeout,
		retryBackoff: DefaultRetryBackoff,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetActiveRedirects returns the active rules, refreshing from the store when
// the snapshot is missing, older than the TTL, or invalidated. It never fails:
// on a store error the stale snapshot is served, or nothing at all.
// The returned slice is shared and must not be modified.
func (c *Cache) GetActiveRedirects(ctx context.Context) []model.RedirectRule {
	snap := c.current.Load()
	if c.isFresh(snap) {
		return snap.rules
	}
	if c.backingOff() {
		if snap == nil {
			return []model.RedirectRule{}
		}
		return snap.rules
	}

	v, err, shared := c.refresh.Do(refreshKey, func() (interface{}, error) {
		return c.load(ctx)
	})
	if err != nil {
		if snap != nil {
			logger.Warn("Redirect store refresh failed, serving stale redirects",
				zap.Error(err),
				zap.Int("rules", len(snap.rules)),
				zap.Duration("age", c.now().Sub(snap.fetchedAt)))
			return snap.rules
		}
		logger.Error("Redirect store refresh failed with no cached redirects, failing open", zap.Error(err))
		return []model.RedirectRule{}
	}

	fetched := v.(*snapshot)
	if shared {
		logger.Debug("Joined in-flight redirect refresh", zap.Int("rules", len(fetched.rules)))
	}
	return fetched.rules
}

// Invalidate makes the next GetActiveRedirects call refetch regardless of age
// or of a pending retry back-off. A refresh already in flight still completes
// for its waiters but its result is not considered fresh.
func (c *Cache) Invalidate() {
	c.generation.Add(1)
	c.refresh.Forget(refreshKey)
	logger.Info("Redirect cache invalidated")
}

func (c *Cache) Stats() CacheStats {
	snap := c.current.Load()
	if snap == nil {
		return CacheStats{State: CacheEmpty}
	}
	stats := CacheStats{
		State:     CacheStale,
		Rules:     len(snap.rules),
		Age:       c.now().Sub(snap.fetchedAt),
		FetchedAt: snap.fetchedAt,
	}
	if c.isFresh(snap) {
		stats.State = CacheFresh
	}
	return stats
}

func (c *Cache) isFresh(snap *snapshot) bool {
	return snap != nil &&
		snap.generation == c.generation.Load() &&
		c.now().Sub(snap.fetchedAt) < c.ttl
}

// backingOff reports whether the last refresh of the current generation
// failed less than retryBackoff ago.
func (c *Cache) backingOff() bool {
	f := c.lastFailure.Load()
	return f != nil &&
		f.generation == c.generation.Load() &&
		c.now().Sub(f.at) < c.retryBackoff
}

func (c *Cache) load(ctx context.Context) (*snapshot, error) {
	generation := c.generation.Load()

	// the fetch is shared by every waiting caller, so it must not die with
	// whichever request happened to start it
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
	defer cancel()

	start := c.now()
	rules, err := c.source.FetchActiveRedirects(fetchCtx)
	if err != nil {
		c.lastFailure.Store(&refreshFailure{at: c.now(), generation: generation})
		return nil, err
	}

	active := make([]model.RedirectRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Active {
			active = append(active, rule)
		}
	}

	snap := &snapshot{
		rules:      active,
		fetchedAt:  c.now(),
		generation: generation,
	}
	c.publish(snap)

	logger.Info("Redirect cache refreshed",
		zap.Int("rules", len(active)),
		zap.Duration("duration", c.now().Sub(start)))
	return snap, nil
}

// publish swaps in snap unless a newer generation has already been stored.
func (c *Cache) publish(snap *snapshot) {
	for {
		old := c.current.Load()
		if old != nil && old.generation > snap.generation {
			return
		}
		if c.current.CompareAndSwap(old, snap) {
			return
		}
	}
}
