// Package discovery implements the client-side module discovery cache
// (spec.md §4.7 "Discovery cache"): one per client provider, refreshed
// on a TTL, fanned out concurrently across every configured target, and
// invalidated on a caller-reported missing-target failure.
//
// Grounded on coreengine/kernel/services.go's ServiceRegistry (the same
// "concurrent map of known entities refreshed under a single-writer
// guard" shape, generalized here from registered services to discovered
// module identifiers) and invariant I4 ("at most one in-progress
// refresh"), which is what the guard in Refresh below exists to uphold.
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protocol"
)

// A Cache's provider field is used as the Prometheus label on
// SetDiscoveryCacheSize and RecordDiscoveryRefresh below; each Cache is given one at
// construction since a process may run several (one per naming/ejb
// provider environment).

// DefaultTTL is the discovery cache's default refresh interval
// (spec.md §3: "TTL is configurable (default 300 000 ms)").
const DefaultTTL = 300 * time.Second

// Prober issues one discover request against a single target and
// returns the module identifiers it published. beanclient supplies the
// concrete implementation (an HTTP GET per spec.md §4.1's discover
// operation); discovery only needs the result.
type Prober interface {
	URI() string
	Discover(ctx context.Context) ([]protocol.ModuleID, error)
}

// entry is one discovered module, tagged with the probe that found it
// so ServiceURL resolution (spec.md §4.7 step 4) can recover the
// originating target.
type entry struct {
	id     protocol.ModuleID
	source string
}

// Cache is one client provider's discovery cache (spec.md §3).
type Cache struct {
	provider string
	ttl      time.Duration
	logger   observability.Logger

	mu          sync.RWMutex
	modules     []entry
	lastRefresh time.Time
	invalid     bool

	refreshMu sync.Mutex // upholds I4: at most one in-progress refresh
}

// New constructs an empty, immediately-stale Cache: the first Search
// call always triggers a refresh. provider labels the cache's metrics
// (observability.SetDiscoveryCacheSize / RecordDiscoveryRefresh) so a
// process running several provider environments can tell them apart.
func New(provider string, ttl time.Duration, logger observability.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = observability.NoopLogger()
	}
	return &Cache{provider: provider, ttl: ttl, logger: logger, invalid: true}
}

func (c *Cache) needsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalid || time.Since(c.lastRefresh) > c.ttl
}

// Invalidate marks the cache stale after a caller reports a missing
// target (spec.md §4.7 "Invalidation: ... processMissingTarget(uri,
// cause) ... set invalid=true").
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid = true
}

// Refresh implements spec.md §4.7's refresh algorithm: probes are fired
// concurrently, the function waits for all of them (success or
// failure), and only on ctx cancellation does it abandon early, leaving
// the cache with the modules collected so far. Per Open Question O1
// (see SPEC_FULL.md §12), on that abandonment path the interrupt is
// returned as ctx.Err() and lastRefresh is left unchanged, but invalid
// is still cleared.
func (c *Cache) Refresh(ctx context.Context, probes []Prober) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	type result struct {
		source string
		ids    []protocol.ModuleID
		err    error
	}

	results := make(chan result, len(probes))
	for _, p := range probes {
		p := p
		go func() {
			ids, err := p.Discover(ctx)
			results <- result{source: p.URI(), ids: ids, err: err}
		}()
	}

	collected := make([]entry, 0, len(probes))
	var interrupted error
	remaining := len(probes)
	for remaining > 0 {
		select {
		case r := <-results:
			remaining--
			if r.err != nil {
				c.logger.Warn("discovery: probe failed", "target", r.source, "error", r.err)
				continue
			}
			for _, id := range r.ids {
				collected = append(collected, entry{id: id, source: r.source})
			}
		case <-ctx.Done():
			interrupted = ctx.Err()
			remaining = 0
		}
	}

	c.mu.Lock()
	c.modules = collected
	// invalid is cleared whether or not the wait completed normally;
	// only a completed wait moves lastRefresh forward.
	c.invalid = false
	if interrupted == nil {
		c.lastRefresh = time.Now()
	}
	size := len(c.modules)
	c.mu.Unlock()

	observability.SetDiscoveryCacheSize(c.provider, size)
	if interrupted != nil {
		observability.RecordDiscoveryRefresh(c.provider, "interrupted")
	} else {
		observability.RecordDiscoveryRefresh(c.provider, "ok")
	}
	return interrupted
}

// Filter selects which discovered modules Search returns.
type Filter func(id protocol.ModuleID) bool

// MatchAll is the trivial Filter that accepts every module.
func MatchAll(protocol.ModuleID) bool { return true }

// MatchApp returns a Filter accepting modules published under appName.
func MatchApp(appName string) Filter {
	return func(id protocol.ModuleID) bool { return id.App == appName }
}

// Found is one search hit: the module identifier plus the target URI
// whose discover response contributed it.
type Found struct {
	Module protocol.ModuleID
	Source string
}

// Search implements spec.md §4.7's search algorithm: if the cache needs
// refreshing, refresh first; iterate current entries applying filter;
// if that yields nothing, refresh once more and re-search.
func (c *Cache) Search(ctx context.Context, probes []Prober, filter Filter) ([]Found, error) {
	if filter == nil {
		filter = MatchAll
	}
	if c.needsRefresh() {
		if err := c.Refresh(ctx, probes); err != nil {
			return nil, err
		}
	}

	found := c.search(filter)
	if len(found) > 0 {
		return found, nil
	}

	if err := c.Refresh(ctx, probes); err != nil {
		return nil, err
	}
	return c.search(filter), nil
}

func (c *Cache) search(filter Filter) []Found {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Found, 0, len(c.modules))
	for _, e := range c.modules {
		if filter(e.id) {
			out = append(out, Found{Module: e.id, Source: e.source})
		}
	}
	return out
}

// LastRefresh returns the wall time of the most recently completed
// refresh, or the zero time if none has run yet.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Invalid reports whether the cache is currently marked stale.
func (c *Cache) Invalid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalid
}
