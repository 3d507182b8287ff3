package rulecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amanahapps/guardian/internal/guard/common/clock"
	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/domain"
)

// Source is the opaque persisted rule provider the cache refreshes from.
// Implementations may be backed by any local persistence; the cache only
// requires that each getter return the latest stored value.
type Source interface {
	Settings(ctx context.Context) (domain.Settings, error)
	Schedule(ctx context.Context) (domain.ScheduleConfig, error)
	BlockedDomains(ctx context.Context) ([]string, error)
	BlockedKeywords(ctx context.Context) ([]string, error)
	WhitelistDomains(ctx context.Context) ([]string, error)
	StrictModeEnabled(ctx context.Context) (bool, error)
}

// Cache holds the most recent successfully fetched rule snapshot.
//
// Exactly one writer (Refresh) swaps the snapshot pointer; arbitrarily many
// readers call Read concurrently without locks. A failed refresh leaves the
// previous snapshot untouched: stale-but-available beats unavailable.
type Cache struct {
	source Source
	clock  clock.Clock
	logger log.Logger

	snap       atomic.Pointer[domain.RuleSnapshot]
	generation atomic.Uint64
	refreshMu  sync.Mutex // serializes writers; readers never take it
}

// New creates a Cache primed with the bootstrap snapshot, so Read is safe
// before the first refresh completes.
func New(source Source, clk clock.Clock, logger log.Logger) *Cache {
	c := &Cache{source: source, clock: clk, logger: logger}
	boot := domain.Bootstrap()
	c.snap.Store(&boot)
	return c
}

// Read returns the current snapshot. It never blocks and never performs
// I/O; the returned value is immutable by convention.
func (c *Cache) Read() domain.RuleSnapshot {
	return *c.snap.Load()
}

// Age reports how stale the current snapshot is.
func (c *Cache) Age(now time.Time) time.Duration {
	return c.snap.Load().Age(now)
}

// Refresh fetches every rule source in parallel and atomically swaps in a
// complete new snapshot. Any fetch failure aborts the swap; the error is
// returned for logging only and the previous snapshot stays in effect.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var (
		wg       sync.WaitGroup
		settings domain.Settings
		schedule domain.ScheduleConfig
		domains  []string
		keywords []string
		allowed  []string
		strict   bool
	)
	errs := make([]error, 6)

	fetch := func(i int, f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f()
		}()
	}

	fetch(0, func() (err error) { settings, err = c.source.Settings(ctx); return })
	fetch(1, func() (err error) { schedule, err = c.source.Schedule(ctx); return })
	fetch(2, func() (err error) { domains, err = c.source.BlockedDomains(ctx); return })
	fetch(3, func() (err error) { keywords, err = c.source.BlockedKeywords(ctx); return })
	fetch(4, func() (err error) { allowed, err = c.source.WhitelistDomains(ctx); return })
	fetch(5, func() (err error) { strict, err = c.source.StrictModeEnabled(ctx); return })
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			c.logger.Warn(map[string]any{"error": err.Error()}, "rule refresh failed, keeping previous snapshot")
			return fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
		}
	}

	settings.StrictMode = strict
	next := domain.RuleSnapshot{
		FetchedAt: c.clock.Now(),
		Settings:  settings,
		Schedule:  schedule,
		Rules:     domain.BlockRules{Domains: domains, Keywords: keywords},
		Whitelist: domain.Whitelist{Domains: allowed},
	}

	// Unchanged content keeps its generation; only the freshness stamp
	// moves. Downstream per-generation state (compiled matcher, verdict
	// cache) stays warm across no-op refresh cycles.
	prev := c.snap.Load()
	if next.SameRules(*prev) {
		refreshed := *prev
		refreshed.FetchedAt = next.FetchedAt
		c.snap.Store(&refreshed)
		return nil
	}

	next.Generation = c.generation.Add(1)
	c.snap.Store(&next)

	c.logger.Debug(map[string]any{
		"generation": next.Generation,
		"domains":    len(domains),
		"keywords":   len(keywords),
		"whitelist":  len(allowed),
	}, "rule snapshot refreshed")
	return nil
}

// Run refreshes immediately and then on the given interval until ctx is
// canceled. Failures are tolerated; the loop never stops on error.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	_ = c.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = c.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}
