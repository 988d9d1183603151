package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Cache pre-warms per-security price panels before worker fan-out, so
// worker goroutines only perform in-memory lookups and never touch disk or
// the database in the hot path (§5: "Implementations must pre-warm caches
// ... in the main thread before fan-out").
//
// Cache is safe for concurrent reads once Warm has returned; it is not
// safe to call Warm concurrently with reads.
type Cache struct {
	store Store
	log   zerolog.Logger

	mu        sync.RWMutex
	prices    map[string][]PriceObservation
	industry  map[string]string
	benchmark []BenchmarkObservation
}

// NewCache builds an empty cache over the given store.
func NewCache(store Store, log zerolog.Logger) *Cache {
	return &Cache{
		store:    store,
		log:      log.With().Str("component", "panel_cache").Logger(),
		prices:   make(map[string][]PriceObservation),
		industry: make(map[string]string),
	}
}

// Warm loads the price history, industry tag, and benchmark series for
// every given security onto the main goroutine. It must be called before
// any worker pool reads from the cache.
func (c *Cache) Warm(ctx context.Context, securities []string) error {
	benchmark, err := c.store.BenchmarkHistory(ctx)
	if err != nil {
		return fmt.Errorf("warm benchmark history: %w", err)
	}
	c.benchmark = benchmark

	for _, security := range securities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		prices, err := c.store.PriceHistory(ctx, security)
		if err != nil {
			// Data-absent is never fatal: log and continue with an empty
			// series, which downstream excludes from C3 for lack of history.
			c.log.Warn().Err(err).Str("security", security).Msg("failed to warm price history")
			continue
		}
		c.prices[security] = prices

		industry, err := c.store.Industry(ctx, security)
		if err != nil {
			c.log.Warn().Err(err).Str("security", security).Msg("failed to warm industry")
			industry = ComprehensiveFallback
		}
		c.industry[security] = industry
	}

	c.log.Info().Int("securities", len(securities)).Int("benchmark_points", len(benchmark)).Msg("panel cache warmed")
	return nil
}

// PriceHistory returns the pre-warmed price series for a security. Call
// only after Warm has completed.
func (c *Cache) PriceHistory(security string) []PriceObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prices[security]
}

// Industry returns the pre-warmed industry tag for a security.
func (c *Cache) Industry(security string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tag, ok := c.industry[security]; ok {
		return tag
	}
	return ComprehensiveFallback
}

// BenchmarkHistory returns the pre-warmed benchmark series.
func (c *Cache) BenchmarkHistory() []BenchmarkObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.benchmark
}
