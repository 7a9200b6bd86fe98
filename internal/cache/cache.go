// Package cache provides a bounded in-memory cache for pair similarity results.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

// DefaultSize bounds the cache when no explicit size is configured.
const DefaultSize = 4096

// ResultCache stores computed similarity results keyed by profile pair and
// scoring parameters. Results below the threshold are cached too, so repeated
// requests do not rescore pairs that are known not to qualify.
type ResultCache struct {
	lru *lru.Cache[string, models.SimilarityResult]
}

// New creates a result cache holding at most size entries. The least recently
// used entry is evicted once the bound is reached.
func New(size int) (*ResultCache, error) {
	inner, err := lru.New[string, models.SimilarityResult](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}

	return &ResultCache{lru: inner}, nil
}

// Key builds the cache key for a profile pair under the given parameters.
// The pair is ordered so both orientations map to the same entry, and the
// weights and threshold are rounded to four decimals so float noise does
// not fragment the cache.
func Key(a, b string, p models.Params) string {
	return fmt.Sprintf("%s|%.4f|%.4f|%.4f|%.4f",
		models.PairKey(a, b),
		p.Weights.Keyword, p.Weights.Description, p.Weights.Headline,
		p.Threshold)
}

// Get returns the cached result for the pair, if present.
func (c *ResultCache) Get(a, b string, p models.Params) (models.SimilarityResult, bool) {
	res, ok := c.lru.Get(Key(a, b, p))
	if ok {
		metrics.CacheHitsTotal.Inc()
	} else {
		metrics.CacheMissesTotal.Inc()
	}

	return res, ok
}

// Put stores a computed result under its pair's key.
func (c *ResultCache) Put(res models.SimilarityResult, p models.Params) {
	c.lru.Add(Key(res.ProfileA, res.ProfileB, p), res)
}

// Purge drops all cached results. The registry calls this whenever a profile
// is added, replaced or removed, since any cached pair may now be stale.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Len reports the number of cached results.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}
