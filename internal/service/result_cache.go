package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "pay"

// ConfigFingerprint folds the versions of every configuration table that
// feeds a computation into one value. A result cached under a stale
// fingerprint can never be served after configuration changes.
type ConfigFingerprint uint64

// Fingerprint hashes the given version markers with FNV-1a.
func Fingerprint(versions ...int64) ConfigFingerprint {
	h := fnv.New64a()
	for _, v := range versions {
		fmt.Fprintf(h, "%d|", v)
	}
	return ConfigFingerprint(h.Sum64())
}

// ResultCache caches finished computation results keyed by tenant, input
// range and configuration fingerprint. Concurrent requests for the same key
// share one computation.
type ResultCache struct {
	cache *CacheService
	group singleflight.Group
	ttl   time.Duration
}

// NewResultCache builds a result cache with the given default TTL.
func NewResultCache(cache *CacheService, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultCache{cache: cache, ttl: ttl}
}

// SalaryKey builds the cache key for a teacher salary computation.
func SalaryKey(schoolID, teacherID string, from, to time.Time, fp ConfigFingerprint) string {
	return fmt.Sprintf("%s:%s:salary:%s:%s:%s:%x",
		cacheKeyPrefix, schoolID, teacherID, from.Format("2006-01-02"), to.Format("2006-01-02"), uint64(fp))
}

// BillingKey builds the cache key for a school billing computation.
func BillingKey(schoolID string, periodStart time.Time, fp ConfigFingerprint) string {
	return fmt.Sprintf("%s:%s:billing:%s:%x",
		cacheKeyPrefix, schoolID, periodStart.Format("2006-01-02"), uint64(fp))
}

// TenantPattern matches every cached result belonging to one school.
func TenantPattern(schoolID string) string {
	return fmt.Sprintf("%s:%s:*", cacheKeyPrefix, schoolID)
}

type flightResult struct {
	value   interface{}
	fromHit bool
}

// Do returns the cached value for key, or runs compute exactly once per key
// across concurrent callers and caches the outcome. newDest allocates the
// target for cache decoding; the second return reports a cache hit. A caller
// that merely shared another flight's fresh computation is not a hit.
func (c *ResultCache) Do(ctx context.Context, key string, newDest func() interface{}, compute func(ctx context.Context) (interface{}, error)) (interface{}, bool, error) {
	if c.cache.Enabled() {
		dest := newDest()
		if hit, err := c.cache.Get(ctx, key, dest); err == nil && hit {
			return dest, true, nil
		}
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have populated the cache while this
		// caller was waiting for the lock.
		if c.cache.Enabled() {
			dest := newDest()
			if hit, err := c.cache.Get(ctx, key, dest); err == nil && hit {
				return flightResult{value: dest, fromHit: true}, nil
			}
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if c.cache.Enabled() {
			_ = c.cache.Set(ctx, key, result, c.ttl)
		}
		return flightResult{value: result}, nil
	})
	if err != nil {
		return nil, false, err
	}
	flight := value.(flightResult)
	return flight.value, flight.fromHit, nil
}

// PurgeTenant drops every cached result for the school.
func (c *ResultCache) PurgeTenant(ctx context.Context, schoolID string) error {
	return c.cache.Invalidate(ctx, TenantPattern(schoolID))
}
