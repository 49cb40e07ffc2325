package cache

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// MultiLevelCache reads through an in-process L1 to an optional remote L2.
// L2 calls run behind a circuit breaker; when it is open or L2 fails the
// cache keeps serving from L1 alone.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	breaker *CircuitBreaker
	metrics *CacheMetrics
	logger  logrus.FieldLogger
}

type MultiLevelOption func(*MultiLevelCache)

// WithL1TTL caps how long entries backfilled from L2 live in L1.
func WithL1TTL(ttl time.Duration) MultiLevelOption {
	return func(c *MultiLevelCache) { c.l1TTL = ttl }
}

func WithCircuitBreaker(config *CircuitBreakerConfig) MultiLevelOption {
	return func(c *MultiLevelCache) { c.breaker = NewCircuitBreaker(config) }
}

func WithLogger(logger logrus.FieldLogger) MultiLevelOption {
	return func(c *MultiLevelCache) { c.logger = logger }
}

// NewMultiLevelCache builds the cache; l2 may be nil for an L1-only cache.
func NewMultiLevelCache(l2 Cache, opts ...MultiLevelOption) *MultiLevelCache {
	c := &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      l2,
		l1TTL:   5 * time.Minute,
		breaker: NewCircuitBreaker(nil),
		metrics: NewCacheMetrics(),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(key, value, c.l1Expiry(ttl)); err != nil {
		return err
	}
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}

	if err := c.breaker.Execute(func() error { return c.l2.Set(key, value, ttl) }); err != nil {
		c.remoteFailed("set", key, err)
		return err
	}
	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	if err := c.l1.Get(key, dest); err == nil {
		c.metrics.RecordHit(true)
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	var lookupErr error
	err := c.breaker.Execute(func() error {
		lookupErr = c.l2.Get(key, dest)
		if errors.Is(lookupErr, ErrCacheMiss) {
			return nil
		}
		return lookupErr
	})
	if err != nil {
		c.remoteFailed("get", key, err)
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}
	if lookupErr != nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := c.l1.Set(key, dest, c.l1TTL); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache: L1 backfill failed")
	}
	c.metrics.RecordHit(false)
	return nil
}

// Health reports L2 reachability; an L1-only cache is always healthy.
func (c *MultiLevelCache) Health() error {
	if c.l2 == nil {
		return nil
	}
	if c.breaker.GetState() == CircuitBreakerOpen {
		return ErrCacheDown
	}
	return c.l2.Health()
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"metrics": c.metrics.Snapshot(),
		"l1":      c.l1.Stats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
		stats["circuit_breaker"] = c.breaker.GetStats()
	}
	return stats
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}

func (c *MultiLevelCache) remoteFailed(op, key string, err error) {
	c.metrics.RecordL2Error()
	c.logger.WithFields(logrus.Fields{
		"op":      op,
		"key":     key,
		"breaker": c.breaker.GetState().String(),
	}).WithError(err).Debug("cache: L2 unavailable, serving from L1")
}
