package cache

import (
	"sync/atomic"
	"time"
)

// CacheMetrics counts lookups against the multi-level cache. L2Errors counts
// remote failures, including calls rejected by the circuit breaker.
type CacheMetrics struct {
	hits      atomic.Int64
	l1Hits    atomic.Int64
	misses    atomic.Int64
	l2Errors  atomic.Int64
	sets      atomic.Int64
	startTime time.Time
}

type CacheMetricsSnapshot struct {
	Hits      int64   `json:"hits"`
	L1Hits    int64   `json:"l1_hits"`
	Misses    int64   `json:"misses"`
	L2Errors  int64   `json:"l2_errors"`
	Sets      int64   `json:"sets"`
	HitRate   float64 `json:"hit_rate"`
	UptimeSec int64   `json:"uptime_seconds"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{startTime: time.Now()}
}

func (m *CacheMetrics) RecordHit(fromL1 bool) {
	m.hits.Add(1)
	if fromL1 {
		m.l1Hits.Add(1)
	}
}

func (m *CacheMetrics) RecordMiss() { m.misses.Add(1) }
func (m *CacheMetrics) RecordL2Error() { m.l2Errors.Add(1) }
func (m *CacheMetrics) RecordSet() { m.sets.Add(1) }

func (m *CacheMetrics) HitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100.0
}

func (m *CacheMetrics) Snapshot() CacheMetricsSnapshot {
	return CacheMetricsSnapshot{
		Hits:      m.hits.Load(),
		L1Hits:    m.l1Hits.Load(),
		Misses:    m.misses.Load(),
		L2Errors:  m.l2Errors.Load(),
		Sets:      m.sets.Load(),
		HitRate:   m.HitRate(),
		UptimeSec: int64(time.Since(m.startTime).Seconds()),
	}
}
