package nonmetric

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// The experiment harness reports every index search and every brute-force
// gold-standard pass through this interface.
type MetricsCollector interface {
	// RecordSearch is called after each index search.
	// k is the number of neighbors requested (0 for range queries),
	// distComps is the number of distance computations performed.
	RecordSearch(k int, duration time.Duration, distComps int)

	// RecordBruteForce is called after each brute-force gold-standard pass
	// over the dataset.
	RecordBruteForce(duration time.Duration, distComps int)

	// RecordBuild is called after each index construction.
	RecordBuild(duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, time.Duration, int) {}
func (NoopMetricsCollector) RecordBruteForce(time.Duration, int)  {}
func (NoopMetricsCollector) RecordBuild(time.Duration)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchTotalNanos atomic.Int64
	SearchDistComps  atomic.Int64
	BruteCount       atomic.Int64
	BruteTotalNanos  atomic.Int64
	BruteDistComps   atomic.Int64
	BuildCount       atomic.Int64
	BuildTotalNanos  atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, distComps int) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchDistComps.Add(int64(distComps))
}

// RecordBruteForce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBruteForce(duration time.Duration, distComps int) {
	b.BruteCount.Add(1)
	b.BruteTotalNanos.Add(duration.Nanoseconds())
	b.BruteDistComps.Add(int64(distComps))
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	SearchCount     int64
	SearchAvgNanos  int64
	SearchDistComps int64
	BruteCount      int64
	BruteDistComps  int64
	BuildCount      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		SearchCount:     b.SearchCount.Load(),
		SearchDistComps: b.SearchDistComps.Load(),
		BruteCount:      b.BruteCount.Load(),
		BruteDistComps:  b.BruteDistComps.Load(),
		BuildCount:      b.BuildCount.Load(),
	}
	if stats.SearchCount > 0 {
		stats.SearchAvgNanos = b.SearchTotalNanos.Load() / stats.SearchCount
	}
	return stats
}
