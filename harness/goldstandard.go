package harness

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/searcher"
	"github.com/annlab/nonmetric/space"
)

// GoldEntry is the exact result set for one query, computed by brute force,
// together with the cost of computing it. The costs are the baseline for
// the improvement metrics.
type GoldEntry[T core.Scalar] struct {
	Results   []core.Result[T]
	IDs       *roaring.Bitmap
	DistComps int
	Time      time.Duration
}

type gsKey struct {
	set     int
	queryID uint32
}

// GoldCache computes and caches gold-standard entries. It is bounded by an
// LRU policy so that huge workloads cannot pin every exact result set in
// memory; the tuner's working set normally fits without evictions.
//
// The cache is safe for concurrent use. Computation happens at most once
// per cached key regardless of how many pruning configurations are
// evaluated against the workload.
type GoldCache[T core.Scalar] struct {
	mu       sync.Mutex
	entries  *lru.Cache[gsKey, *GoldEntry[T]]
	computed int
}

// NewGoldCache creates a cache bounded to maxEntries gold standards.
func NewGoldCache[T core.Scalar](maxEntries int) (*GoldCache[T], error) {
	if maxEntries < 1 {
		maxEntries = 1
	}
	entries, err := lru.New[gsKey, *GoldEntry[T]](maxEntries)
	if err != nil {
		return nil, err
	}
	return &GoldCache[T]{entries: entries}, nil
}

// Get returns the gold standard for the given query of the given split,
// computing it by brute force on a cache miss.
func (c *GoldCache[T]) Get(w *Workload[T], set int, query *space.Object, collector nonmetric.MetricsCollector) *GoldEntry[T] {
	key := gsKey{set: set, queryID: query.ID()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries.Get(key); ok {
		return entry
	}

	entry := bruteForce(w, w.Sets[set].Data, query)
	collector.RecordBruteForce(entry.Time, entry.DistComps)
	c.computed++
	c.entries.Add(key, entry)
	return entry
}

// Computations returns how many brute-force passes the cache has run.
func (c *GoldCache[T]) Computations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computed
}

// bruteForce scans the whole training set through a counted query engine.
// The gold standard is always exact: eps does not apply here.
func bruteForce[T core.Scalar](w *Workload[T], data []*space.Object, query *space.Object) *GoldEntry[T] {
	start := time.Now()

	var (
		results   []core.Result[T]
		distComps int
	)
	if w.K > 0 {
		q := searcher.NewKNNQuery(w.Space, query, w.K, 0)
		for _, o := range data {
			q.CheckAndAdd(o, q.Distance(query, o))
		}
		results = q.Results()
		distComps = q.DistanceComputations()
	} else {
		q := searcher.NewRangeQuery(w.Space, query, w.Range)
		for _, o := range data {
			q.CheckAndAdd(o, q.Distance(query, o))
		}
		results = q.Results()
		distComps = q.DistanceComputations()
	}

	entry := &GoldEntry[T]{
		Results:   results,
		IDs:       roaring.New(),
		DistComps: distComps,
		Time:      time.Since(start),
	}
	for _, r := range results {
		entry.IDs.Add(r.ID)
	}
	return entry
}
