package harness

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/searcher"
	"github.com/annlab/nonmetric/space"
	"github.com/annlab/nonmetric/vptree"
)

// QueryMetrics is the measurement of a single query under one pruning
// configuration.
type QueryMetrics struct {
	Recall            float64
	PrecisionOfApprox float64
	Time              time.Duration
	DistComps         int

	// ImprEfficiency and ImprDistComps are the per-query ratios
	// brute-force cost / index cost, in wall time and in distance
	// computations respectively.
	ImprEfficiency float64
	ImprDistComps  float64
}

// Harness owns the built indices and the gold-standard cache for one
// workload. Trees are built once; only search parameters vary between
// Evaluate calls, which is what makes the tuner's grid search affordable.
type Harness[T core.Scalar] struct {
	workload   *Workload[T]
	trees      []*vptree.Tree[T]
	buildTimes []time.Duration
	gold       *GoldCache[T]
	logger     *nonmetric.Logger
	collector  nonmetric.MetricsCollector
}

// Options configures a Harness.
type Options struct {
	// MaxCacheGSQty bounds the gold-standard cache.
	MaxCacheGSQty int

	// Tree configures VP-tree construction.
	Tree []func(*vptree.Options)

	Logger    *nonmetric.Logger
	Collector nonmetric.MetricsCollector
}

// DefaultMaxCacheGSQty is the default bound of the gold-standard cache.
const DefaultMaxCacheGSQty = 1000

// New builds one VP-tree per test set and prepares the gold-standard
// cache. rng drives pivot selection.
func New[T core.Scalar](w *Workload[T], rng *rand.Rand, optFns ...func(*Options)) (*Harness[T], error) {
	opts := Options{
		MaxCacheGSQty: DefaultMaxCacheGSQty,
		Logger:        nonmetric.NoopLogger(),
		Collector:     nonmetric.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	gold, err := NewGoldCache[T](opts.MaxCacheGSQty)
	if err != nil {
		return nil, err
	}

	h := &Harness[T]{
		workload:   w,
		trees:      make([]*vptree.Tree[T], len(w.Sets)),
		buildTimes: make([]time.Duration, len(w.Sets)),
		gold:       gold,
		logger:     opts.Logger,
		collector:  opts.Collector,
	}
	for i, set := range w.Sets {
		start := time.Now()
		h.trees[i] = vptree.New(w.Space, set.Data, rng, opts.Tree...)
		h.buildTimes[i] = time.Since(start)
		h.collector.RecordBuild(h.buildTimes[i])
		h.logger.Info("built vp-tree",
			"set", i,
			"objects", len(set.Data),
			"buildDistComps", h.trees[i].BuildDistanceComputations(),
			"memoryBytes", h.trees[i].MemoryBytes(),
		)
	}
	return h, nil
}

// Workload returns the harness's workload.
func (h *Harness[T]) Workload() *Workload[T] { return h.workload }

// GoldComputations returns how many brute-force gold-standard passes have
// run so far.
func (h *Harness[T]) GoldComputations() int { return h.gold.Computations() }

// PrecomputeGold computes the gold standard for every query up front, so
// that later parallel evaluations only read the cache. Cancellation is
// checked between queries.
func (h *Harness[T]) PrecomputeGold(ctx context.Context) error {
	for set := range h.workload.Sets {
		for _, q := range h.workload.Sets[set].Queries {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.gold.Get(h.workload, set, q, h.collector)
		}
	}
	return nil
}

// Evaluate runs every query of the workload against the prebuilt trees
// under the given pruning oracle and aggregates the per-query metrics.
// Queries run in parallel; each query owns its counters.
func (h *Harness[T]) Evaluate(ctx context.Context, pruner vptree.PolynomialPruner) (Summary, error) {
	per := make([][]QueryMetrics, len(h.workload.Sets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for set := range h.workload.Sets {
		per[set] = make([]QueryMetrics, len(h.workload.Sets[set].Queries))
		for qi, query := range h.workload.Sets[set].Queries {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				per[set][qi] = h.runQuery(set, query, pruner)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var flat []QueryMetrics
	for _, setMetrics := range per {
		flat = append(flat, setMetrics...)
	}
	summary := Summarize(flat)
	summary.IndexTime, summary.IndexMemory = h.indexStats()
	return summary, nil
}

// indexStats aggregates the per-test-set build times and index footprints.
func (h *Harness[T]) indexStats() (indexTime, indexMemory Stat) {
	secs := make([]float64, len(h.trees))
	bytes := make([]float64, len(h.trees))
	for i, tree := range h.trees {
		secs[i] = h.buildTimes[i].Seconds()
		bytes[i] = float64(tree.MemoryBytes())
	}
	return NewStat(secs), NewStat(bytes)
}

func (h *Harness[T]) runQuery(set int, query *space.Object, pruner vptree.PolynomialPruner) QueryMetrics {
	gold := h.gold.Get(h.workload, set, query, h.collector)

	var (
		results   []core.Result[T]
		distComps int
	)
	start := time.Now()
	if h.workload.K > 0 {
		q := searcher.NewKNNQuery(h.workload.Space, query, h.workload.K, h.workload.Eps)
		h.trees[set].Search(q, pruner)
		results = q.Results()
		distComps = q.DistanceComputations()
	} else {
		q := searcher.NewRangeQuery(h.workload.Space, query, h.workload.Range)
		h.trees[set].Search(q, pruner)
		results = q.Results()
		distComps = q.DistanceComputations()
	}
	elapsed := time.Since(start)
	h.collector.RecordSearch(h.workload.K, elapsed, distComps)

	m := QueryMetrics{
		Recall:            recall(results, gold),
		PrecisionOfApprox: precisionOfApprox(results, gold.Results),
		Time:              elapsed,
		DistComps:         distComps,
	}
	if elapsed > 0 {
		m.ImprEfficiency = float64(gold.Time) / float64(elapsed)
	}
	if distComps > 0 {
		m.ImprDistComps = float64(gold.DistComps) / float64(distComps)
	}
	return m
}

// recall is |found ∩ gold| / |gold|. A found neighbor that is not a gold
// member but is tied at the gold boundary distance displaced an
// equally-distant gold member and counts as a hit: which of the tied
// objects survives the strict k-NN admission depends on traversal order,
// not on result quality. An empty gold standard counts as fully recalled.
func recall[T core.Scalar](found []core.Result[T], gold *GoldEntry[T]) float64 {
	if gold.IDs.IsEmpty() {
		return 1
	}
	boundary := core.Float64(gold.Results[len(gold.Results)-1].Distance)

	hits := 0
	for _, r := range found {
		if gold.IDs.Contains(r.ID) || core.Float64(r.Distance) <= boundary {
			hits++
		}
	}
	total := int(gold.IDs.GetCardinality())
	if hits > total {
		hits = total
	}
	return float64(hits) / float64(total)
}

// precisionOfApprox measures how close the returned distances are to the
// exact ones, position by position: mean over i of gold[i].d / found[i].d.
// It is 1 for an exact result and decreases as approximate neighbors get
// farther than the true ones.
func precisionOfApprox[T core.Scalar](found, gold []core.Result[T]) float64 {
	n := min(len(found), len(gold))
	if n == 0 {
		return 1
	}
	var sum float64
	for i := 0; i < n; i++ {
		fd, gd := core.Float64(found[i].Distance), core.Float64(gold[i].Distance)
		if fd <= 0 || gd <= 0 {
			sum++
			continue
		}
		sum += gd / fd
	}
	return sum / float64(n)
}
