package searcher

import (
	"math"

	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/space"
)

// KNNQuery is a single k-nearest-neighbor query execution: the query
// object, the bounded result queue and the distance-computation counter.
//
// A KNNQuery is not safe for concurrent use; parallelism is across queries,
// each with its own KNNQuery.
type KNNQuery[T core.Scalar] struct {
	space     space.Space[T]
	query     *space.Object
	queue     *KNNQueue[T]
	eps       float64
	distCalls int
}

// NewKNNQuery creates a k-NN query over s for the query object q.
// eps > 0 relaxes the pruning radius for eps-approximate search; eps = 0 is
// the unrelaxed query.
func NewKNNQuery[T core.Scalar](s space.Space[T], q *space.Object, k int, eps float64) *KNNQuery[T] {
	return &KNNQuery[T]{
		space: s,
		query: q,
		queue: NewKNNQueue[T](k),
		eps:   eps,
	}
}

// Object returns the query object.
func (q *KNNQuery[T]) Object() *space.Object { return q.query }

// Distance computes the distance from a to b via the underlying space and
// counts the call.
func (q *KNNQuery[T]) Distance(a, b *space.Object) T {
	q.distCalls++
	return q.space.Distance(a, b)
}

// CheckAndAdd offers a candidate at distance d to the result queue.
func (q *KNNQuery[T]) CheckAndAdd(o *space.Object, d T) {
	q.queue.TryAdd(o.ID(), d)
}

// Radius returns the current pruning radius: +Inf while fewer than k
// candidates were admitted, then the distance of the worst candidate,
// shrunk by 1/(1+eps) for eps-approximate search.
func (q *KNNQuery[T]) Radius() float64 {
	if !q.queue.Full() {
		return math.Inf(1)
	}
	r := core.Float64(q.queue.Radius())
	if q.eps > 0 {
		r /= 1 + q.eps
	}
	return r
}

// Results returns the admitted neighbors sorted by ascending distance,
// ties broken by ascending object ID.
func (q *KNNQuery[T]) Results() []core.Result[T] {
	return q.queue.Results()
}

// DistanceComputations returns the number of distance calls made so far.
func (q *KNNQuery[T]) DistanceComputations() int { return q.distCalls }
