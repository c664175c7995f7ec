package searcher

import (
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/space"
)

// RangeQuery is a single range-query execution: all objects within a fixed
// radius of the query are accumulated, in discovery order.
type RangeQuery[T core.Scalar] struct {
	space     space.Space[T]
	query     *space.Object
	radius    T
	results   []core.Result[T]
	distCalls int
}

// NewRangeQuery creates a range query over s with the given fixed radius.
func NewRangeQuery[T core.Scalar](s space.Space[T], q *space.Object, radius T) *RangeQuery[T] {
	return &RangeQuery[T]{
		space:  s,
		query:  q,
		radius: radius,
	}
}

// Object returns the query object.
func (q *RangeQuery[T]) Object() *space.Object { return q.query }

// Distance computes the distance from a to b via the underlying space and
// counts the call.
func (q *RangeQuery[T]) Distance(a, b *space.Object) T {
	q.distCalls++
	return q.space.Distance(a, b)
}

// CheckAndAdd accumulates the candidate when d <= radius. There is no
// eviction: the radius is fixed for the life of the query.
func (q *RangeQuery[T]) CheckAndAdd(o *space.Object, d T) {
	if d <= q.radius {
		q.results = append(q.results, core.Result[T]{ID: o.ID(), Distance: d})
	}
}

// Radius returns the fixed query radius.
func (q *RangeQuery[T]) Radius() float64 {
	return core.Float64(q.radius)
}

// Results returns the accumulated matches sorted by ascending distance,
// ties broken by ascending object ID.
func (q *RangeQuery[T]) Results() []core.Result[T] {
	out := make([]core.Result[T], len(q.results))
	copy(out, q.results)
	core.SortResults(out)
	return out
}

// DistanceComputations returns the number of distance calls made so far.
func (q *RangeQuery[T]) DistanceComputations() int { return q.distCalls }
