// Package searcher provides the query engines: a bounded k-NN queue, a
// range-query accumulator, and query objects that own the per-query
// distance-computation counters.
package searcher

import (
	"github.com/annlab/nonmetric/core"
)

// KNNQueue is a bounded max-heap of (distance, id) pairs. The top is the
// worst admitted candidate. Value-based storage for cache locality and zero
// allocations in the steady state.
type KNNQueue[T core.Scalar] struct {
	k     int
	items []core.Result[T]
}

// NewKNNQueue creates a queue bounded to k results.
func NewKNNQueue[T core.Scalar](k int) *KNNQueue[T] {
	return &KNNQueue[T]{
		k:     k,
		items: make([]core.Result[T], 0, k),
	}
}

// Len returns the number of admitted candidates.
func (q *KNNQueue[T]) Len() int { return len(q.items) }

// Full reports whether the queue holds k candidates.
func (q *KNNQueue[T]) Full() bool { return len(q.items) >= q.k }

// Radius returns the distance of the worst admitted candidate, or
// core.MaxValue while the queue is not yet full.
func (q *KNNQueue[T]) Radius() T {
	if !q.Full() {
		return core.MaxValue[T]()
	}
	return q.items[0].Distance
}

// TryAdd admits the candidate if it is strictly better than the current
// radius, evicting the worst candidate when full. Equal-distance candidates
// do not evict and are not admitted once the queue is full. The strict test
// also keeps core.MaxValue sentinels (failed distance computations) out of
// a non-full queue.
func (q *KNNQueue[T]) TryAdd(id uint32, d T) bool {
	if !(d < q.Radius()) {
		return false
	}
	if !q.Full() {
		q.items = append(q.items, core.Result[T]{ID: id, Distance: d})
		q.siftUp(len(q.items) - 1)
		return true
	}
	q.items[0] = core.Result[T]{ID: id, Distance: d}
	q.siftDown(0)
	return true
}

// Results returns the admitted candidates sorted by ascending distance,
// ties broken by ascending object ID.
func (q *KNNQueue[T]) Results() []core.Result[T] {
	out := make([]core.Result[T], len(q.items))
	copy(out, q.items)
	core.SortResults(out)
	return out
}

// Reset clears the queue, keeping the backing storage.
func (q *KNNQueue[T]) Reset() {
	q.items = q.items[:0]
}

func (q *KNNQueue[T]) less(i, j int) bool {
	return q.items[i].Distance > q.items[j].Distance
}

func (q *KNNQueue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *KNNQueue[T]) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && q.less(right, left) {
			child = right
		}
		if !q.less(child, i) {
			break
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}
