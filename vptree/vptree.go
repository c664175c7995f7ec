package vptree

import (
	"math/rand"
	"time"
	"unsafe"

	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/space"
)

// Options contains configuration options for VP-tree construction.
type Options struct {
	// BucketSize is the maximum number of objects held in a leaf.
	BucketSize int

	// SelectPivotRandomly picks a random pivot per node. When false the
	// first object of the node's slice is used. In both modes the median
	// split halves the node and its quickselect draws from the build rng,
	// so the slice order, and with it the tree, depends on that rng.
	SelectPivotRandomly bool
}

// DefaultOptions contains the default configuration options for the VP-tree.
var DefaultOptions = Options{
	BucketSize:          50,
	SelectPivotRandomly: true,
}

// Query is the contract between the tree and a query engine. Both
// searcher.KNNQuery and searcher.RangeQuery satisfy it.
//
// Distance must count the call on the query's counter. Radius reports the
// current pruning radius promoted to float64 (the k-NN radius, or the fixed
// range radius).
type Query[T core.Scalar] interface {
	Object() *space.Object
	Distance(a, b *space.Object) T
	CheckAndAdd(o *space.Object, d T)
	Radius() float64
}

// Tree is a VP-tree: a recursive balanced binary partition of the dataset
// by median distance to a per-node pivot.
//
// A Tree is built once and is read-only afterwards; it may be shared freely
// across query goroutines.
type Tree[T core.Scalar] struct {
	space          space.Space[T]
	root           *node[T]
	size           int
	buildDistComps int
	opts           Options
}

// node is either a bucket leaf (pivot == nil) or an internal node whose
// left subtree holds objects with d(o, pivot) <= median and whose right
// subtree holds objects with d(o, pivot) >= median. Objects at exactly the
// median may appear in either subtree; the pruning oracle handles the tie.
type node[T core.Scalar] struct {
	pivot  *space.Object
	median T
	bucket []*space.Object
	left   *node[T]
	right  *node[T]
}

type distPair[T core.Scalar] struct {
	d   T
	obj *space.Object
}

// New builds a VP-tree over data. The slice is not retained; the dataset
// owns its objects for the life of the tree. rng drives pivot selection;
// nil falls back to a fixed seed.
//
// Expected build cost is O(n log n) distance computations.
func New[T core.Scalar](s space.Space[T], data []*space.Object, rng *rand.Rand, optFns ...func(*Options)) *Tree[T] {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BucketSize < 1 {
		opts.BucketSize = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	t := &Tree[T]{space: s, size: len(data), opts: opts}
	objs := make([]*space.Object, len(data))
	copy(objs, data)
	t.root = t.build(objs, rng)
	return t
}

func (t *Tree[T]) build(objs []*space.Object, rng *rand.Rand) *node[T] {
	if len(objs) <= t.opts.BucketSize {
		return &node[T]{bucket: objs}
	}

	pivotIdx := 0
	if t.opts.SelectPivotRandomly {
		pivotIdx = rng.Intn(len(objs))
	}
	objs[0], objs[pivotIdx] = objs[pivotIdx], objs[0]
	pivot := objs[0]

	rest := make([]distPair[T], len(objs)-1)
	for i, o := range objs[1:] {
		rest[i] = distPair[T]{d: t.space.Distance(o, pivot), obj: o}
	}
	t.buildDistComps += len(rest)

	mid := len(rest) / 2
	quickselect(rest, mid, rng)
	median := rest[mid].d

	return &node[T]{
		pivot:  pivot,
		median: median,
		left:   t.build(collect(rest[:mid]), rng),
		right:  t.build(collect(rest[mid:]), rng),
	}
}

func collect[T core.Scalar](pairs []distPair[T]) []*space.Object {
	objs := make([]*space.Object, len(pairs))
	for i, p := range pairs {
		objs[i] = p.obj
	}
	return objs
}

// quickselect partitions a in place so that a[k] holds the k-th smallest
// distance, everything before it is <= a[k].d and everything after >= a[k].d.
func quickselect[T core.Scalar](a []distPair[T], k int, rng *rand.Rand) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, lo+rng.Intn(hi-lo+1))
		switch {
		case p == k:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition[T core.Scalar](a []distPair[T], lo, hi, pivotIdx int) int {
	a[pivotIdx], a[hi] = a[hi], a[pivotIdx]
	pd := a[hi].d
	store := lo
	for i := lo; i < hi; i++ {
		if a[i].d < pd {
			a[i], a[store] = a[store], a[i]
			store++
		}
	}
	a[store], a[hi] = a[hi], a[store]
	return store
}

// Size returns the number of indexed objects.
func (t *Tree[T]) Size() int { return t.size }

// BuildDistanceComputations returns the number of distance calls spent
// during construction.
func (t *Tree[T]) BuildDistanceComputations() int { return t.buildDistComps }

// MemoryBytes estimates the heap footprint of the index structure: node
// structs plus bucket storage. Object payloads are owned by the dataset,
// not the index, and are not counted.
func (t *Tree[T]) MemoryBytes() int64 {
	return int64(unsafe.Sizeof(*t)) + nodeMemoryBytes(t.root)
}

func nodeMemoryBytes[T core.Scalar](n *node[T]) int64 {
	if n == nil {
		return 0
	}
	size := int64(unsafe.Sizeof(*n))
	size += int64(cap(n.bucket)) * int64(unsafe.Sizeof((*space.Object)(nil)))
	return size + nodeMemoryBytes(n.left) + nodeMemoryBytes(n.right)
}

// Search runs the query against the tree under the given pruning oracle.
// When both children of a node are flagged, the left child is visited
// first, giving deterministic traversal for identical inputs.
func (t *Tree[T]) Search(q Query[T], pruner PolynomialPruner) {
	t.visit(t.root, q, pruner, time.Time{})
}

// SearchWithDeadline is Search with a per-query wall-clock budget. The
// deadline is checked between node visits; a single node visit is not
// interruptible.
func (t *Tree[T]) SearchWithDeadline(q Query[T], pruner PolynomialPruner, deadline time.Time) {
	t.visit(t.root, q, pruner, deadline)
}

func (t *Tree[T]) visit(n *node[T], q Query[T], pruner PolynomialPruner, deadline time.Time) {
	if n == nil {
		return
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return
	}

	if n.pivot == nil {
		for _, o := range n.bucket {
			d := q.Distance(q.Object(), o)
			q.CheckAndAdd(o, d)
		}
		return
	}

	d := q.Distance(q.Object(), n.pivot)
	q.CheckAndAdd(n.pivot, d)

	dec := pruner.Classify(core.Float64(d), q.Radius(), core.Float64(n.median))
	if dec&VisitLeft != 0 {
		t.visit(n.left, q, pruner, deadline)
	}
	if dec&VisitRight != 0 {
		t.visit(n.right, q, pruner, deadline)
	}
}

// Walk calls fn for every internal node with the node's pivot, median and
// the objects of its left and right subtrees. Used by invariant checks and
// diagnostics; not part of the search path.
func (t *Tree[T]) Walk(fn func(pivot *space.Object, median T, left, right []*space.Object)) {
	walk(t.root, fn)
}

func walk[T core.Scalar](n *node[T], fn func(pivot *space.Object, median T, left, right []*space.Object)) {
	if n == nil || n.pivot == nil {
		return
	}
	fn(n.pivot, n.median, subtreeObjects(n.left), subtreeObjects(n.right))
	walk(n.left, fn)
	walk(n.right, fn)
}

func subtreeObjects[T core.Scalar](n *node[T]) []*space.Object {
	if n == nil {
		return nil
	}
	if n.pivot == nil {
		return n.bucket
	}
	objs := append([]*space.Object{n.pivot}, subtreeObjects(n.left)...)
	return append(objs, subtreeObjects(n.right)...)
}
