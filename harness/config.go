// Package harness runs search workloads against indices and measures them:
// it splits datasets into train and query sets, caches exact gold-standard
// neighbors, evaluates pruning configurations in parallel across queries,
// and aggregates per-query metrics into summaries with confidence
// intervals.
package harness

import (
	"fmt"
	"math/rand"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/space"
)

// TestSet is one train/query split. Data is indexed; Queries are searched
// against it.
type TestSet struct {
	Data    []*space.Object
	Queries []*space.Object
}

// Workload is a fully loaded experiment input: a space, one or more
// train/query splits and the query type (exactly one of K or Range).
type Workload[T core.Scalar] struct {
	Space space.Space[T]
	Sets  []TestSet

	// K > 0 selects k-NN queries; Range > 0 selects range queries.
	K     int
	Range T

	// Eps relaxes k-NN pruning for eps-approximate search.
	Eps float64
}

// LoadOptions configures LoadWorkload.
type LoadOptions struct {
	DataFile  string
	QueryFile string // empty enables bootstrap splitting

	// TestSetQty is the number of bootstrap splits when QueryFile is empty.
	TestSetQty int

	// MaxNumData / MaxNumQuery truncate the respective inputs. MaxNumQuery
	// is the per-split query count in bootstrap mode, where it is required.
	MaxNumData  int
	MaxNumQuery int

	K     int
	Range float64
	Eps   float64
}

// LoadWorkload reads the dataset (and query file, if any) through the
// space and builds the train/query splits. In bootstrap mode each split
// samples MaxNumQuery queries without replacement; the remaining objects
// form that split's training data.
func LoadWorkload[T core.Scalar](s space.Space[T], o LoadOptions, rng *rand.Rand) (*Workload[T], error) {
	if (o.K > 0) == (o.Range > 0) {
		return nil, fmt.Errorf("%w: specify exactly one of k-NN or range search", nonmetric.ErrInvalidArgument)
	}
	if o.DataFile == "" {
		return nil, fmt.Errorf("%w: data file is required", nonmetric.ErrInvalidArgument)
	}

	data, err := space.ReadDataset(s, o.DataFile, o.MaxNumData)
	if err != nil {
		return nil, err
	}

	w := &Workload[T]{
		Space: s,
		K:     o.K,
		Range: T(o.Range),
		Eps:   o.Eps,
	}

	if o.QueryFile != "" {
		queries, err := space.ReadDataset(s, o.QueryFile, o.MaxNumQuery)
		if err != nil {
			return nil, err
		}
		w.Sets = []TestSet{{Data: data, Queries: queries}}
		return w, nil
	}

	if o.TestSetQty < 1 {
		return nil, fmt.Errorf("%w: set a positive testSetQty or specify a query file", nonmetric.ErrInvalidArgument)
	}
	if o.MaxNumQuery < 1 {
		return nil, fmt.Errorf("%w: bootstrapping requires a positive maxNumQuery", nonmetric.ErrInvalidArgument)
	}
	if o.MaxNumQuery >= len(data) {
		return nil, fmt.Errorf("%w: maxNumQuery (%d) must be smaller than the dataset (%d objects)",
			nonmetric.ErrInvalidArgument, o.MaxNumQuery, len(data))
	}

	w.Sets = make([]TestSet, o.TestSetQty)
	for i := range w.Sets {
		w.Sets[i] = bootstrapSplit(data, o.MaxNumQuery, rng)
	}
	return w, nil
}

// bootstrapSplit samples qty queries without replacement; the rest of the
// dataset becomes training data.
func bootstrapSplit(data []*space.Object, qty int, rng *rand.Rand) TestSet {
	perm := rng.Perm(len(data))
	set := TestSet{
		Queries: make([]*space.Object, 0, qty),
		Data:    make([]*space.Object, 0, len(data)-qty),
	}
	for i, idx := range perm {
		if i < qty {
			set.Queries = append(set.Queries, data[idx])
		} else {
			set.Data = append(set.Data, data[idx])
		}
	}
	return set
}

// NumQueries returns the total query count across all splits.
func (w *Workload[T]) NumQueries() int {
	n := 0
	for _, set := range w.Sets {
		n += len(set.Queries)
	}
	return n
}
