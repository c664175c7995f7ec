package core

import "sort"

// Result is a single search result: an object identifier and its distance
// from the query.
type Result[T Scalar] struct {
	// ID is the identifier of the matched object.
	ID uint32

	// Distance is the distance between the query and the matched object.
	Distance T
}

// SortResults orders results by ascending distance, breaking ties by
// ascending object ID. This is the canonical presentation order for k-NN
// result sets.
func SortResults[T Scalar](results []Result[T]) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
}
