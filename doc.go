// Package nonmetric provides approximate nearest-neighbor search for generic
// vector and non-metric spaces.
//
// The distance function is treated as an opaque oracle: it does not have to
// be symmetric, and it does not have to satisfy the triangle inequality.
// Search is built around a vantage-point tree whose pruning rule is a
// parametric polynomial decision function rather than the classic
// (metric-only) triangle-inequality bound:
//
//	prune right iff MaxDist < alphaLeft  * (M - d(q, pivot))^expLeft
//	prune left  iff MaxDist < alphaRight * (d(q, pivot) - M)^expRight
//
// With alpha = 1 and exp = 1 this reduces to the stretched triangle
// inequality; larger alphas prune more aggressively and trade recall for
// speed. The coefficients are learned offline by the tuner, which runs a
// multi-restart bracketed grid search over (alphaLeft, alphaRight) against a
// held-out workload and a recall floor.
//
// # Packages
//
//   - space: objects, distance oracles (Lp, cosine, bit-Hamming) and
//     dataset text I/O
//   - vptree: the VP-tree index and the polynomial pruning oracle
//   - searcher: k-NN and range query engines with distance-computation
//     counters
//   - harness: experiment configuration, gold-standard caching, recall and
//     improvement metrics
//   - tuner: the (alphaLeft, alphaRight) auto-tuner
//
// # Quick start
//
//	sp, _ := space.Create[float32]("l2")
//	data, _ := space.ReadDataset(sp, "data.txt", 0)
//
//	rng := rand.New(rand.NewSource(42))
//	tree := vptree.New(sp, data, rng)
//
//	pruner, _ := vptree.NewPolynomialPruner(2.0, 1, 2.0, 1)
//	q := searcher.NewKNNQuery(sp, query, 10, 0)
//	tree.Search(q, pruner)
//	for _, r := range q.Results() {
//	    fmt.Println(r.ID, r.Distance)
//	}
//
// Indices are built once and queried read-only; a single query is
// single-threaded, parallelism is across queries.
package nonmetric
