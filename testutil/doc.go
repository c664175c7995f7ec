// Package testutil provides shared helpers for tests: a seeded,
// thread-safe random number generator, dataset generators and a
// brute-force reference search.
package testutil
