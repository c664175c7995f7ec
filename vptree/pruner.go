// Package vptree implements a vantage-point tree over an arbitrary distance
// oracle, searched under a parametric polynomial pruning rule.
//
// The classic metric-space VP-tree prunes a subtree when
//
//	MaxDist <= |M - d(q, pivot)|
//
// where M is the median distance from the node's objects to its pivot and
// MaxDist is the current query radius. In non-metric spaces that bound does
// not hold, so pruning is governed by a learned polynomial instead:
//
//	prune right iff MaxDist < alphaLeft  * (M - d)^expLeft
//	prune left  iff MaxDist < alphaRight * (d - M)^expRight
//
// alpha = exp = 1 recovers the stretched triangle inequality. The
// coefficients are learned by the tuner package.
package vptree

import (
	"fmt"
	"math"

	"github.com/annlab/nonmetric"
)

// Decision tells the search which children of a node may contain results.
type Decision uint8

const (
	// VisitLeft flags the left subtree (objects within the median ball).
	VisitLeft Decision = 1 << iota
	// VisitRight flags the right subtree.
	VisitRight

	// VisitBoth flags both subtrees.
	VisitBoth = VisitLeft | VisitRight
)

// PolynomialPruner is a state-free classifier deciding which subtrees of a
// VP-tree node to visit. Classify depends only on its three inputs and the
// four parameters; it cannot fail.
//
// The zero value is invalid; use NewPolynomialPruner or DefaultPruner.
type PolynomialPruner struct {
	AlphaLeft  float64
	ExpLeft    uint
	AlphaRight float64
	ExpRight   uint
}

// DefaultPruner returns the (1, 1, 1, 1) pruner, i.e. the stretched
// triangle inequality with no stretch.
func DefaultPruner() PolynomialPruner {
	return PolynomialPruner{AlphaLeft: 1, ExpLeft: 1, AlphaRight: 1, ExpRight: 1}
}

// NewPolynomialPruner validates and creates a pruner. Negative or NaN
// alphas and zero exponents are rejected here so that Classify never has to
// fail during search.
func NewPolynomialPruner(alphaLeft float64, expLeft uint, alphaRight float64, expRight uint) (PolynomialPruner, error) {
	if alphaLeft < 0 || math.IsNaN(alphaLeft) {
		return PolynomialPruner{}, fmt.Errorf("%w: alphaLeft must be non-negative, got %v", nonmetric.ErrInvalidArgument, alphaLeft)
	}
	if alphaRight < 0 || math.IsNaN(alphaRight) {
		return PolynomialPruner{}, fmt.Errorf("%w: alphaRight must be non-negative, got %v", nonmetric.ErrInvalidArgument, alphaRight)
	}
	if expLeft == 0 {
		return PolynomialPruner{}, fmt.Errorf("%w: expLeft must be positive", nonmetric.ErrInvalidArgument)
	}
	if expRight == 0 {
		return PolynomialPruner{}, fmt.Errorf("%w: expRight must be positive", nonmetric.ErrInvalidArgument)
	}
	return PolynomialPruner{
		AlphaLeft:  alphaLeft,
		ExpLeft:    expLeft,
		AlphaRight: alphaRight,
		ExpRight:   expRight,
	}, nil
}

// Classify decides which subtrees to visit given d = d(q, pivot), the
// current query radius maxDist, and the node median.
//
// Both pruning conditions are checked with a strict inequality: when
// d == median the difference is zero on both sides, neither condition can
// hold, and the decision is VisitBoth. This matters for discrete or
// quantized distances where median ties are common — the median itself may
// live in either subtree.
func (p PolynomialPruner) Classify(d, maxDist, median float64) Decision {
	var dec Decision
	if d <= median {
		if maxDist < p.AlphaLeft*EfficientPow(median-d, p.ExpLeft) {
			dec |= VisitLeft
		}
	}
	if d >= median {
		if maxDist < p.AlphaRight*EfficientPow(d-median, p.ExpRight) {
			dec |= VisitRight
		}
	}
	if dec == 0 {
		return VisitBoth
	}
	return dec
}

// String formats the pruner parameters in the key=value form used by the
// tuner output file.
func (p PolynomialPruner) String() string {
	return fmt.Sprintf("alphaLeft=%v,alphaRight=%v,expLeft=%d,expRight=%d",
		p.AlphaLeft, p.AlphaRight, p.ExpLeft, p.ExpRight)
}

// EfficientPow raises x to a non-negative integer power: ^0 = 1, ^1 is the
// identity, ^2 a single multiplication, and the general case uses
// exponentiation by squaring.
func EfficientPow(x float64, e uint) float64 {
	switch e {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return x * x
	}
	result := 1.0
	for e > 0 {
		if e&1 == 1 {
			result *= x
		}
		x *= x
		e >>= 1
	}
	return result
}
