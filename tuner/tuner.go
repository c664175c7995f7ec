// Package tuner learns the polynomial pruner's coefficients.
//
// For each integer exponent pair it runs a multi-restart, two-dimensional
// bracketed grid search over (alphaLeft, alphaRight): a (2N+1)×(2N+1) grid
// of geometric steps around the current center is evaluated against the
// workload, the best point becomes the new center, the step factor shrinks,
// and the process recurses. Across all evaluated points the tuner retains
// the best improvement among those meeting the recall floor.
//
// The VP-tree is built once per test set: the alphas affect only search, so
// every grid point re-runs queries against the same trees.
package tuner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/harness"
	"github.com/annlab/nonmetric/vptree"
)

// Metric selects what the tuner maximizes once the recall floor is met.
type Metric int

const (
	// ImprDistComps maximizes brute-force / index distance computations.
	ImprDistComps Metric = iota
	// ImprEfficiency maximizes brute-force / index wall time.
	ImprEfficiency
)

// ParseMetric maps the CLI metric names to a Metric: "dist" or "time".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "dist":
		return ImprDistComps, nil
	case "time":
		return ImprEfficiency, nil
	default:
		return 0, fmt.Errorf("%w: invalid optimization metric %q (want dist or time)", nonmetric.ErrInvalidArgument, s)
	}
}

func (m Metric) String() string {
	switch m {
	case ImprDistComps:
		return "improvement in dist. comp"
	case ImprEfficiency:
		return "improvement in efficiency"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Options configures a tuning run. Zero values of MinExp, MaxIter,
// MaxRecDepth and StepN are replaced by the defaults below; a zero MaxExp
// and a FullFactor <= 1 are rejected.
type Options struct {
	// DesiredRecall is the recall floor in (0, 1]. Required.
	DesiredRecall float64

	// Metric is the improvement metric to maximize.
	Metric Metric

	// MinExp and MaxExp bound the exponent sweep; each exponent pair is
	// (e, e) for e in [MinExp, MaxExp].
	MinExp uint
	MaxExp uint

	// MaxIter bounds the outer bracketing iterations per restart.
	MaxIter uint

	// MaxRecDepth bounds the recursive grid refinements per iteration;
	// each refinement halves the geometric step (F <- sqrt(F)).
	MaxRecDepth uint

	// StepN sets the grid half-width: each refinement evaluates a
	// (2*StepN+1)^2 grid.
	StepN uint

	// AddRestartQty is the number of additional random restarts. The
	// first restart always starts at (1, 1); each additional restart
	// draws both alphas log-normally with geometric SD FullFactor.
	AddRestartQty uint

	// FullFactor is the initial geometric step of the grid search.
	FullFactor float64
}

// Defaults mirror the search constants of the original tuning tool.
const (
	DefaultMinExp        = 1
	DefaultMaxExp        = 1
	DefaultMaxIter       = 10
	DefaultMaxRecDepth   = 6
	DefaultStepN         = 2
	DefaultAddRestartQty = 4
	DefaultFullFactor    = 8.0
)

// improveTol terminates refinement when the relative gain of a grid round
// drops below it; with the sqrt step contraction the search converges well
// before MaxRecDepth on easy workloads.
const improveTol = 1e-3

// DefaultOptions returns an Options with all search knobs at their
// defaults. DesiredRecall still has to be set.
func DefaultOptions() Options {
	return Options{
		Metric:        ImprDistComps,
		MinExp:        DefaultMinExp,
		MaxExp:        DefaultMaxExp,
		MaxIter:       DefaultMaxIter,
		MaxRecDepth:   DefaultMaxRecDepth,
		StepN:         DefaultStepN,
		AddRestartQty: DefaultAddRestartQty,
		FullFactor:    DefaultFullFactor,
	}
}

// Result is a tuned parameter set with the metrics it achieved on the
// training workload.
type Result struct {
	AlphaLeft   float64
	AlphaRight  float64
	ExpLeft     uint
	ExpRight    uint
	Recall      float64
	Improvement float64
}

// Pruner converts the result into a search oracle.
func (r Result) Pruner() (vptree.PolynomialPruner, error) {
	return vptree.NewPolynomialPruner(r.AlphaLeft, r.ExpLeft, r.AlphaRight, r.ExpRight)
}

// ParamString formats the result in the key=value form of the output file.
func (r Result) ParamString() string {
	return fmt.Sprintf("alphaLeft=%v,alphaRight=%v,expLeft=%d,expRight=%d",
		r.AlphaLeft, r.AlphaRight, r.ExpLeft, r.ExpRight)
}

// ParseParamString parses the key=value form produced by ParamString.
func ParseParamString(s string) (Result, error) {
	var r Result
	for _, kv := range strings.Split(strings.TrimSpace(s), ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Result{}, fmt.Errorf("%w: bad parameter %q", nonmetric.ErrInvalidArgument, kv)
		}
		switch k {
		case "alphaLeft", "alphaRight":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Result{}, fmt.Errorf("%w: bad %s: %v", nonmetric.ErrInvalidArgument, k, err)
			}
			if k == "alphaLeft" {
				r.AlphaLeft = f
			} else {
				r.AlphaRight = f
			}
		case "expLeft", "expRight":
			u, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return Result{}, fmt.Errorf("%w: bad %s: %v", nonmetric.ErrInvalidArgument, k, err)
			}
			if k == "expLeft" {
				r.ExpLeft = uint(u)
			} else {
				r.ExpRight = uint(u)
			}
		default:
			return Result{}, fmt.Errorf("%w: unknown parameter %q", nonmetric.ErrInvalidArgument, k)
		}
	}
	return r, nil
}

// tracker retains the two interesting points across the whole run: the
// best qualified point (recall floor met, maximum improvement) and the
// best-recall point as the fallback reported with ErrRecallUnmet.
type tracker struct {
	desired      float64
	hasQualified bool
	qualified    Result
	fallback     Result
}

func (t *tracker) observe(r Result) {
	if r.Recall > t.fallback.Recall ||
		(r.Recall == t.fallback.Recall && r.Improvement > t.fallback.Improvement) {
		t.fallback = r
	}
	if r.Recall < t.desired {
		return
	}
	if !t.hasQualified || betterQualified(r, t.qualified) {
		t.hasQualified = true
		t.qualified = r
	}
}

// betterQualified orders qualified points: improvement first, then recall,
// then lower alphaLeft+alphaRight.
func betterQualified(a, b Result) bool {
	if a.Improvement != b.Improvement {
		return a.Improvement > b.Improvement
	}
	if a.Recall != b.Recall {
		return a.Recall > b.Recall
	}
	return a.AlphaLeft+a.AlphaRight < b.AlphaLeft+b.AlphaRight
}

// betterStep orders points during descent. Feasible points beat infeasible
// ones; among infeasible points the search chases recall to reach the
// floor.
func betterStep(a, b Result, desired float64) bool {
	aOK, bOK := a.Recall >= desired, b.Recall >= desired
	if aOK != bOK {
		return aOK
	}
	if aOK {
		return betterQualified(a, b)
	}
	if a.Recall != b.Recall {
		return a.Recall > b.Recall
	}
	return a.Improvement > b.Improvement
}

// Tune runs the full auto-tuning procedure against a prepared harness and
// returns the best parameters. When no evaluated point meets the recall
// floor, the best-recall point is returned together with ErrRecallUnmet.
//
// Cancellation is honored between grid points and between queries; a
// mid-point evaluation is not interruptible.
func Tune[T core.Scalar](ctx context.Context, h *harness.Harness[T], logger *nonmetric.Logger, rng *rand.Rand, opts Options) (Result, error) {
	if err := validate(&opts); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = nonmetric.NoopLogger()
	}

	if err := h.PrecomputeGold(ctx); err != nil {
		return Result{}, err
	}

	track := &tracker{desired: opts.DesiredRecall, fallback: Result{Recall: -1}}

	for e := opts.MinExp; e <= opts.MaxExp; e++ {
		expLogger := logger.WithExp(e, e)
		for restart := uint(0); restart <= opts.AddRestartQty; restart++ {
			alphaLeft, alphaRight := 1.0, 1.0
			if restart > 0 {
				sigma := math.Log(opts.FullFactor)
				alphaLeft = math.Exp(rng.NormFloat64() * sigma)
				alphaRight = math.Exp(rng.NormFloat64() * sigma)
				expLogger.Info("random starting point", "alphaLeft", alphaLeft, "alphaRight", alphaRight)
			}

			if err := optimize(ctx, h, expLogger, e, alphaLeft, alphaRight, opts, track); err != nil {
				return Result{}, err
			}
		}
	}

	if !track.hasQualified {
		return track.fallback, &nonmetric.ErrRecallUnmet{
			Desired: opts.DesiredRecall,
			Best:    track.fallback.Recall,
		}
	}
	logger.Info("tuning finished",
		"params", track.qualified.ParamString(),
		"recall", track.qualified.Recall,
		"improvement", track.qualified.Improvement,
		"metric", opts.Metric.String(),
	)
	return track.qualified, nil
}

func validate(opts *Options) error {
	if opts.DesiredRecall <= 0 || opts.DesiredRecall > 1 {
		return fmt.Errorf("%w: desiredRecall must be in (0, 1], got %v", nonmetric.ErrInvalidArgument, opts.DesiredRecall)
	}
	if opts.MaxExp == 0 {
		return fmt.Errorf("%w: maxExp can't be zero", nonmetric.ErrInvalidArgument)
	}
	if opts.MinExp == 0 {
		opts.MinExp = DefaultMinExp
	}
	if opts.MaxExp < opts.MinExp {
		return fmt.Errorf("%w: maxExp can't be < minExp", nonmetric.ErrInvalidArgument)
	}
	if opts.MaxIter == 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.MaxRecDepth == 0 {
		opts.MaxRecDepth = DefaultMaxRecDepth
	}
	if opts.StepN == 0 {
		opts.StepN = DefaultStepN
	}
	if opts.FullFactor <= 1 {
		return fmt.Errorf("%w: fullFactor must be > 1, got %v", nonmetric.ErrInvalidArgument, opts.FullFactor)
	}
	return nil
}

// optimize is one restart: repeated bracketed grid refinement around a
// moving center.
func optimize[T core.Scalar](
	ctx context.Context,
	h *harness.Harness[T],
	logger *nonmetric.Logger,
	exp uint,
	alphaLeft, alphaRight float64,
	opts Options,
	track *tracker,
) error {
	center, err := evalPoint(ctx, h, exp, alphaLeft, alphaRight, opts.Metric)
	if err != nil {
		return err
	}
	track.observe(center)

	for iter := uint(0); iter < opts.MaxIter; iter++ {
		factor := opts.FullFactor
		movedThisIter := false

		for depth := uint(0); depth < opts.MaxRecDepth; depth++ {
			best := center
			n := int(opts.StepN)

			for i := -n; i <= n; i++ {
				for j := -n; j <= n; j++ {
					if i == 0 && j == 0 {
						continue
					}
					if err := ctx.Err(); err != nil {
						return err
					}

					cand, err := evalPoint(ctx, h,
						exp,
						center.AlphaLeft*math.Pow(factor, float64(i)/float64(n)),
						center.AlphaRight*math.Pow(factor, float64(j)/float64(n)),
						opts.Metric,
					)
					if err != nil {
						return err
					}
					track.observe(cand)
					if betterStep(cand, best, opts.DesiredRecall) {
						best = cand
					}
				}
			}

			if !betterStep(best, center, opts.DesiredRecall) {
				break
			}
			moved := relativeGain(best, center) >= improveTol
			center = best
			movedThisIter = movedThisIter || moved
			logger.Debug("grid refinement",
				"depth", depth,
				"alphaLeft", center.AlphaLeft,
				"alphaRight", center.AlphaRight,
				"recall", center.Recall,
				"improvement", center.Improvement,
			)
			if !moved {
				break
			}
			// Geometric contraction: halve the step exponent each level.
			factor = math.Sqrt(factor)
		}

		if !movedThisIter {
			break
		}
	}
	return nil
}

// relativeGain measures progress between refinement rounds on whichever
// objective the descent is currently chasing.
func relativeGain(next, prev Result) float64 {
	if prev.Recall <= 0 || prev.Improvement <= 0 {
		return 1
	}
	gainRecall := (next.Recall - prev.Recall) / prev.Recall
	gainImpr := (next.Improvement - prev.Improvement) / prev.Improvement
	return math.Max(gainRecall, gainImpr)
}

func evalPoint[T core.Scalar](ctx context.Context, h *harness.Harness[T], exp uint, alphaLeft, alphaRight float64, metric Metric) (Result, error) {
	pruner, err := vptree.NewPolynomialPruner(alphaLeft, exp, alphaRight, exp)
	if err != nil {
		return Result{}, err
	}

	summary, err := h.Evaluate(ctx, pruner)
	if err != nil {
		return Result{}, err
	}

	improvement := summary.ImprDistComps.Mean
	if metric == ImprEfficiency {
		improvement = summary.ImprEfficiency.Mean
	}
	return Result{
		AlphaLeft:   alphaLeft,
		AlphaRight:  alphaRight,
		ExpLeft:     exp,
		ExpRight:    exp,
		Recall:      summary.Recall.Mean,
		Improvement: improvement,
	}, nil
}
