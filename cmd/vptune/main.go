// Command vptune tunes the polynomial pruning oracle of a VP-tree for a
// given dataset, query workload and recall floor, and writes the learned
// parameters to a file as a single key=value line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
	"github.com/annlab/nonmetric/harness"
	"github.com/annlab/nonmetric/space"
	"github.com/annlab/nonmetric/tuner"
	"github.com/annlab/nonmetric/vptree"
)

// Methods whose search is driven by the tunable VP-tree oracle. Only the
// plain vptree is wired up here; the projected and permutation variants
// need their derived spaces.
var allowedMethods = []string{"vptree", "proj_vptree", "permutation_vptree", "perm_bin_vptree"}

type cliOptions struct {
	spaceType     string
	distType      string
	dataFile      string
	queryFile     string
	maxNumData    int
	maxNumQuery   int
	testSetQty    int
	knn           string
	rangeArg      string
	eps           float64
	method        string
	outFile       string
	logFile       string
	desiredRecall float64
	metric        string
	minExp        uint
	maxExp        uint
	maxIter       uint
	maxRecDepth   uint
	stepN         uint
	addRestartQty uint
	fullFactor    float64
	maxCacheGSQty int
	seed          int64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "vptune",
		Short:         "Tune VP-tree pruning parameters against a recall floor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&opts.spaceType, "spaceType", "", "space type, e.g. l1, l2, lp:p=0.5, bit_hamming")
	fl.StringVar(&opts.distType, "distType", "float", "distance value type: int, float, double")
	fl.StringVar(&opts.dataFile, "dataFile", "", "input data file")
	fl.StringVar(&opts.queryFile, "queryFile", "", "query file")
	fl.IntVar(&opts.maxNumData, "maxNumData", 0, "if non-zero, only the first maxNumData elements are used")
	fl.IntVar(&opts.maxNumQuery, "maxNumQuery", 0, "if non-zero, use maxNumQuery query elements (required in the case of bootstrapping)")
	fl.IntVar(&opts.testSetQty, "testSetQty", 0, "# of test sets obtained by bootstrapping; ignored if queryFile is specified")
	fl.StringVar(&opts.knn, "knn", "", "value of K for the k-NN search")
	fl.StringVar(&opts.rangeArg, "range", "", "radius for the range search")
	fl.Float64Var(&opts.eps, "eps", 0, "the parameter for the eps-approximate k-NN search")
	fl.StringVar(&opts.method, "method", "", "method with parameters: <name>[:<param1>=<v1>,...], e.g. vptree:bucketSize=50")
	fl.StringVar(&opts.outFile, "outFile", "", "output file for the tuned parameters")
	fl.StringVar(&opts.logFile, "logFile", "", "log file (default: stderr)")
	fl.Float64Var(&opts.desiredRecall, "desiredRecall", 0, "the recall floor the tuned parameters must reach")
	fl.StringVar(&opts.metric, "metric", "dist", "optimization metric: dist (distance computations) or time (efficiency)")
	fl.UintVar(&opts.minExp, "minExp", tuner.DefaultMinExp, "the minimum exponent in the pruning oracle")
	fl.UintVar(&opts.maxExp, "maxExp", tuner.DefaultMaxExp, "the maximum exponent in the pruning oracle")
	fl.UintVar(&opts.maxIter, "maxIter", tuner.DefaultMaxIter, "the maximum number of iterations while looking for a point reaching the desired recall")
	fl.UintVar(&opts.maxRecDepth, "maxRecDepth", tuner.DefaultMaxRecDepth, "the maximum recursion in the maximization algorithm (each recursion decreases the grid step)")
	fl.UintVar(&opts.stepN, "stepN", tuner.DefaultStepN, "each local step of the grid search involves (2*stepN+1)^2 mini-iterations")
	fl.UintVar(&opts.addRestartQty, "addRestartQty", tuner.DefaultAddRestartQty, "number of additional restarts with randomly selected initial values")
	fl.Float64Var(&opts.fullFactor, "fullFactor", tuner.DefaultFullFactor, "the maximum factor used in the local grid search")
	fl.IntVar(&opts.maxCacheGSQty, "maxCacheGSQty", harness.DefaultMaxCacheGSQty, "a maximum number of gold standard entries to compute/cache")
	fl.Int64Var(&opts.seed, "seed", 0, "seed of the pseudo-random generator")

	for _, name := range []string{"spaceType", "dataFile", "method", "desiredRecall"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
	return cmd
}

func run(opts *cliOptions) error {
	logger, closeLog, err := newLogger(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	switch strings.ToLower(opts.distType) {
	case "int":
		return runTyped[int32](opts, logger)
	case "float":
		return runTyped[float32](opts, logger)
	case "double":
		return runTyped[float64](opts, logger)
	default:
		return fmt.Errorf("%w: unknown distance value type %q", nonmetric.ErrInvalidArgument, opts.distType)
	}
}

func runTyped[T core.Scalar](opts *cliOptions, logger *nonmetric.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	methodName, methodParams, err := parseMethod(opts.method)
	if err != nil {
		return err
	}

	k, radius, err := parseQueryKind(opts.knn, opts.rangeArg)
	if err != nil {
		return err
	}

	sp, err := space.Create[T](opts.spaceType)
	if err != nil {
		return err
	}

	metric, err := tuner.ParseMetric(opts.metric)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(opts.seed))

	logger.Info("loading workload",
		"space", sp.Name(),
		"dataFile", opts.dataFile,
		"queryFile", opts.queryFile,
		"method", methodName,
	)

	w, err := harness.LoadWorkload(sp, harness.LoadOptions{
		DataFile:    opts.dataFile,
		QueryFile:   opts.queryFile,
		TestSetQty:  opts.testSetQty,
		MaxNumData:  opts.maxNumData,
		MaxNumQuery: opts.maxNumQuery,
		K:           k,
		Range:       radius,
		Eps:         opts.eps,
	}, rng)
	if err != nil {
		return err
	}

	treeOpts, err := treeOptions(methodParams)
	if err != nil {
		return err
	}

	collector := &nonmetric.BasicMetricsCollector{}
	h, err := harness.New(w, rng, func(o *harness.Options) {
		o.MaxCacheGSQty = opts.maxCacheGSQty
		o.Tree = treeOpts
		o.Logger = logger
		o.Collector = collector
	})
	if err != nil {
		return err
	}

	tuneOpts := tuner.Options{
		DesiredRecall: opts.desiredRecall,
		Metric:        metric,
		MinExp:        opts.minExp,
		MaxExp:        opts.maxExp,
		MaxIter:       opts.maxIter,
		MaxRecDepth:   opts.maxRecDepth,
		StepN:         opts.stepN,
		AddRestartQty: opts.addRestartQty,
		FullFactor:    opts.fullFactor,
	}

	res, err := tuner.Tune(ctx, h, logger, rng, tuneOpts)
	if err != nil {
		return err
	}

	stats := collector.GetStats()
	logger.Info("optimal parameters",
		"params", res.ParamString(),
		"recall", res.Recall,
		"improvement", res.Improvement,
	)
	logger.Info("run statistics",
		"searches", stats.SearchCount,
		"searchDistComps", stats.SearchDistComps,
		"bruteForcePasses", stats.BruteCount,
		"bruteDistComps", stats.BruteDistComps,
	)

	if opts.outFile != "" {
		if err := os.WriteFile(opts.outFile, []byte(res.ParamString()+"\n"), 0o644); err != nil {
			return fmt.Errorf("%w: write output file: %w", nonmetric.ErrIO, err)
		}
	}
	return nil
}

// parseMethod splits "<name>[:k=v,...]" and validates the method name.
func parseMethod(arg string) (string, map[string]string, error) {
	name, rest, hasParams := strings.Cut(arg, ":")
	name = strings.ToLower(strings.TrimSpace(name))

	ok := false
	for _, m := range allowedMethods {
		if name == m {
			ok = true
			break
		}
	}
	if !ok {
		return "", nil, fmt.Errorf("%w: wrong method name %q, specify a single method from the list: %s",
			nonmetric.ErrInvalidArgument, name, strings.Join(allowedMethods, " "))
	}
	if name != "vptree" {
		return "", nil, fmt.Errorf("%w: tuning for %s is not implemented, use vptree", nonmetric.ErrInvalidArgument, name)
	}

	params := map[string]string{}
	if hasParams {
		for _, kv := range strings.Split(rest, ",") {
			if kv == "" {
				continue
			}
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return "", nil, fmt.Errorf("%w: bad method parameter %q, want key=value", nonmetric.ErrInvalidArgument, kv)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return name, params, nil
}

// parseQueryKind enforces exactly one k-NN K or one range radius.
func parseQueryKind(knnArg, rangeArg string) (k int, radius float64, err error) {
	if (knnArg == "") == (rangeArg == "") {
		return 0, 0, fmt.Errorf("%w: you need to specify exactly one knn or one range search", nonmetric.ErrInvalidArgument)
	}
	if knnArg != "" {
		vals := strings.Split(knnArg, ",")
		if len(vals) != 1 {
			return 0, 0, fmt.Errorf("%w: tuning requires exactly one value of K, got %q", nonmetric.ErrInvalidArgument, knnArg)
		}
		k, err = strconv.Atoi(strings.TrimSpace(vals[0]))
		if err != nil || k < 1 {
			return 0, 0, fmt.Errorf("%w: wrong format of the knn argument %q", nonmetric.ErrInvalidArgument, knnArg)
		}
		return k, 0, nil
	}
	vals := strings.Split(rangeArg, ",")
	if len(vals) != 1 {
		return 0, 0, fmt.Errorf("%w: tuning requires exactly one range radius, got %q", nonmetric.ErrInvalidArgument, rangeArg)
	}
	radius, err = strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil || radius <= 0 {
		return 0, 0, fmt.Errorf("%w: wrong format of the range argument %q", nonmetric.ErrInvalidArgument, rangeArg)
	}
	return 0, radius, nil
}

// treeOptions maps method parameters onto VP-tree options.
func treeOptions(params map[string]string) ([]func(*vptree.Options), error) {
	var fns []func(*vptree.Options)
	for key, val := range params {
		switch key {
		case "bucketSize":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: bad bucketSize %q", nonmetric.ErrInvalidArgument, val)
			}
			fns = append(fns, func(o *vptree.Options) { o.BucketSize = n })
		case "randomPivot":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("%w: bad randomPivot %q", nonmetric.ErrInvalidArgument, val)
			}
			fns = append(fns, func(o *vptree.Options) { o.SelectPivotRandomly = b })
		default:
			return nil, fmt.Errorf("%w: unknown method parameter %q", nonmetric.ErrInvalidArgument, key)
		}
	}
	return fns, nil
}

func newLogger(logFile string) (*nonmetric.Logger, func(), error) {
	if logFile == "" {
		return nonmetric.NewTextLogger(os.Stderr, slog.LevelInfo), func() {}, nil
	}
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open log file: %w", nonmetric.ErrIO, err)
	}
	return nonmetric.NewTextLogger(f, slog.LevelInfo), func() { f.Close() }, nil
}
