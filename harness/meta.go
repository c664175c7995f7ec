package harness

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// z95 is the normal-approximation quantile for a 95% confidence interval.
const z95 = 1.96

// Stat is a mean with its 95% confidence half-width (mean ± 1.96·stderr).
type Stat struct {
	Mean float64
	CI   float64
}

// NewStat aggregates a sample into a Stat. Singleton and empty samples get
// a zero-width interval.
func NewStat(xs []float64) Stat {
	if len(xs) == 0 {
		return Stat{}
	}
	s := Stat{Mean: stat.Mean(xs, nil)}
	if len(xs) > 1 {
		sd := stat.StdDev(xs, nil)
		s.CI = z95 * sd / math.Sqrt(float64(len(xs)))
	}
	return s
}

// Summary aggregates per-query metrics over a whole workload run.
type Summary struct {
	Recall            Stat
	PrecisionOfApprox Stat
	QueryTime         Stat // seconds
	DistComps         Stat
	ImprEfficiency    Stat
	ImprDistComps     Stat

	// IndexTime and IndexMemory aggregate over the test sets rather than
	// the queries: build wall time in seconds and estimated index
	// footprint in bytes per set.
	IndexTime   Stat
	IndexMemory Stat

	// QueriesPerSec is the aggregate throughput of the run.
	QueriesPerSec float64
}

// Summarize reduces per-query measurements to means with 95% confidence
// intervals.
func Summarize(per []QueryMetrics) Summary {
	n := len(per)
	recalls := make([]float64, n)
	precisions := make([]float64, n)
	times := make([]float64, n)
	comps := make([]float64, n)
	imprEff := make([]float64, n)
	imprComps := make([]float64, n)

	var total time.Duration
	for i, m := range per {
		recalls[i] = m.Recall
		precisions[i] = m.PrecisionOfApprox
		times[i] = m.Time.Seconds()
		comps[i] = float64(m.DistComps)
		imprEff[i] = m.ImprEfficiency
		imprComps[i] = m.ImprDistComps
		total += m.Time
	}

	s := Summary{
		Recall:            NewStat(recalls),
		PrecisionOfApprox: NewStat(precisions),
		QueryTime:         NewStat(times),
		DistComps:         NewStat(comps),
		ImprEfficiency:    NewStat(imprEff),
		ImprDistComps:     NewStat(imprComps),
	}
	if total > 0 {
		s.QueriesPerSec = float64(n) / total.Seconds()
	}
	return s
}
