package scoring

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// BootstrapOptions configures BootstrapInterval.
type BootstrapOptions struct {
	Resamples  int
	Confidence float64
	Seed       uint64
}

// DefaultBootstrapOptions returns 1000 resamples at 95%.
func DefaultBootstrapOptions() BootstrapOptions {
	return BootstrapOptions{Resamples: 1000, Confidence: 0.95, Seed: 1}
}

// BootstrapInterval estimates a percentile interval for the extrapolated raw score by
// resampling the answered item contributions with replacement. It returns nil when
// fewer than two items were answered. The same seed always yields the same interval.
func BootstrapInterval(def catalog.MetricDefinition, answers domain.AnswerSet, opts BootstrapOptions) *domain.Interval {
	if opts.Resamples <= 0 {
		opts.Resamples = DefaultBootstrapOptions().Resamples
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = DefaultBootstrapOptions().Confidence
	}

	var contrib []float64
	for _, it := range def.Items {
		if v, ok := answers.Numeric(it.Key); ok {
			contrib = append(contrib, itemContribution(def, it, v))
		}
	}
	n := len(contrib)
	if n < 2 {
		return nil
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	total := float64(len(def.Items))
	stats := make([]float64, opts.Resamples)
	for r := range stats {
		var sum float64
		for i := 0; i < n; i++ {
			sum += contrib[rng.IntN(n)]
		}
		stats[r] = sum / float64(n) * total
	}
	sort.Float64s(stats)

	alpha := (1 - opts.Confidence) / 2
	return &domain.Interval{
		Lower:      roundHalfUp(percentile(stats, alpha)),
		Upper:      roundHalfUp(percentile(stats, 1-alpha)),
		Confidence: opts.Confidence,
		Resamples:  opts.Resamples,
	}
}

// percentile reads the q-quantile of sorted values using the nearest-rank method.
func percentile(sorted []float64, q float64) float64 {
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
