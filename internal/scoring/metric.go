// Package scoring implements the pure scoring functions: validated-scale scoring with
// proportional extrapolation, generic percentage-of-max module scoring, linear
// calibration and bootstrap intervals. Nothing here performs I/O except LoadWeights.
package scoring

import (
	"math"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ScoreMetric scores a validated scale.
//
// Answered values are clamped into the item range and reverse-coded where flagged.
// Missing items are filled by proportional extrapolation:
// raw = round(sum * totalItems / answeredItems). When nothing is answered raw is nil.
func ScoreMetric(def catalog.MetricDefinition, answers domain.AnswerSet) domain.ScoreResult {
	total := len(def.Items)
	if total == 0 {
		return domain.ScoreResult{Band: domain.BandNone}
	}

	var (
		sum      float64
		answered int
	)
	for _, it := range def.Items {
		v, ok := answers.Numeric(it.Key)
		if !ok {
			continue
		}
		answered++
		sum += itemContribution(def, it, v)
	}

	res := domain.ScoreResult{
		Completeness: float64(answered) / float64(total),
	}
	if answered > 0 {
		res.Raw = domain.IntPtr(roundHalfUp(sum * float64(total) / float64(answered)))
		missing := total - answered
		res.Uncertainty = domain.FloatPtr(math.Max(1, math.Sqrt(float64(missing))))
	}
	res.Band = BandFor(def, res.Raw)
	return res
}

// itemContribution clamps v and applies reverse coding (max - v).
func itemContribution(def catalog.MetricDefinition, it catalog.Item, v float64) float64 {
	v = def.Range.Clamp(v)
	if it.Reverse {
		return def.Range.Max - v
	}
	return v
}

// BandFor maps a raw score onto the definition's bands.
//
// With a threshold list the band is the number of thresholds at or below raw, capped at 4,
// and 0 when raw is nil. With a screening cutoff the band is 3 at or above the cutoff and
// 1 otherwise, including when raw is nil.
func BandFor(def catalog.MetricDefinition, raw *int) domain.Band {
	if def.Cutoffs.IsScreening() {
		if raw != nil && *raw >= *def.Cutoffs.Screening {
			return domain.BandModerate
		}
		return domain.BandMinimal
	}

	if raw == nil {
		return domain.BandNone
	}
	band := 0
	for _, c := range def.Cutoffs.Thresholds {
		if *raw >= c {
			band++
		}
	}
	if band > int(domain.MaxBand) {
		band = int(domain.MaxBand)
	}
	return domain.Band(band)
}

// DisplayRaw rescales a true-scale raw score onto the definition's display maximum.
// It returns raw unchanged when no display maximum is configured.
func DisplayRaw(def catalog.MetricDefinition, raw *int) *int {
	if raw == nil {
		return nil
	}
	if def.UIMax <= 0 || def.TrueMax <= 0 || def.UIMax == def.TrueMax {
		return domain.IntPtr(*raw)
	}
	return domain.IntPtr(roundHalfUp(float64(*raw) / float64(def.TrueMax) * float64(def.UIMax)))
}
