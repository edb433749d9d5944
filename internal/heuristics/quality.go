package heuristics

import (
	"math"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// Response-quality thresholds
const (
	StraightLineRun       = 6
	LowVarianceMinItems   = 10
	LowVarianceThreshold  = 0.02
	LowConsistencyCeiling = 0.5
	minConsistencyPairs   = 2
)

// StraightLinedModules returns the ids of scale modules containing a run of at least
// StraightLineRun consecutive identical answers in item order. Unanswered items break a run.
func StraightLinedModules(modules []catalog.Module, a domain.AnswerSet) []string {
	var out []string
	for _, m := range modules {
		if m.Kind != domain.KindScale {
			continue
		}
		run, best := 0, 0
		var prev float64
		for _, key := range m.ItemKeys() {
			v, ok := a.Numeric(key)
			switch {
			case !ok:
				run = 0
			case run > 0 && v == prev:
				run++
			default:
				run = 1
			}
			prev = v
			if run > best {
				best = run
			}
		}
		if best >= StraightLineRun {
			out = append(out, m.ID)
		}
	}
	return out
}

// NormalizedVariance returns the population variance of all answered scale items after
// mapping each onto 0..1 by its module range, and the number of items used.
func NormalizedVariance(modules []catalog.Module, a domain.AnswerSet) (float64, int) {
	var values []float64
	for _, m := range modules {
		if m.Kind != domain.KindScale || m.Range.Width() <= 0 {
			continue
		}
		for _, key := range m.ItemKeys() {
			if v, ok := a.Numeric(key); ok {
				values = append(values, (m.Range.Clamp(v)-m.Range.Min)/m.Range.Width())
			}
		}
	}
	if len(values) == 0 {
		return 0, 0
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return ss / float64(len(values)), len(values)
}

// LowVariance reports near-constant answering across enough items.
func LowVariance(modules []catalog.Module, a domain.AnswerSet) bool {
	variance, n := NormalizedVariance(modules, a)
	return n >= LowVarianceMinItems && variance <= LowVarianceThreshold
}

// itemPair links two items in different modules that ask about the same experience.
type itemPair struct {
	a, b string
}

var consistencyPairs = []itemPair{
	{"m_sleep", "sl_maintenance"},
	{"m_energy", "k_fatigue"},
	{"m_focus", "ad_inattn"},
	{"a_restless", "ad_restless"},
	{"a_irrit", "t_irritability"},
	{"m_selfworth", "s_worth"},
}

// ConsistencyIndex compares overlapping items across modules after normalising each to
// 0..1 in the direction of burden. It returns 1 - mean absolute difference, or nil when
// fewer than two pairs were answered.
func ConsistencyIndex(c *catalog.Catalog, a domain.AnswerSet) *float64 {
	norm := normalizers(c)

	var diffs []float64
	for _, p := range consistencyPairs {
		fa, okA := norm[p.a]
		fb, okB := norm[p.b]
		if !okA || !okB {
			continue
		}
		va, answeredA := a.Numeric(p.a)
		vb, answeredB := a.Numeric(p.b)
		if !answeredA || !answeredB {
			continue
		}
		diffs = append(diffs, math.Abs(fa(va)-fb(vb)))
	}
	if len(diffs) < minConsistencyPairs {
		return nil
	}

	var sum float64
	for _, d := range diffs {
		sum += d
	}
	return domain.FloatPtr(1 - sum/float64(len(diffs)))
}

// normalizers maps each scale item to a function placing its value on 0..1 burden.
func normalizers(c *catalog.Catalog) map[string]func(float64) float64 {
	out := make(map[string]func(float64) float64)
	for _, m := range c.ScaleModules() {
		r := m.Range
		if r.Width() <= 0 {
			continue
		}
		better := m.Polarity == domain.HigherIsBetter
		for _, it := range m.Items {
			reverse := it.Reverse != better
			out[it.Key] = func(v float64) float64 {
				x := (r.Clamp(v) - r.Min) / r.Width()
				if reverse {
					return 1 - x
				}
				return x
			}
		}
	}
	return out
}

// AssessQuality runs every response-quality detector.
func AssessQuality(c *catalog.Catalog, a domain.AnswerSet) domain.QualityFlags {
	modules := c.ScaleModules()
	return domain.QualityFlags{
		StraightLining: StraightLinedModules(modules, a),
		LowVariance:    LowVariance(modules, a),
		Consistency:    ConsistencyIndex(c, a),
	}
}
