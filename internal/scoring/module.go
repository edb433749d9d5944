package scoring

import (
	"math"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// ModuleOptions tunes ScoreModule.
type ModuleOptions struct {
	// Domain restricts scoring to items tagged for this domain. When no item of the
	// module carries the tag, all items are scored.
	Domain string
	// UIMax overrides the module's display maximum.
	UIMax int
	// Weights overrides the default weight of 1 per item key.
	Weights map[string]float64
}

// ScoreModule scores a non-validated module as a weighted percentage of the maximum
// over answered items only. Unanswered items never dilute the percentage.
func ScoreModule(m catalog.Module, answers domain.AnswerSet, opts ModuleOptions) domain.ModuleScoreResult {
	items := m.Items
	if opts.Domain != "" {
		if tagged := m.DomainItems(opts.Domain); len(tagged) > 0 {
			items = tagged
		}
	}

	res := domain.ModuleScoreResult{
		Polarity:   m.Polarity,
		UIMax:      displayMax(m, len(items), opts.UIMax),
		Applicable: len(items),
	}
	if res.Polarity == "" {
		res.Polarity = domain.HigherIsWorse
	}

	width := m.Range.Width()
	if width <= 0 {
		return neutral(res)
	}

	for _, it := range items {
		v, ok := answers.Numeric(it.Key)
		if !ok {
			continue
		}
		w := 1.0
		if ow, ok := opts.Weights[it.Key]; ok {
			w = ow
		}
		v = m.Range.Clamp(v)
		if it.Reverse {
			v = m.Range.Min + m.Range.Max - v
		}
		res.Points += w * (v - m.Range.Min)
		res.MaxPoints += w * width
		res.Answered++
	}

	return finish(res)
}

// MergeModuleScores pools partial results of one logical domain into a single result.
// The first part's polarity wins; uiMax of 0 keeps the first part's display maximum.
func MergeModuleScores(uiMax int, parts ...domain.ModuleScoreResult) domain.ModuleScoreResult {
	res := domain.ModuleScoreResult{Polarity: domain.HigherIsWorse, UIMax: uiMax}
	for i, p := range parts {
		if i == 0 {
			if p.Polarity != "" {
				res.Polarity = p.Polarity
			}
			if res.UIMax <= 0 {
				res.UIMax = p.UIMax
			}
		}
		res.Points += p.Points
		res.MaxPoints += p.MaxPoints
		res.Answered += p.Answered
		res.Applicable += p.Applicable
	}
	return finish(res)
}

func finish(res domain.ModuleScoreResult) domain.ModuleScoreResult {
	if res.Answered == 0 || res.MaxPoints <= 0 {
		return neutral(res)
	}

	pct := res.Points / res.MaxPoints
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	band := int(math.Floor(pct * 5))
	if band > int(domain.MaxBand) {
		band = int(domain.MaxBand)
	}

	res.Percentage = pct
	res.Band = domain.Band(band)
	res.Raw = domain.IntPtr(roundHalfUp(pct * float64(res.UIMax)))
	if res.Applicable > 0 {
		res.Completeness = float64(res.Answered) / float64(res.Applicable)
	}
	return res
}

// neutral is the result for modules without usable answers.
func neutral(res domain.ModuleScoreResult) domain.ModuleScoreResult {
	res.Raw = nil
	res.Band = domain.BandMinimal
	res.Percentage = 0
	res.Completeness = 0
	return res
}

func displayMax(m catalog.Module, items, override int) int {
	if override > 0 {
		return override
	}
	if m.UIMax > 0 {
		return m.UIMax
	}
	return roundHalfUp(float64(items) * m.Range.Width())
}
