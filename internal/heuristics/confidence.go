package heuristics

import "math"

// ConfidenceWeights configures the weight of each confidence component.
type ConfidenceWeights struct {
	Band         float64 `json:"band"`
	Support      float64 `json:"support"`
	Completeness float64 `json:"completeness"`
}

// DefaultWeights returns the 0.5/0.3/0.2 blend.
func DefaultWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Band:         0.5,
		Support:      0.3,
		Completeness: 0.2,
	}
}

// Components are the inputs of the confidence blend, each in 0..1.
type Components struct {
	NormalizedBand float64 `json:"band"`
	Support        float64 `json:"support"`
	Completeness   float64 `json:"completeness"`
}

// Penalty is a named fixed deduction applied after blending.
type Penalty struct {
	Reason string  `json:"reason"`
	Amount float64 `json:"amount"`
}

// Breakdown keeps every step of a confidence computation for inspection.
type Breakdown struct {
	Components Components `json:"components"`
	Blended    float64    `json:"blended"`
	Penalties  []Penalty  `json:"penalties"`
	Score      float64    `json:"score"`
}

// Percent returns the score as a rounded integer percentage.
func (b Breakdown) Percent() int {
	return int(math.Round(b.Score * 100))
}

// ComputeConfidence blends the components, then subtracts each penalty and clamps.
//
//	score = clamp01(clamp01(wB*band + wS*support + wC*completeness) - sum(penalties))
func ComputeConfidence(c Components, weights ConfidenceWeights, penalties ...Penalty) Breakdown {
	c.NormalizedBand = clamp01(c.NormalizedBand)
	c.Support = clamp01(c.Support)
	c.Completeness = clamp01(c.Completeness)

	blended := clamp01(weights.Band*c.NormalizedBand +
		weights.Support*c.Support +
		weights.Completeness*c.Completeness)

	score := blended
	for _, p := range penalties {
		if p.Amount > 0 {
			score -= p.Amount
		}
	}

	return Breakdown{
		Components: c,
		Blended:    blended,
		Penalties:  penalties,
		Score:      clamp01(score),
	}
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
