package domain

// Interval is a two-sided confidence interval on a raw score.
type Interval struct {
	Lower      int     `json:"lower"`
	Upper      int     `json:"upper"`
	Confidence float64 `json:"confidence"`
	Resamples  int     `json:"resamples"`
}

// ScoreResult is the outcome of scoring a validated metric.
// Raw is nil when no item was answered; Band is then BandNone.
type ScoreResult struct {
	Raw          *int      `json:"raw"`
	Completeness float64   `json:"completeness"`
	Band         Band      `json:"band"`
	Uncertainty  *float64  `json:"se"`
	Interval     *Interval `json:"interval,omitempty"`
}

// Scored reports whether a raw score is available.
func (r ScoreResult) Scored() bool {
	return r.Raw != nil
}

// RawOr returns the raw score or fallback when unscored.
func (r ScoreResult) RawOr(fallback int) int {
	if r.Raw == nil {
		return fallback
	}
	return *r.Raw
}

// ModuleScoreResult is the outcome of the generic percentage-of-max scorer.
// Points, MaxPoints, Answered and Applicable expose the accumulation so that
// partial results for the same logical domain can be merged.
type ModuleScoreResult struct {
	Raw          *int     `json:"raw"`
	Band         Band     `json:"band"`
	Percentage   float64  `json:"pct"`
	Completeness float64  `json:"completeness"`
	Polarity     Polarity `json:"polarity"`
	UIMax        int      `json:"ui_max"`
	Points       float64  `json:"-"`
	MaxPoints    float64  `json:"-"`
	Answered     int      `json:"answered"`
	Applicable   int      `json:"applicable"`
}

// Scored reports whether any item contributed.
func (r ModuleScoreResult) Scored() bool {
	return r.Raw != nil
}

// Severity returns the percentage oriented so that higher always means more burden.
func (r ModuleScoreResult) Severity() float64 {
	if r.Polarity == HigherIsBetter {
		return 1 - r.Percentage
	}
	return r.Percentage
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}
