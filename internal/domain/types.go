// Package domain contains the core entities shared by the secure store, the scoring
// engine and the report builder of the self-assessment core.
//
// Scores are severity indicators derived from self-report questionnaires. They are
// not diagnoses and every derived hint carries its confidence and rationale.
package domain

import (
	"errors"
	"fmt"
)

// Band is an ordinal severity band in the range 0..4.
// Band 0 is reserved for "not scorable" on validated metrics.
type Band int

const (
	BandNone     Band = 0
	BandMinimal  Band = 1
	BandMild     Band = 2
	BandModerate Band = 3
	BandSevere   Band = 4
)

// MaxBand is the highest band any scorer may emit.
const MaxBand = BandSevere

// IsValid reports whether the band lies within 0..4.
func (b Band) IsValid() bool {
	return b >= BandNone && b <= MaxBand
}

// String returns a human readable label for the band.
func (b Band) String() string {
	switch b {
	case BandNone:
		return "none"
	case BandMinimal:
		return "minimal"
	case BandMild:
		return "mild"
	case BandModerate:
		return "moderate"
	case BandSevere:
		return "severe"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// Polarity describes how a higher module score should be read.
type Polarity string

const (
	HigherIsWorse  Polarity = "higher_is_worse"
	HigherIsBetter Polarity = "higher_is_better"
)

// IsValid validates the polarity value.
func (p Polarity) IsValid() bool {
	switch p {
	case HigherIsWorse, HigherIsBetter:
		return true
	default:
		return false
	}
}

// ModuleKind identifies how a questionnaire module collects its answers.
type ModuleKind string

const (
	KindIntro       ModuleKind = "intro"
	KindScale       ModuleKind = "scale"
	KindYesNo       ModuleKind = "yesno"
	KindMedications ModuleKind = "meds"
	KindInteractive ModuleKind = "interactive"
	KindSummary     ModuleKind = "summary"
)

// IsValid validates the module kind.
func (k ModuleKind) IsValid() bool {
	switch k {
	case KindIntro, KindScale, KindYesNo, KindMedications, KindInteractive, KindSummary:
		return true
	default:
		return false
	}
}

// Answerable reports whether items of this kind count towards completion.
func (k ModuleKind) Answerable() bool {
	return k == KindScale
}

// Validation errors for definitions and configuration
var (
	ErrInvalidBand       = errors.New("invalid severity band")
	ErrInvalidPolarity   = errors.New("invalid polarity")
	ErrInvalidModuleKind = errors.New("invalid module kind")
)

// ValidateBand returns ErrInvalidBand for out-of-range bands.
func ValidateBand(b Band) error {
	if !b.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidBand, int(b))
	}
	return nil
}
