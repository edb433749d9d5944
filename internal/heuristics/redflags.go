package heuristics

import "github.com/neuroscope-selfcheck/internal/domain"

// Fixed advisory strings surfaced whenever a red flag triggers
const (
	RedFlagSelfHarm  = "Thoughts of self-harm or of not wanting to live were reported. Please seek support now: contact your local emergency number or a crisis line."
	RedFlagPsychosis = "Unusual perceptions or beliefs were reported at a high level. A prompt professional assessment is recommended."
	RedFlagUnsafe    = "You indicated that you do not currently feel safe. Please reach out to a trusted person or emergency services."
)

// RedFlagInput carries what the red-flag checks look at.
type RedFlagInput struct {
	Answers       domain.AnswerSet
	PsychosisBand domain.Band
}

// RedFlags returns every triggered advisory. It never looks at completeness: a single
// answered item is enough.
func RedFlags(in RedFlagInput, cfg Config) []string {
	flags := []string{}

	if v, ok := in.Answers.Numeric("m_suicide"); ok && v >= cfg.SelfHarmThreshold {
		flags = append(flags, RedFlagSelfHarm)
	}
	if PsychosisCluster(in.Answers).Matched && in.PsychosisBand >= cfg.PsychosisBand {
		flags = append(flags, RedFlagPsychosis)
	}
	if v, ok := in.Answers.Numeric("safe_now"); ok && v == 0 {
		flags = append(flags, RedFlagUnsafe)
	}
	return flags
}
