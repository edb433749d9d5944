package heuristics

import (
	"context"
	"fmt"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// Hint codes
const (
	HintTrauma       = "trauma_pattern"
	HintDepression   = "depressive_pattern"
	HintAnxiety      = "anxiety_pattern"
	HintOCD          = "ocd_pattern"
	HintPsychosis    = "psychosis_screen"
	HintBipolar      = "bipolar_screen"
	HintADHD         = "adhd_screen"
	HintEating       = "eating_pattern"
	HintSubstance    = "substance_pattern"
	HintDissociation = "dissociation_pattern"
)

// initializeRules registers every hint detector
func (e *Engine) initializeRules() {
	e.addRule(&Rule{
		Code:        HintTrauma,
		Label:       "Trauma-related symptom pattern",
		Support:     []string{"sleep", "diss", "som"},
		Medications: []MedicationPenalty{MedSedatives},
		Evaluator: func(_ context.Context, ev *Evidence) (*Finding, error) {
			def, err := e.metric(catalog.PCL5)
			if err != nil {
				return nil, err
			}
			return &Finding{Match: PTSDCluster(def, ev.Answers), Band: ev.Ptsd.Band, Completeness: ev.Ptsd.Completeness}, nil
		},
	})

	e.addRule(&Rule{
		Code:        HintDepression,
		Label:       "Depressive symptom pattern",
		Support:     []string{"func", "sleep", "res", "self"},
		Medications: []MedicationPenalty{MedAntidepressants},
		Evaluator: func(_ context.Context, ev *Evidence) (*Finding, error) {
			def, err := e.metric(catalog.PHQ9)
			if err != nil {
				return nil, err
			}
			return &Finding{Match: DepressionCluster(def, ev.Answers), Band: ev.Mood.Band, Completeness: ev.Mood.Completeness}, nil
		},
	})

	e.addRule(&Rule{
		Code:        HintAnxiety,
		Label:       "Generalised anxiety pattern",
		Support:     []string{"som", "sleep", "cog"},
		Medications: []MedicationPenalty{MedSedatives, MedAntidepressants},
		Evaluator: func(_ context.Context, ev *Evidence) (*Finding, error) {
			return &Finding{Match: AnxietyCluster(ev.Anx, ev.Answers), Band: ev.Anx.Band, Completeness: ev.Anx.Completeness}, nil
		},
	})

	e.addRule(domainRule(HintOCD, "Obsessive-compulsive pattern", "ocd",
		[]string{"anx", "cog"}, nil, OCDCluster))
	e.addRule(domainRule(HintPsychosis, "Unusual perceptions or beliefs", "psy",
		[]string{"diss", "bp"}, []MedicationPenalty{MedAntipsychotics}, PsychosisCluster))
	e.addRule(domainRule(HintBipolar, "Signs of elevated phases", "bp",
		[]string{"psy", "sub"}, []MedicationPenalty{MedAntipsychotics, MedMoodStabilizers}, BipolarCluster))
	e.addRule(domainRule(HintADHD, "Attention and impulsivity pattern", "adhd",
		[]string{"cog", "func"}, []MedicationPenalty{MedStimulants}, ADHDCluster))
	e.addRule(domainRule(HintEating, "Eating and body-image pattern", "eat",
		[]string{"self", "mood"}, nil, EatingCluster))
	e.addRule(domainRule(HintSubstance, "Risky substance use", "sub",
		[]string{"stress", "sleep"}, []MedicationPenalty{MedOpioids, MedSedatives}, SubstanceCluster))
	e.addRule(domainRule(HintDissociation, "Dissociative experiences", "diss",
		[]string{"ptsd"}, nil, DissociationCluster))
}

func (e *Engine) addRule(r *Rule) {
	e.rules[r.Code] = r
}

func (e *Engine) metric(id string) (catalog.MetricDefinition, error) {
	def, ok := e.catalog.Metric(id)
	if !ok {
		return catalog.MetricDefinition{}, fmt.Errorf("metric %s: %w", id, domain.ErrNotFound)
	}
	return def, nil
}

// domainRule builds a rule whose band and completeness come from a generic domain score.
func domainRule(code, label, domainID string, support []string, meds []MedicationPenalty, detect func(domain.AnswerSet) Match) *Rule {
	return &Rule{
		Code:        code,
		Label:       label,
		Support:     support,
		Medications: meds,
		Evaluator: func(_ context.Context, ev *Evidence) (*Finding, error) {
			d, ok := ev.Domains[domainID]
			if !ok {
				return nil, fmt.Errorf("domain %s not scored: %w", domainID, domain.ErrNotFound)
			}
			return &Finding{Match: detect(ev.Answers), Band: d.Band, Completeness: d.Completeness}, nil
		},
	}
}
