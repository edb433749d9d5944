package heuristics

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/scoring"
)

func newTestEngine(t *testing.T) (*Engine, *catalog.Catalog) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	c := catalog.MustDefault()
	return NewEngine(logger, c, DefaultConfig()), c
}

// buildInput scores the answers the way the report builder does.
func buildInput(t *testing.T, c *catalog.Catalog, a domain.AnswerSet) Input {
	t.Helper()
	metric := func(id string) domain.ScoreResult {
		def, ok := c.Metric(id)
		require.True(t, ok)
		return scoring.ScoreMetric(def, a)
	}

	domains := make(map[string]domain.ModuleScoreResult)
	for _, m := range c.ScaleModules() {
		domains[m.ID] = scoring.ScoreModule(m, a, scoring.ModuleOptions{})
	}

	return Input{
		Answers: a,
		Mood:    metric(catalog.PHQ9),
		Anx:     metric(catalog.GAD7),
		Ptsd:    metric(catalog.PCL5),
		Domains: domains,
	}
}

// traumaAnswers alternates 4 and 1 across the checklist so every cluster is hit
// without producing a straight-lined or low-variance pattern.
func traumaAnswers() domain.AnswerSet {
	a := domain.AnswerSet{}
	for i, key := range catalog.PCL5Definition().ItemKeys() {
		if i%2 == 0 {
			a[key] = domain.ValueOf(4)
		} else {
			a[key] = domain.ValueOf(1)
		}
	}
	return a
}

func TestNewEngine_Rules(t *testing.T) {
	engine, _ := newTestEngine(t)

	assert.Equal(t, []string{
		HintADHD, HintAnxiety, HintBipolar, HintDepression, HintDissociation,
		HintEating, HintOCD, HintPsychosis, HintSubstance, HintTrauma,
	}, engine.Rules())
}

func TestEvaluate_TraumaHint(t *testing.T) {
	engine, c := newTestEngine(t)
	in := buildInput(t, c, traumaAnswers())

	res, err := engine.Evaluate(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, res.Hints, 1)
	hint := res.Hints[0]
	assert.Equal(t, HintTrauma, hint.Code)
	assert.Empty(t, hint.Penalties)
	assert.Greater(t, hint.Confidence, 0)
	assert.LessOrEqual(t, hint.Confidence, 100)
	assert.NotEmpty(t, hint.Rationale)

	breakdown, ok := res.Breakdowns[HintTrauma]
	require.True(t, ok)
	assert.InDelta(t, 0.75, breakdown.Components.NormalizedBand, 1e-9)
	assert.InDelta(t, 1.0, breakdown.Components.Completeness, 1e-9)
	assert.Equal(t, hint.Confidence, breakdown.Percent())
}

func TestEvaluate_MedicationLowersConfidence(t *testing.T) {
	engine, c := newTestEngine(t)
	in := buildInput(t, c, traumaAnswers())

	plain, _, err := engine.EvaluateRule(context.Background(), HintTrauma, in)
	require.NoError(t, err)
	require.NotNil(t, plain)

	in.Medications = []domain.MedicationEntry{{Name: "Lorazepam", DoseMgPerDay: 1}}
	medicated, breakdown, err := engine.EvaluateRule(context.Background(), HintTrauma, in)
	require.NoError(t, err)
	require.NotNil(t, medicated)

	assert.Less(t, medicated.Confidence, plain.Confidence)
	assert.Equal(t, []string{PenaltySedatives}, medicated.Penalties)
	require.Len(t, breakdown.Penalties, 1)
	assert.Equal(t, DefaultConfig().PenaltyPerFlag, breakdown.Penalties[0].Amount)
}

func TestEvaluate_StraightLiningPenalises(t *testing.T) {
	engine, c := newTestEngine(t)

	a := domain.AnswerSet{}
	for _, key := range catalog.PCL5Definition().ItemKeys() {
		a[key] = domain.ValueOf(3)
	}
	hint, breakdown, err := engine.EvaluateRule(context.Background(), HintTrauma, buildInput(t, c, a))
	require.NoError(t, err)
	require.NotNil(t, hint)

	assert.Contains(t, hint.Penalties, PenaltyStraightLining)
	assert.Contains(t, hint.Penalties, PenaltyLowVariance)
	assert.Less(t, breakdown.Score, breakdown.Blended)
}

func TestEvaluate_HintsSortedByConfidence(t *testing.T) {
	engine, c := newTestEngine(t)

	a := traumaAnswers()
	for k, v := range map[string]float64{
		"m_interest": 3, "m_down": 2, "m_sleep": 3, "m_energy": 2, "m_appetite": 3,
		"m_selfworth": 0, "m_focus": 2, "m_psycho": 0, "m_suicide": 0,
		"ad_inattn": 4, "ad_organize": 3, "ad_restless": 1, "ad_impulse": 4, "ad_wait": 3, "ad_finish": 2,
	} {
		a[k] = domain.ValueOf(v)
	}

	res, err := engine.Evaluate(context.Background(), buildInput(t, c, a))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Hints), 3)

	codes := make([]string, len(res.Hints))
	for i, h := range res.Hints {
		codes[i] = h.Code
		if i > 0 {
			assert.GreaterOrEqual(t, res.Hints[i-1].Confidence, h.Confidence)
		}
	}
	assert.Contains(t, codes, HintTrauma)
	assert.Contains(t, codes, HintDepression)
	assert.Contains(t, codes, HintADHD)
}

func TestEvaluate_RedFlagAtMinimalCompletion(t *testing.T) {
	engine, c := newTestEngine(t)
	a := answers(map[string]float64{"m_suicide": 1})

	res, err := engine.Evaluate(context.Background(), buildInput(t, c, a))
	require.NoError(t, err)

	assert.Equal(t, []string{RedFlagSelfHarm}, res.RedFlags)
	assert.Empty(t, res.Hints)
}

func TestEvaluate_FailingRuleDoesNotAbort(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := catalog.MustDefault()
	engine := NewEngine(logger, c, DefaultConfig())

	in := buildInput(t, c, traumaAnswers())
	in.Domains = nil

	res, err := engine.Evaluate(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, res.Hints, 1)
	assert.Equal(t, HintTrauma, res.Hints[0].Code)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
			assert.Contains(t, entry.Data, "rule")
		}
	}
	assert.Equal(t, 7, warnings, "every domain rule should have logged its failure")
}

func TestEvaluate_CancelledContext(t *testing.T) {
	engine, c := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Evaluate(ctx, buildInput(t, c, domain.AnswerSet{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateRule(t *testing.T) {
	engine, c := newTestEngine(t)

	_, _, err := engine.EvaluateRule(context.Background(), "no_such_rule", Input{})
	assert.Error(t, err)

	hint, breakdown, err := engine.EvaluateRule(context.Background(), HintOCD, buildInput(t, c, domain.AnswerSet{}))
	assert.NoError(t, err)
	assert.Nil(t, hint)
	assert.Nil(t, breakdown)

	_, _, err = engine.EvaluateRule(context.Background(), HintOCD, Input{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(domain.HeuristicsConfig{PsychosisBand: 4, PenaltyPerFlag: 0.2})

	assert.Equal(t, 1.0, cfg.SelfHarmThreshold)
	assert.Equal(t, domain.BandSevere, cfg.PsychosisBand)
	assert.Equal(t, 0.2, cfg.PenaltyPerFlag)
}
