package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

func TestStraightLinedModules(t *testing.T) {
	c := catalog.MustDefault()
	a := answers(map[string]float64{
		"m_interest": 2, "m_down": 2, "m_sleep": 2, "m_energy": 2, "m_appetite": 2, "m_selfworth": 2,
		"a_nervous": 1, "a_control": 1, "a_broad": 1, "a_relax": 1, "a_restless": 1,
	})

	assert.Equal(t, []string{"mood"}, StraightLinedModules(c.ScaleModules(), a))
}

func TestStraightLinedModules_GapBreaksRun(t *testing.T) {
	c := catalog.MustDefault()
	a := answers(map[string]float64{
		"m_interest": 2, "m_down": 2, "m_sleep": 2,
		"m_appetite": 2, "m_selfworth": 2, "m_focus": 2,
	})

	assert.Empty(t, StraightLinedModules(c.ScaleModules(), a))
}

func TestLowVariance(t *testing.T) {
	c := catalog.MustDefault()
	modules := c.ScaleModules()

	constant := domain.AnswerSet{}
	for _, key := range []string{
		"m_interest", "m_down", "m_sleep", "m_energy", "m_appetite",
		"a_nervous", "a_control", "a_broad", "a_relax", "a_restless",
	} {
		constant[key] = domain.ValueOf(1)
	}
	variance, n := NormalizedVariance(modules, constant)
	assert.Equal(t, 10, n)
	assert.InDelta(t, 0, variance, 1e-12)
	assert.True(t, LowVariance(modules, constant))

	varied := constant.Clone()
	varied["m_interest"] = domain.ValueOf(3)
	varied["m_down"] = domain.ValueOf(0)
	varied["a_nervous"] = domain.ValueOf(3)
	assert.False(t, LowVariance(modules, varied))

	few := answers(map[string]float64{"m_interest": 1, "m_down": 1})
	assert.False(t, LowVariance(modules, few), "too few items to judge")
}

func TestConsistencyIndex(t *testing.T) {
	c := catalog.MustDefault()

	consistent := answers(map[string]float64{
		"m_sleep": 3, "sl_maintenance": 4,
		"m_energy": 0, "k_fatigue": 0,
	})
	got := ConsistencyIndex(c, consistent)
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)

	contradictory := answers(map[string]float64{
		"m_sleep": 3, "sl_maintenance": 0,
		"m_energy": 0, "k_fatigue": 4,
	})
	got = ConsistencyIndex(c, contradictory)
	require.NotNil(t, got)
	assert.InDelta(t, 0.0, *got, 1e-9)

	assert.Nil(t, ConsistencyIndex(c, answers(map[string]float64{"m_sleep": 3, "sl_maintenance": 4})))
}

func TestConsistencyIndex_ReversesHigherIsBetterModules(t *testing.T) {
	c := catalog.MustDefault()

	// Low self-worth on the mood scale matches a low rating on the self-image scale.
	a := answers(map[string]float64{
		"m_selfworth": 3, "s_worth": 0,
		"m_focus": 3, "ad_inattn": 4,
	})
	got := ConsistencyIndex(c, a)
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)
}

func TestAssessQuality(t *testing.T) {
	c := catalog.MustDefault()

	q := AssessQuality(c, domain.AnswerSet{})
	assert.False(t, q.Flagged())
	assert.Nil(t, q.Consistency)
}
