package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

func answers(kv map[string]float64) domain.AnswerSet {
	a := domain.AnswerSet{}
	for k, v := range kv {
		a[k] = domain.ValueOf(v)
	}
	return a
}

func TestPTSDCluster(t *testing.T) {
	def := catalog.PCL5Definition()
	full := map[string]float64{
		"t_nightmares":     2,
		"t_avoid":          3,
		"t_guilt":          2,
		"t_detachment":     4,
		"t_hypervigilance": 2,
		"t_irritability":   3,
	}

	m := PTSDCluster(def, answers(full))
	assert.True(t, m.Matched)
	assert.Len(t, m.Evidence, 4)

	missingArousal := map[string]float64{}
	for k, v := range full {
		missingArousal[k] = v
	}
	missingArousal["t_irritability"] = 1

	m = PTSDCluster(def, answers(missingArousal))
	assert.False(t, m.Matched, "every cluster is required")
	assert.Empty(t, m.Evidence)
}

func TestDepressionCluster(t *testing.T) {
	def := catalog.PHQ9Definition()

	noCore := answers(map[string]float64{
		"m_sleep": 3, "m_energy": 3, "m_appetite": 2, "m_focus": 2, "m_psycho": 2, "m_selfworth": 2,
	})
	assert.False(t, DepressionCluster(def, noCore).Matched)

	withCore := noCore.Clone()
	withCore["m_down"] = domain.ValueOf(2)
	assert.True(t, DepressionCluster(def, withCore).Matched)

	tooFew := answers(map[string]float64{"m_down": 3, "m_sleep": 2, "m_energy": 2, "m_focus": 1})
	assert.False(t, DepressionCluster(def, tooFew).Matched)
}

func TestAnxietyCluster(t *testing.T) {
	a := answers(map[string]float64{"k_veget": 2})

	assert.False(t, AnxietyCluster(domain.ScoreResult{Band: domain.BandMinimal}, a).Matched)
	assert.True(t, AnxietyCluster(domain.ScoreResult{Band: domain.BandMild}, a).Matched)
	assert.False(t, AnxietyCluster(domain.ScoreResult{Band: domain.BandSevere}, domain.AnswerSet{}).Matched)
}

func TestOCDCluster(t *testing.T) {
	a := answers(map[string]float64{"o_obs": 3, "o_control": 2, "f_life": 3})
	assert.True(t, OCDCluster(a).Matched)

	a["f_life"] = domain.ValueOf(2)
	assert.False(t, OCDCluster(a).Matched, "impairment is required")
}

func TestScreeningClusters(t *testing.T) {
	tests := []struct {
		name   string
		detect func(domain.AnswerSet) Match
		hit    map[string]float64
		miss   map[string]float64
	}{
		{"psychosis", PsychosisCluster,
			map[string]float64{"ps_unusual": 2, "ps_paranoia": 2},
			map[string]float64{"ps_unusual": 4, "ps_paranoia": 1}},
		{"bipolar", BipolarCluster,
			map[string]float64{"bp_sleepneed": 3, "bp_talk": 3, "bp_ideas": 4},
			map[string]float64{"bp_sleepneed": 3, "bp_talk": 3, "bp_ideas": 2}},
		{"adhd", ADHDCluster,
			map[string]float64{"ad_inattn": 3, "ad_organize": 3, "ad_wait": 4, "ad_finish": 3},
			map[string]float64{"ad_inattn": 3, "ad_organize": 3, "ad_wait": 4, "ad_finish": 2}},
		{"eating by count", EatingCluster,
			map[string]float64{"e_restrict": 3, "e_bodyimage": 3},
			map[string]float64{"e_restrict": 3, "e_bodyimage": 2}},
		{"eating by compensation", EatingCluster,
			map[string]float64{"e_compensate": 2},
			map[string]float64{"e_compensate": 1}},
		{"substance", SubstanceCluster,
			map[string]float64{"s_binge": 3},
			map[string]float64{"s_binge": 2, "s_alc": 3, "s_drugs": 1}},
		{"dissociation", DissociationCluster,
			map[string]float64{"ds_dereal": 3, "ds_memory": 3},
			map[string]float64{"ds_dereal": 3, "ds_memory": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.detect(answers(tt.hit)).Matched)
			assert.False(t, tt.detect(answers(tt.miss)).Matched)
		})
	}
}
