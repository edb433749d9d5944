package heuristics

import (
	"fmt"
	"strings"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// Match is the outcome of a cluster detector.
type Match struct {
	Matched  bool
	Evidence []string
}

// countAtLeast returns how many keys were answered with a value >= min, and which.
func countAtLeast(a domain.AnswerSet, min float64, keys ...string) (int, []string) {
	var hit []string
	for _, k := range keys {
		if v, ok := a.Numeric(k); ok && v >= min {
			hit = append(hit, k)
		}
	}
	return len(hit), hit
}

func atLeast(a domain.AnswerSet, key string, min float64) bool {
	v, ok := a.Numeric(key)
	return ok && v >= min
}

// PTSDCluster requires every DSM-5 cluster to be represented at a moderate level:
// intrusion >= 1 item, avoidance >= 1, negative cognition/mood >= 2, arousal >= 2,
// each counted at a rating of 2 or more.
func PTSDCluster(def catalog.MetricDefinition, a domain.AnswerSet) Match {
	required := []struct {
		cluster string
		min     int
		label   string
	}{
		{catalog.ClusterIntrusion, 1, "intrusion"},
		{catalog.ClusterAvoidance, 1, "avoidance"},
		{catalog.ClusterNegative, 2, "negative mood/cognition"},
		{catalog.ClusterArousal, 2, "arousal"},
	}

	m := Match{Matched: true}
	for _, r := range required {
		items := def.ClusterItems(r.cluster)
		keys := make([]string, len(items))
		for i, it := range items {
			keys[i] = it.Key
		}
		n, _ := countAtLeast(a, 2, keys...)
		if n < r.min {
			m.Matched = false
			continue
		}
		m.Evidence = append(m.Evidence, fmt.Sprintf("%s: %d item(s) at moderate or above", r.label, n))
	}
	if !m.Matched {
		m.Evidence = nil
	}
	return m
}

// DepressionCluster needs a core symptom (low interest or low mood) at >= 2 and at
// least five PHQ items at >= 2.
func DepressionCluster(def catalog.MetricDefinition, a domain.AnswerSet) Match {
	if !atLeast(a, "m_interest", 2) && !atLeast(a, "m_down", 2) {
		return Match{}
	}
	n, _ := countAtLeast(a, 2, def.ItemKeys()...)
	if n < 5 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{
		"core symptom (interest or mood) on more than half the days",
		fmt.Sprintf("%d of %d symptoms on more than half the days", n, len(def.Items)),
	}}
}

// AnxietyCluster needs a GAD band of at least mild-to-moderate plus one bodily or sleep
// correlate at >= 2.
func AnxietyCluster(gad domain.ScoreResult, a domain.AnswerSet) Match {
	if gad.Band < domain.BandMild {
		return Match{}
	}
	n, hit := countAtLeast(a, 2, "k_veget", "k_pain", "k_gi", "sl_latency", "sl_maintenance")
	if n == 0 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{
		fmt.Sprintf("anxiety band %s", gad.Band),
		"physical or sleep correlates: " + strings.Join(hit, ", "),
	}}
}

// OCDCluster needs obsessions or compulsions >= 2, a control/ordering urge >= 2 and
// functional impairment >= 3 on any functioning item.
func OCDCluster(a domain.AnswerSet) Match {
	if !atLeast(a, "o_obs", 2) && !atLeast(a, "o_comp", 2) {
		return Match{}
	}
	if !atLeast(a, "o_control", 2) {
		return Match{}
	}
	n, _ := countAtLeast(a, 3,
		"f_understand", "f_mobility", "f_selfcare", "f_social", "f_life", "f_participation",
		"mf_work", "mf_social", "mf_selfcare", "af_work", "af_social")
	if n == 0 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{
		"intrusive thoughts or repetitive actions",
		"control or ordering urges",
		fmt.Sprintf("moderate impairment on %d functioning item(s)", n),
	}}
}

// PsychosisCluster needs at least two perception/reality-testing items at >= 2.
func PsychosisCluster(a domain.AnswerSet) Match {
	n, hit := countAtLeast(a, 2, "ps_unusual", "ps_paranoia", "ps_beliefs", "ps_thought")
	if n < 2 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{"elevated items: " + strings.Join(hit, ", ")}}
}

// BipolarCluster needs at least three elevated-phase items at >= 3.
func BipolarCluster(a domain.AnswerSet) Match {
	n, hit := countAtLeast(a, 3, "bp_sleepneed", "bp_activity", "bp_talk", "bp_ideas", "bp_risk")
	if n < 3 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{"frequent elevated-phase signs: " + strings.Join(hit, ", ")}}
}

// ADHDCluster needs at least four of the six screening items at >= 3.
func ADHDCluster(a domain.AnswerSet) Match {
	n, _ := countAtLeast(a, 3, "ad_inattn", "ad_organize", "ad_restless", "ad_impulse", "ad_wait", "ad_finish")
	if n < 4 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{fmt.Sprintf("%d of 6 attention/impulsivity items often or more", n)}}
}

// EatingCluster needs two eating items at >= 3, or compensation at >= 2.
func EatingCluster(a domain.AnswerSet) Match {
	n, hit := countAtLeast(a, 3, "e_restrict", "e_binge", "e_compensate", "e_bodyimage")
	compensates := atLeast(a, "e_compensate", 2)
	if n < 2 && !compensates {
		return Match{}
	}
	var ev []string
	if n >= 2 {
		ev = append(ev, "frequent items: "+strings.Join(hit, ", "))
	}
	if compensates {
		ev = append(ev, "compensatory behaviour reported")
	}
	return Match{Matched: true, Evidence: ev}
}

// SubstanceCluster flags frequent binge drinking, frequent drinking or any regular
// non-prescribed substance use.
func SubstanceCluster(a domain.AnswerSet) Match {
	var ev []string
	if atLeast(a, "s_binge", 3) {
		ev = append(ev, "binge drinking two or more times a week")
	}
	if atLeast(a, "s_alc", 4) {
		ev = append(ev, "alcohol four or more times a week")
	}
	if atLeast(a, "s_drugs", 2) {
		ev = append(ev, "non-prescribed substances several times a month")
	}
	return Match{Matched: len(ev) > 0, Evidence: ev}
}

// DissociationCluster needs two dissociation items at >= 3.
func DissociationCluster(a domain.AnswerSet) Match {
	n, hit := countAtLeast(a, 3, "ds_depersonal", "ds_dereal", "ds_memory", "ds_absorb")
	if n < 2 {
		return Match{}
	}
	return Match{Matched: true, Evidence: []string{"frequent dissociative experiences: " + strings.Join(hit, ", ")}}
}
