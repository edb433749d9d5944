package catalog

// DSM-5 symptom clusters used to tag PCL-5 items
const (
	ClusterIntrusion = "B"
	ClusterAvoidance = "C"
	ClusterNegative  = "D"
	ClusterArousal   = "E"
)

// Calibration families applied on top of the core scales
const (
	FamilyPHQ9 = "PHQ9X"
	FamilyGAD7 = "GAD7X"
	FamilyPCL5 = "PCL5X"
)

func screening(v int) *int {
	return &v
}

func plain(keys ...string) []Item {
	items := make([]Item, len(keys))
	for i, k := range keys {
		items[i] = Item{Key: k}
	}
	return items
}

func cluster(c string, keys ...string) []Item {
	items := plain(keys...)
	for i := range items {
		items[i].Cluster = c
	}
	return items
}

// PHQ9Definition is the nine-item depression scale (0..27).
// Bands: 0-4 minimal, 5-9 mild, 10-14 moderate, 15-19 moderately severe, 20-27 severe.
func PHQ9Definition() MetricDefinition {
	return MetricDefinition{
		ID:     PHQ9,
		Family: FamilyPHQ9,
		Items: plain(
			"m_interest", "m_down", "m_sleep", "m_energy", "m_appetite",
			"m_selfworth", "m_focus", "m_psycho", "m_suicide",
		),
		Range:   Range{Min: 0, Max: 3},
		Cutoffs: Cutoffs{Thresholds: []int{5, 10, 15, 20}},
		TrueMax: 27,
		UIMax:   27,
	}
}

// GAD7Definition is the seven-item anxiety scale (0..21), cutoffs 5/10/15.
func GAD7Definition() MetricDefinition {
	return MetricDefinition{
		ID:     GAD7,
		Family: FamilyGAD7,
		Items: plain(
			"a_nervous", "a_control", "a_broad", "a_relax",
			"a_restless", "a_irrit", "a_fear",
		),
		Range:   Range{Min: 0, Max: 3},
		Cutoffs: Cutoffs{Thresholds: []int{5, 10, 15}},
		TrueMax: 21,
		UIMax:   21,
	}
}

// PCL5Definition is the twenty-item trauma checklist (0..80) with a screening cutoff.
// The display maximum keeps the legacy 0..16 bar while bands use the true score.
func PCL5Definition() MetricDefinition {
	var items []Item
	items = append(items, cluster(ClusterIntrusion,
		"t_intrusions", "t_nightmares", "t_flashbacks", "t_intrusive_thoughts", "t_fear_of_sleeping")...)
	items = append(items, cluster(ClusterAvoidance,
		"t_avoid", "t_avoidance_of_people")...)
	items = append(items, cluster(ClusterNegative,
		"t_negative", "t_guilt", "t_shame", "t_detachment",
		"t_emotional_numbness", "t_concentration_problems", "t_sleep_disturbance")...)
	items = append(items, cluster(ClusterArousal,
		"t_irritability", "t_hypervigilance", "t_sense_of_danger",
		"t_emotional_outbursts", "t_hyperarousal", "t_panic_attacks")...)

	return MetricDefinition{
		ID:      PCL5,
		Family:  FamilyPCL5,
		Items:   items,
		Range:   Range{Min: 0, Max: 4},
		Cutoffs: Cutoffs{Screening: screening(33)},
		TrueMax: 80,
		UIMax:   16,
	}
}

// DefaultMetrics returns fresh copies of the built-in core scales.
func DefaultMetrics() []MetricDefinition {
	return []MetricDefinition{PHQ9Definition(), GAD7Definition(), PCL5Definition()}
}
