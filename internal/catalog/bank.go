package catalog

import "github.com/neuroscope-selfcheck/internal/domain"

var (
	freq03   = Range{Min: 0, Max: 3}
	freq04   = Range{Min: 0, Max: 4}
	impact15 = Range{Min: 1, Max: 5}
	yesNo    = Range{Min: 0, Max: 1}
)

func scale(id, title string, r Range, p domain.Polarity, uiMax int, items []Item) Module {
	return Module{ID: id, Kind: domain.KindScale, Title: title, Items: items, Range: r, Polarity: p, UIMax: uiMax}
}

func step(id string, kind domain.ModuleKind, title string) Module {
	return Module{ID: id, Kind: kind, Title: title}
}

// DefaultModules returns the questionnaire flow in presentation order.
func DefaultModules() []Module {
	worse, better := domain.HigherIsWorse, domain.HigherIsBetter

	return []Module{
		step("intro", domain.KindIntro, "Welcome"),

		scale("mood", "Mood & drive", freq03, worse, 27, PHQ9Definition().Items),
		scale("mood_func", "Functioning (mood)", impact15, worse, 12,
			plain("mf_work", "mf_social", "mf_selfcare")),

		scale("anx", "Tension & worry", freq03, worse, 21, GAD7Definition().Items),
		scale("anx_func", "Functioning (anxiety)", impact15, worse, 8,
			plain("af_work", "af_social")),

		scale("ptsd", "Stress & trauma after-effects", freq04, worse, 16, PCL5Definition().Items),
		{
			ID: "ptsd_safety", Kind: domain.KindYesNo, Title: "Safety & stabilisation",
			Items: plain("safe_now"), Range: yesNo,
		},

		scale("ocd", "Compulsions & impulses", freq04, worse, 8,
			plain("o_obs", "o_comp", "o_control", "o_impuls")),
		scale("self", "Self-image & identity", freq04, better, 16,
			plain("s_worth", "s_coherence", "s_goals", "s_selfcomp")),
		scale("rel", "Relationships & attachment", freq04, better, 16,
			plain("r_trust", "r_closeness", "r_conflict", "r_support")),
		scale("som", "Physical stress reactions", freq04, worse, 8,
			plain("k_pain", "k_fatigue", "k_gi", "k_veget")),
		scale("cog", "Thought patterns", freq04, worse, 8,
			plain("c_rumination", "c_catastrophe", "c_blackwhite", "c_mindread")),
		scale("res", "Resilience & resources", freq04, better, 20,
			plain("res_energy", "res_calm", "res_interest", "res_active", "res_meaning")),
		scale("func", "Everyday functioning", impact15, worse, 24,
			plain("f_understand", "f_mobility", "f_selfcare", "f_social", "f_life", "f_participation")),
		scale("sleep", "Sleep quality", freq04, worse, 16,
			plain("sl_latency", "sl_maintenance", "sl_dayfatigue", "sl_rhythm")),
		scale("adhd", "Attention & impulsivity", freq04, worse, 24,
			plain("ad_inattn", "ad_organize", "ad_restless", "ad_impulse", "ad_wait", "ad_finish")),
		scale("diss", "Dissociation & estrangement", freq04, worse, 16,
			plain("ds_depersonal", "ds_dereal", "ds_memory", "ds_absorb")),
		scale("eat", "Eating & body image", freq04, worse, 16,
			plain("e_restrict", "e_binge", "e_compensate", "e_bodyimage")),
		scale("bp", "Elevated phases", freq04, worse, 20,
			plain("bp_sleepneed", "bp_activity", "bp_talk", "bp_ideas", "bp_risk")),
		scale("psy", "Perception & reality testing", freq04, worse, 16,
			plain("ps_unusual", "ps_paranoia", "ps_beliefs", "ps_thought")),
		scale("stress", "Current strain", freq04, worse, 12, []Item{
			{Key: "st_role"},
			{Key: "st_fin"},
			{Key: "st_social", Domain: "rel", Reverse: true},
			{Key: "st_health"},
		}),
		scale("pain", "Pain & interference", impact15, worse, 16,
			plain("p_intensity", "p_interfere", "p_activity", "p_sleep")),
		scale("sub", "Substance use", freq04, worse, 12,
			plain("s_alc", "s_binge", "s_drugs")),

		step("meds", domain.KindMedications, "Medication"),

		step("tol", domain.KindInteractive, "Tower of London (planning)"),
		step("nback", domain.KindInteractive, "Working memory (1-back)"),
		step("stroop", domain.KindInteractive, "Inhibition (Stroop)"),
		step("trails", domain.KindInteractive, "Attention (Trails A)"),

		step("summary", domain.KindSummary, "Summary"),
	}
}
