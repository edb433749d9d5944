package domain

import "time"

// MedicationEntry is one row of the self-reported medication list.
type MedicationEntry struct {
	Name          string  `json:"name"`
	Class         string  `json:"class,omitempty"`
	DoseMgPerDay  float64 `json:"doseMgPerDay,omitempty"`
	FreqPerDay    float64 `json:"freqPerDay,omitempty"`
	DurationWeeks float64 `json:"durationWeeks,omitempty"`
}

// TaskMetrics carries the raw outputs of the interactive cognitive tasks.
// The values are passed through untouched; nil means the task was not completed.
type TaskMetrics struct {
	TolReached   *float64 `json:"tol_reached"`
	TolMoves     *float64 `json:"tol_moves"`
	TolEff       *float64 `json:"tol_eff"`
	NBackHits    *float64 `json:"nback_hits"`
	NBackFalse   *float64 `json:"nback_false"`
	NBackAcc     *float64 `json:"nback_acc"`
	StroopAcc    *float64 `json:"stroop_acc"`
	StroopTrials *float64 `json:"stroop_trials"`
	TrailsMs     *float64 `json:"trails_ms"`
	TrailsErr    *float64 `json:"trails_err"`
}

// TaskMetricKeys lists the answer keys the interactive tasks write.
var TaskMetricKeys = []string{
	"tol_reached", "tol_moves", "tol_eff",
	"nback_hits", "nback_false", "nback_acc",
	"stroop_acc", "stroop_trials",
	"trails_ms", "trails_err",
}

// TaskMetricsFrom copies the task outputs out of an answer set.
func TaskMetricsFrom(a AnswerSet) TaskMetrics {
	get := func(k string) *float64 {
		if v, ok := a.Numeric(k); ok {
			return FloatPtr(v)
		}
		return nil
	}
	return TaskMetrics{
		TolReached:   get("tol_reached"),
		TolMoves:     get("tol_moves"),
		TolEff:       get("tol_eff"),
		NBackHits:    get("nback_hits"),
		NBackFalse:   get("nback_false"),
		NBackAcc:     get("nback_acc"),
		StroopAcc:    get("stroop_acc"),
		StroopTrials: get("stroop_trials"),
		TrailsMs:     get("trails_ms"),
		TrailsErr:    get("trails_err"),
	}
}

// Hint is a derived, probabilistic observation. It is never a diagnosis.
type Hint struct {
	Code       string   `json:"code"`
	Label      string   `json:"label"`
	Confidence int      `json:"confidence"`
	Rationale  []string `json:"rationale"`
	Penalties  []string `json:"penalties,omitempty"`
}

// MedicationContext summarises how reported medication may affect interpretation.
type MedicationContext struct {
	Classes            []string `json:"classes"`
	BenzoDiazepamEqMg  float64  `json:"benzo_diazepam_eq_mg"`
	UnknownMedications []string `json:"unknown,omitempty"`
	HasSedatives       bool     `json:"has_sedatives"`
	HasAntipsychotics  bool     `json:"has_antipsychotics"`
	HasStimulants      bool     `json:"has_stimulants"`
	HasAntidepressants bool     `json:"has_antidepressants"`
	HasMoodStabilizers bool     `json:"has_mood_stabilizers"`
	HasOpioids         bool     `json:"has_opioids"`
}

// QualityFlags describe response patterns that reduce trust in the answers.
type QualityFlags struct {
	StraightLining []string `json:"straight_lining,omitempty"`
	LowVariance    bool     `json:"low_variance"`
	Consistency    *float64 `json:"consistency,omitempty"`
}

// Flagged reports whether any quality issue was detected.
func (q QualityFlags) Flagged() bool {
	return len(q.StraightLining) > 0 || q.LowVariance
}

// Report is the derived, never persisted result of one assessment.
type Report struct {
	Progress   int `json:"progress"`
	Completion int `json:"completion"`

	Mood        ScoreResult `json:"mood"`
	Anx         ScoreResult `json:"anx"`
	Ptsd        ScoreResult `json:"ptsd"`
	PtsdTrueRaw *int        `json:"ptsd_true_raw"`

	OCD    ModuleScoreResult `json:"ocd"`
	Self   ModuleScoreResult `json:"self"`
	Rel    ModuleScoreResult `json:"rel"`
	Som    ModuleScoreResult `json:"som"`
	Cog    ModuleScoreResult `json:"cog"`
	Res    ModuleScoreResult `json:"res"`
	Func   ModuleScoreResult `json:"func"`
	Sleep  ModuleScoreResult `json:"sleep"`
	ADHD   ModuleScoreResult `json:"adhd"`
	Diss   ModuleScoreResult `json:"diss"`
	Eat    ModuleScoreResult `json:"eat"`
	BP     ModuleScoreResult `json:"bp"`
	Psy    ModuleScoreResult `json:"psy"`
	Stress ModuleScoreResult `json:"stress"`
	Pain   ModuleScoreResult `json:"pain"`
	Sub    ModuleScoreResult `json:"sub"`

	RedFlags          []string          `json:"redFlags"`
	Hints             []Hint            `json:"hints"`
	MedicationNotes   []string          `json:"medNotes"`
	MedicationContext MedicationContext `json:"medContext"`
	Quality           QualityFlags      `json:"quality"`
	Tasks             TaskMetrics       `json:"tasks"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// DomainIDs lists the secondary domains in report order.
var DomainIDs = []string{
	"ocd", "self", "rel", "som", "cog", "res", "func", "sleep",
	"adhd", "diss", "eat", "bp", "psy", "stress", "pain", "sub",
}

func (r *Report) domainRef(id string) *ModuleScoreResult {
	switch id {
	case "ocd":
		return &r.OCD
	case "self":
		return &r.Self
	case "rel":
		return &r.Rel
	case "som":
		return &r.Som
	case "cog":
		return &r.Cog
	case "res":
		return &r.Res
	case "func":
		return &r.Func
	case "sleep":
		return &r.Sleep
	case "adhd":
		return &r.ADHD
	case "diss":
		return &r.Diss
	case "eat":
		return &r.Eat
	case "bp":
		return &r.BP
	case "psy":
		return &r.Psy
	case "stress":
		return &r.Stress
	case "pain":
		return &r.Pain
	case "sub":
		return &r.Sub
	default:
		return nil
	}
}

// SetDomain stores the result for a secondary domain. It reports false for unknown ids.
func (r *Report) SetDomain(id string, res ModuleScoreResult) bool {
	ref := r.domainRef(id)
	if ref == nil {
		return false
	}
	*ref = res
	return true
}

// Domains returns the secondary domain results keyed by domain id.
func (r *Report) Domains() map[string]ModuleScoreResult {
	out := make(map[string]ModuleScoreResult, len(DomainIDs))
	for _, id := range DomainIDs {
		out[id] = *r.domainRef(id)
	}
	return out
}
