package heuristics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// MedClass is a coarse medication class.
type MedClass string

const (
	ClassSSRI   MedClass = "SSRI"
	ClassSNRI   MedClass = "SNRI"
	ClassBenzo  MedClass = "BENZO"
	ClassStim   MedClass = "STIM"
	ClassAPS    MedClass = "APS"
	ClassMS     MedClass = "MS"
	ClassZDrug  MedClass = "ZDRUG"
	ClassOpioid MedClass = "OPIOID"
	ClassOther  MedClass = "OTHER"
)

// IsValid validates the medication class.
func (c MedClass) IsValid() bool {
	switch c {
	case ClassSSRI, ClassSNRI, ClassBenzo, ClassStim, ClassAPS, ClassMS, ClassZDrug, ClassOpioid, ClassOther:
		return true
	default:
		return false
	}
}

// DoseRange is a typical daily dose window in mg. It is a plausibility aid only.
type DoseRange struct {
	Min float64
	Max float64
}

// MedClasses lists known substances per class.
var MedClasses = map[MedClass][]string{
	ClassSSRI:   {"Sertralin", "Escitalopram", "Citalopram", "Fluoxetin", "Paroxetin", "Fluvoxamin"},
	ClassSNRI:   {"Venlafaxin", "Duloxetin", "Desvenlafaxin"},
	ClassBenzo:  {"Lorazepam", "Diazepam", "Alprazolam", "Clonazepam", "Oxazepam"},
	ClassStim:   {"Methylphenidat", "Lisdexamfetamin", "Dexamfetamin"},
	ClassAPS:    {"Quetiapin", "Olanzapin", "Risperidon", "Aripiprazol", "Ziprasidon", "Haloperidol"},
	ClassMS:     {"Lithium", "Valproat", "Lamotrigin", "Carbamazepin"},
	ClassZDrug:  {"Zolpidem", "Zopiclon"},
	ClassOpioid: {"Tilidin", "Tramadol", "Codein", "Morphin", "Oxycodon", "Hydromorphon", "Fentanyl"},
	ClassOther:  {"Amitriptylin", "Mirtazapin", "Trazodon", "Agomelatin"},
}

// DoseRanges are typical daily doses per class.
var DoseRanges = map[MedClass]DoseRange{
	ClassSSRI:   {10, 200},
	ClassSNRI:   {20, 300},
	ClassBenzo:  {0.25, 10},
	ClassStim:   {5, 100},
	ClassAPS:    {1, 800},
	ClassMS:     {25, 1500},
	ClassZDrug:  {2.5, 20},
	ClassOpioid: {5, 400},
	ClassOther:  {1, 200},
}

// DiazepamEquivalents is mg diazepam per mg of substance. Coarse rules of thumb for
// context only.
var DiazepamEquivalents = map[string]float64{
	"Lorazepam":  5,
	"Alprazolam": 20,
	"Clonazepam": 20,
	"Diazepam":   1,
	"Oxazepam":   0.5,
}

// Penalty reasons raised by medication context
const (
	PenaltySedatives       = "sedative medication may mask anxiety and sleep symptoms"
	PenaltyAntidepressants = "antidepressant treatment may lower current symptom levels"
	PenaltyAntipsychotics  = "antipsychotic treatment may lower psychotic or manic symptoms"
	PenaltyStimulants      = "stimulant treatment may lower attention symptoms"
	PenaltyMoodStabilizers = "mood stabiliser treatment may lower elevated-phase symptoms"
	PenaltyOpioids         = "opioid use may affect mood, sleep and substance items"
	PenaltyStraightLining  = "identical answers across long runs of items"
	PenaltyLowVariance     = "very little variation across all answers"
	PenaltyLowConsistency  = "overlapping questions were answered inconsistently"
)

var classByName = func() map[string]MedClass {
	out := make(map[string]MedClass)
	for cls, names := range MedClasses {
		for _, n := range names {
			out[strings.ToLower(n)] = cls
		}
	}
	return out
}()

// ClassOf resolves a substance name, falling back to the class recorded on the entry.
func ClassOf(m domain.MedicationEntry) (MedClass, bool) {
	if cls, ok := classByName[strings.ToLower(strings.TrimSpace(m.Name))]; ok {
		return cls, true
	}
	cls := MedClass(strings.ToUpper(strings.TrimSpace(m.Class)))
	return cls, cls.IsValid()
}

// canonicalName returns the table spelling of a known substance.
func canonicalName(name string) string {
	for canon := range DiazepamEquivalents {
		if strings.EqualFold(canon, strings.TrimSpace(name)) {
			return canon
		}
	}
	return name
}

// AnalyzeMedications derives the medication context and advisory notes.
func AnalyzeMedications(meds []domain.MedicationEntry) (domain.MedicationContext, []string) {
	ctx := domain.MedicationContext{}
	var notes []string
	classes := make(map[MedClass]bool)

	for _, m := range meds {
		if strings.TrimSpace(m.Name) == "" && strings.TrimSpace(m.Class) == "" {
			continue
		}
		cls, ok := ClassOf(m)
		if !ok {
			ctx.UnknownMedications = append(ctx.UnknownMedications, m.Name)
			continue
		}
		classes[cls] = true

		if eq, ok := DiazepamEquivalents[canonicalName(m.Name)]; ok && m.DoseMgPerDay > 0 {
			ctx.BenzoDiazepamEqMg += eq * m.DoseMgPerDay
		}
		if r, ok := DoseRanges[cls]; ok && m.DoseMgPerDay > 0 && (m.DoseMgPerDay < r.Min || m.DoseMgPerDay > r.Max) {
			notes = append(notes, fmt.Sprintf("%s: %.4g mg/day is outside the typical range of %.4g-%.4g mg for %s",
				m.Name, m.DoseMgPerDay, r.Min, r.Max, cls))
		}
		if cls == ClassBenzo && m.DurationWeeks > 4 {
			notes = append(notes, fmt.Sprintf("%s taken for %.0f weeks; longer benzodiazepine use can blunt anxiety ratings and carries dependence risk",
				m.Name, m.DurationWeeks))
		}
	}

	for cls := range classes {
		ctx.Classes = append(ctx.Classes, string(cls))
	}
	sort.Strings(ctx.Classes)
	ctx.BenzoDiazepamEqMg = math.Round(ctx.BenzoDiazepamEqMg*10) / 10

	ctx.HasSedatives = classes[ClassBenzo] || classes[ClassZDrug]
	ctx.HasAntidepressants = classes[ClassSSRI] || classes[ClassSNRI] || classes[ClassOther]
	ctx.HasAntipsychotics = classes[ClassAPS]
	ctx.HasStimulants = classes[ClassStim]
	ctx.HasMoodStabilizers = classes[ClassMS]
	ctx.HasOpioids = classes[ClassOpioid]

	if ctx.BenzoDiazepamEqMg > 0 {
		notes = append(notes, fmt.Sprintf("Benzodiazepine load about %.1f mg diazepam equivalent per day.", ctx.BenzoDiazepamEqMg))
	}
	if ctx.HasSedatives {
		notes = append(notes, "Sedating medication can reduce reported anxiety and sleep problems.")
	}
	if ctx.HasAntidepressants {
		notes = append(notes, "Ongoing antidepressant treatment: current scores may reflect a treated state.")
	}
	if ctx.HasAntipsychotics {
		notes = append(notes, "Antipsychotic treatment: perception and elevated-phase items may be dampened.")
	}
	if ctx.HasStimulants {
		notes = append(notes, "Stimulant treatment: attention screening reflects the medicated state.")
	}
	if ctx.HasOpioids {
		notes = append(notes, "Opioid use can affect mood, sleep and pain ratings.")
	}
	if len(ctx.UnknownMedications) > 0 {
		notes = append(notes, "Some medications could not be classified: "+strings.Join(ctx.UnknownMedications, ", "))
	}

	return ctx, notes
}

// MedicationPenalty identifies which medication contexts reduce a hint's confidence.
type MedicationPenalty int

const (
	MedSedatives MedicationPenalty = iota
	MedAntidepressants
	MedAntipsychotics
	MedStimulants
	MedMoodStabilizers
	MedOpioids
)

// applies reports whether the context contains the medication kind, with its reason.
func (p MedicationPenalty) applies(ctx domain.MedicationContext) (bool, string) {
	switch p {
	case MedSedatives:
		return ctx.HasSedatives, PenaltySedatives
	case MedAntidepressants:
		return ctx.HasAntidepressants, PenaltyAntidepressants
	case MedAntipsychotics:
		return ctx.HasAntipsychotics, PenaltyAntipsychotics
	case MedStimulants:
		return ctx.HasStimulants, PenaltyStimulants
	case MedMoodStabilizers:
		return ctx.HasMoodStabilizers, PenaltyMoodStabilizers
	case MedOpioids:
		return ctx.HasOpioids, PenaltyOpioids
	default:
		return false, ""
	}
}
