// Package session keeps the persisted questionnaire progress: whether the user has
// started, the current module index, the answer set and the medication list.
package session

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// Storage keys
const (
	StateKey       = "psyche_state_v1"
	LegacyStateKey = "psyche_state"
)

// legacyMedicationsKey is where older versions kept the medication list, inside answers.
const legacyMedicationsKey = "meds_list"

// State is the unit persisted under StateKey.
type State struct {
	Started     bool                     `json:"started"`
	Idx         int                      `json:"idx"`
	Answers     domain.AnswerSet         `json:"answers"`
	Medications []domain.MedicationEntry `json:"medications,omitempty"`
}

// NewState returns an empty, not yet started state.
func NewState() State {
	return State{Answers: domain.AnswerSet{}}
}

// UnmarshalJSON tolerates the shapes written by older versions: a non-numeric idx is
// ignored and a medication list stored under answers.meds_list is lifted out.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw struct {
		Started     bool                     `json:"started"`
		Idx         json.RawMessage          `json:"idx"`
		Answers     json.RawMessage          `json:"answers"`
		Medications []domain.MedicationEntry `json:"medications"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode session state: %w", err)
	}

	out := State{
		Started:     raw.Started,
		Answers:     domain.AnswerSet{},
		Medications: raw.Medications,
	}

	var idx float64
	if err := json.Unmarshal(raw.Idx, &idx); err == nil && !math.IsNaN(idx) && idx > 0 {
		out.Idx = int(idx)
	}

	if len(raw.Answers) > 0 && string(raw.Answers) != "null" {
		if err := json.Unmarshal(raw.Answers, &out.Answers); err != nil {
			return err
		}
		if len(out.Medications) == 0 {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(raw.Answers, &nested); err == nil {
				if list, ok := nested[legacyMedicationsKey]; ok {
					var meds []domain.MedicationEntry
					if err := json.Unmarshal(list, &meds); err == nil {
						out.Medications = meds
					}
				}
			}
		}
	}

	*s = out
	return nil
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.Answers != nil {
		out.Answers = s.Answers.Clone()
	} else {
		out.Answers = domain.AnswerSet{}
	}
	out.Medications = append([]domain.MedicationEntry(nil), s.Medications...)
	return out
}

// SetAnswer records a numeric answer.
func (s *State) SetAnswer(key string, value float64) {
	s.ensure()
	s.Answers[key] = domain.ValueOf(value)
}

// Skip records an explicit skip, distinct from never answered.
func (s *State) Skip(key string) {
	s.ensure()
	s.Answers[key] = domain.Skip()
}

// Clear forgets the answer for key.
func (s *State) Clear(key string) {
	delete(s.Answers, key)
}

// SetMedications replaces the medication list.
func (s *State) SetMedications(meds []domain.MedicationEntry) {
	s.Medications = append([]domain.MedicationEntry(nil), meds...)
}

// HasProgress reports whether there is anything worth persisting.
func (s State) HasProgress() bool {
	return s.Started || s.Idx > 0 || len(s.Answers) > 0 || len(s.Medications) > 0
}

func (s *State) ensure() {
	if s.Answers == nil {
		s.Answers = domain.AnswerSet{}
	}
}
