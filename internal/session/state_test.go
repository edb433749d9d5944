package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/domain"
)

func TestState_Mutations(t *testing.T) {
	var st State
	assert.False(t, st.HasProgress())

	st.SetAnswer("m_down", 2)
	st.Skip("m_sleep")
	assert.True(t, st.HasProgress())

	v, ok := st.Answers.Numeric("m_down")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.True(t, st.Answers.IsSkipped("m_sleep"))

	st.Clear("m_down")
	st.Clear("m_sleep")
	st.Clear("never")
	assert.False(t, st.HasProgress())

	meds := []domain.MedicationEntry{{Name: "Sertralin", DoseMgPerDay: 50}}
	st.SetMedications(meds)
	meds[0].Name = "changed"
	assert.Equal(t, "Sertralin", st.Medications[0].Name)
	assert.True(t, st.HasProgress())
}

func TestState_HasProgress(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"empty", NewState(), false},
		{"started", State{Started: true}, true},
		{"moved on", State{Idx: 3}, true},
		{"answered", State{Answers: domain.AnswerSet{"a": domain.ValueOf(0)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.HasProgress())
		})
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	st := NewState()
	st.SetAnswer("a", 1)
	st.SetMedications([]domain.MedicationEntry{{Name: "x"}})

	c := st.Clone()
	c.SetAnswer("a", 3)
	c.Medications[0].Name = "y"

	v, _ := st.Answers.Numeric("a")
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "x", st.Medications[0].Name)
}

func TestState_JSONRoundTrip(t *testing.T) {
	st := State{Started: true, Idx: 5, Answers: domain.AnswerSet{}}
	st.SetAnswer("m_down", 3)
	st.Skip("a_fear")
	st.SetMedications([]domain.MedicationEntry{{Name: "Lorazepam", DoseMgPerDay: 2}})

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var out State
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, st, out)
}

func TestState_DecodeLegacyShapes(t *testing.T) {
	legacy := `{
		"started": true,
		"idx": "7",
		"answers": {
			"m_down": 2,
			"ocd_check": null,
			"eat_binge": true,
			"meds_list": [{"name": "Sertralin", "doseMgPerDay": "50"}]
		}
	}`

	var st State
	require.NoError(t, json.Unmarshal([]byte(legacy), &st))

	assert.True(t, st.Started)
	assert.Equal(t, 0, st.Idx, "non-numeric idx is ignored")
	v, ok := st.Answers.Numeric("m_down")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.True(t, st.Answers.IsSkipped("ocd_check"))
	v, _ = st.Answers.Numeric("eat_binge")
	assert.Equal(t, 1.0, v)

	_, present := st.Answers["meds_list"]
	assert.False(t, present)
	require.Len(t, st.Medications, 1)
	assert.Equal(t, "Sertralin", st.Medications[0].Name)
	assert.Equal(t, 50.0, st.Medications[0].DoseMgPerDay)
}

func TestState_DecodeEdgeCases(t *testing.T) {
	var st State
	require.NoError(t, json.Unmarshal([]byte(`{"idx": -4, "answers": null}`), &st))
	assert.Equal(t, 0, st.Idx)
	assert.NotNil(t, st.Answers)
	assert.False(t, st.HasProgress())

	require.NoError(t, json.Unmarshal([]byte(`{"idx": 2.0}`), &st))
	assert.Equal(t, 2, st.Idx)

	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &st))
}
