package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

const weightsDoc = `{
	"PHQ9X": {"intercept": 0.4, "weights": {"mf_work": 0.5, "mf_social": 0.25}},
	"GAD7X": {"intercept": -1},
	"modules": {"func": {"f_life": 2}}
}`

func TestCalibratedRaw_PassThroughWithoutTable(t *testing.T) {
	cal := NewCalibrator(nil)

	got := cal.CalibratedRaw(domain.IntPtr(12), catalog.FamilyPHQ9, domain.AnswerSet{"mf_work": domain.ValueOf(5)})

	require.NotNil(t, got)
	assert.Equal(t, 12, *got)
}

func TestCalibratedRaw_NilBase(t *testing.T) {
	table, err := ParseWeights([]byte(weightsDoc))
	require.NoError(t, err)

	assert.Nil(t, NewCalibrator(table).CalibratedRaw(nil, catalog.FamilyPHQ9, domain.AnswerSet{}))
}

func TestCalibratedRaw_LinearAdjustment(t *testing.T) {
	table, err := ParseWeights([]byte(weightsDoc))
	require.NoError(t, err)
	cal := NewCalibrator(table)

	answers := domain.AnswerSet{
		"mf_work":   domain.ValueOf(4),
		"mf_social": domain.Skip(),
	}

	// 10 + 0.4 + 0.5*4 = 12.4
	got := cal.CalibratedRaw(domain.IntPtr(10), catalog.FamilyPHQ9, answers)
	require.NotNil(t, got)
	assert.Equal(t, 12, *got)

	got = cal.CalibratedRaw(domain.IntPtr(10), catalog.FamilyGAD7, answers)
	assert.Equal(t, 9, *got)

	got = cal.CalibratedRaw(domain.IntPtr(10), catalog.FamilyPCL5, answers)
	assert.Equal(t, 10, *got, "unknown family passes through")
}

func TestLoadWeights(t *testing.T) {
	dir := t.TempDir()

	empty, err := LoadWeights(filepath.Join(dir, "weights.json"))
	require.NoError(t, err)
	assert.Empty(t, empty.Families)
	assert.Nil(t, empty.ModuleWeights("func"))

	path := filepath.Join(dir, "weights.json")
	require.NoError(t, os.WriteFile(path, []byte(weightsDoc), 0o600))

	table, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Len(t, table.Families, 2)
	assert.Equal(t, 2.0, table.ModuleWeights("func")["f_life"])

	require.NoError(t, os.WriteFile(path, []byte(`{"PHQ9X": 3}`), 0o600))
	_, err = LoadWeights(path)
	assert.Error(t, err)
}
