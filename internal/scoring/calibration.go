package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// modulesKey is the section of the weights document holding generic module weights.
const modulesKey = "modules"

// FamilyWeights is one linear calibration model.
type FamilyWeights struct {
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`
}

// WeightsTable holds the calibration families and the per-module item weights.
// It is read once at startup and treated as read-only afterwards.
type WeightsTable struct {
	Families map[string]FamilyWeights
	Modules  map[string]map[string]float64
}

// ParseWeights decodes a weights document. Every top-level key except "modules"
// is a calibration family.
func ParseWeights(data []byte) (*WeightsTable, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse weights: %w", err)
	}

	table := &WeightsTable{
		Families: make(map[string]FamilyWeights),
		Modules:  make(map[string]map[string]float64),
	}
	for key, body := range raw {
		if key == modulesKey {
			if err := json.Unmarshal(body, &table.Modules); err != nil {
				return nil, fmt.Errorf("failed to parse module weights: %w", err)
			}
			continue
		}
		var fw FamilyWeights
		if err := json.Unmarshal(body, &fw); err != nil {
			return nil, fmt.Errorf("failed to parse weights for %s: %w", key, err)
		}
		table.Families[key] = fw
	}
	return table, nil
}

// LoadWeights reads a weights file. A missing file yields an empty table.
func LoadWeights(path string) (*WeightsTable, error) {
	if path == "" {
		return &WeightsTable{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &WeightsTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	return ParseWeights(data)
}

// ModuleWeights returns the item weights configured for module, or nil.
func (t *WeightsTable) ModuleWeights(module string) map[string]float64 {
	if t == nil {
		return nil
	}
	return t.Modules[module]
}

// Calibrator applies optional linear adjustments to core scale scores.
type Calibrator struct {
	table *WeightsTable
}

// NewCalibrator creates a calibrator. A nil table disables calibration.
func NewCalibrator(table *WeightsTable) *Calibrator {
	return &Calibrator{table: table}
}

// CalibratedRaw returns round(base + intercept + sum(w*v)) over answered items.
// A nil base stays nil; an unknown family returns base unchanged.
func (c *Calibrator) CalibratedRaw(base *int, family string, answers domain.AnswerSet) *int {
	if base == nil {
		return nil
	}
	if c == nil || c.table == nil {
		return domain.IntPtr(*base)
	}
	fw, ok := c.table.Families[family]
	if !ok {
		return domain.IntPtr(*base)
	}

	adj := fw.Intercept
	for key, w := range fw.Weights {
		if v, ok := answers.Numeric(key); ok {
			adj += w * v
		}
	}
	return domain.IntPtr(roundHalfUp(float64(*base) + adj))
}
