package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// RuleScreenPositive is the only cutoff rule understood for screening scales.
const RuleScreenPositive = "screen_positive_if_score_ge"

// NormBand is one labelled band of a published norm table.
type NormBand struct {
	Min   int    `json:"min"`
	Label string `json:"label,omitempty"`
}

// NormRule is a named cutoff rule.
type NormRule struct {
	Rule  string `json:"rule"`
	Value int    `json:"value"`
}

// NormEntry holds the norms for one metric.
type NormEntry struct {
	Cutoffs     []NormBand `json:"cutoffs,omitempty"`
	CutoffRules []NormRule `json:"cutoff_rules,omitempty"`
}

// Norms maps metric ids to externally supplied cutoffs.
type Norms map[string]NormEntry

// ParseNorms decodes a norms document.
func ParseNorms(data []byte) (*Norms, error) {
	n := Norms{}
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse norms: %w", err)
	}
	return &n, nil
}

// LoadNorms reads a norms file. A missing file yields nil norms and no error.
func LoadNorms(path string) (*Norms, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read norms file: %w", err)
	}
	return ParseNorms(data)
}

// apply returns def with the norm cutoffs for its id, or def unchanged.
// A band starting at zero marks the floor of the scale and is not a threshold.
func (n *Norms) apply(def MetricDefinition) MetricDefinition {
	if n == nil {
		return def
	}
	entry, ok := (*n)[def.ID]
	if !ok {
		return def
	}

	if len(entry.Cutoffs) > 0 {
		var thresholds []int
		for _, b := range entry.Cutoffs {
			if b.Min > 0 {
				thresholds = append(thresholds, b.Min)
			}
		}
		sort.Ints(thresholds)
		def.Cutoffs = Cutoffs{Thresholds: thresholds}
		return def
	}

	for _, r := range entry.CutoffRules {
		if r.Rule == RuleScreenPositive {
			def.Cutoffs = Cutoffs{Screening: screening(r.Value)}
			break
		}
	}
	return def
}
