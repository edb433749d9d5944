package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnmarshalJSON accepts numeric fields as numbers, numeric strings or empty strings.
// Rows entered through a form keep half-filled values as strings.
func (m *MedicationEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string          `json:"name"`
		Class         string          `json:"class"`
		DoseMgPerDay  json.RawMessage `json:"doseMgPerDay"`
		FreqPerDay    json.RawMessage `json:"freqPerDay"`
		DurationWeeks json.RawMessage `json:"durationWeeks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode medication: %w", err)
	}

	dose, err := looseNumber(raw.DoseMgPerDay)
	if err != nil {
		return fmt.Errorf("doseMgPerDay: %w", err)
	}
	freq, err := looseNumber(raw.FreqPerDay)
	if err != nil {
		return fmt.Errorf("freqPerDay: %w", err)
	}
	weeks, err := looseNumber(raw.DurationWeeks)
	if err != nil {
		return fmt.Errorf("durationWeeks: %w", err)
	}

	*m = MedicationEntry{
		Name:          strings.TrimSpace(raw.Name),
		Class:         strings.TrimSpace(raw.Class),
		DoseMgPerDay:  dose,
		FreqPerDay:    freq,
		DurationWeeks: weeks,
	}
	return nil
}

func looseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
