package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Answer is a single recorded response. A Skipped answer was explicitly passed over
// by the user; it is stored but never contributes to a score.
type Answer struct {
	Value   float64
	Skipped bool
}

// ValueOf returns an answered item.
func ValueOf(v float64) Answer {
	return Answer{Value: v}
}

// Skip returns an explicit skip marker.
func Skip() Answer {
	return Answer{Skipped: true}
}

// AnswerSet maps item keys to answers. A key missing from the map was never answered.
type AnswerSet map[string]Answer

// Numeric returns the value for key when it was answered with a number.
func (a AnswerSet) Numeric(key string) (float64, bool) {
	ans, ok := a[key]
	if !ok || ans.Skipped {
		return 0, false
	}
	return ans.Value, true
}

// IsSkipped reports whether the key holds an explicit skip.
func (a AnswerSet) IsSkipped(key string) bool {
	ans, ok := a[key]
	return ok && ans.Skipped
}

// AnsweredCount counts how many of keys carry a numeric answer.
func (a AnswerSet) AnsweredCount(keys []string) int {
	n := 0
	for _, k := range keys {
		if _, ok := a.Numeric(k); ok {
			n++
		}
	}
	return n
}

// Clone returns a shallow copy that can be modified independently.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the recorded keys in sorted order.
func (a AnswerSet) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes skips as null and answers as numbers.
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]*float64, len(a))
	for k, ans := range a {
		if ans.Skipped {
			raw[k] = nil
			continue
		}
		v := ans.Value
		raw[k] = &v
	}
	return json.Marshal(raw)
}

// UnmarshalJSON accepts numbers, booleans (yes/no items) and null.
// Values of any other shape are ignored so that legacy payloads which stored
// auxiliary data next to the answers still decode.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode answers: %w", err)
	}

	out := make(AnswerSet, len(raw))
	for k, v := range raw {
		trimmed := bytes.TrimSpace(v)
		switch {
		case bytes.Equal(trimmed, []byte("null")):
			out[k] = Skip()
		case bytes.Equal(trimmed, []byte("true")):
			out[k] = ValueOf(1)
		case bytes.Equal(trimmed, []byte("false")):
			out[k] = ValueOf(0)
		default:
			var f float64
			if err := json.Unmarshal(trimmed, &f); err == nil {
				out[k] = ValueOf(f)
			}
		}
	}

	*a = out
	return nil
}
