package quiz

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Selection is the submitted answer for one question: either a single
// option position or a set of positions. The variant is fixed at the JSON
// boundary rather than inferred during grading.
type Selection struct {
	Multi   bool  `json:"-"`
	Indices []int `json:"-"`
}

// Single builds a one-option selection.
func Single(idx int) Selection { return Selection{Indices: []int{idx}} }

// Multiple builds a set selection; indices are deduplicated and sorted.
func Multiple(indices ...int) Selection {
	return Selection{Multi: true, Indices: normalizeSet(indices)}
}

// Valid reports whether the selection is well-formed: a single variant
// carries exactly one non-negative index, a multi variant a (possibly
// empty) set of non-negative indices.
func (s Selection) Valid() bool {
	if !s.Multi && len(s.Indices) != 1 {
		return false
	}
	for _, i := range s.Indices {
		if i < 0 {
			return false
		}
	}
	return true
}

// MarshalJSON writes the wire form used by the catalog's original clients:
// a bare number for single choice, an array for multiple choice.
func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.Multi {
		if len(s.Indices) != 1 {
			return nil, fmt.Errorf("single selection must carry exactly one index, got %d", len(s.Indices))
		}
		return json.Marshal(s.Indices[0])
	}
	if s.Indices == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Indices)
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	var single int
	if err := json.Unmarshal(b, &single); err == nil {
		*s = Single(single)
		return nil
	}
	var multi []int
	if err := json.Unmarshal(b, &multi); err == nil {
		*s = Multiple(multi...)
		return nil
	}
	return fmt.Errorf("%w: selection must be an option index or an array of indices", ErrValidation)
}

func normalizeSet(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
