package quiz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ComputeFingerprint derives the tamper-evidence digest of an instance:
// canonical key-sorted JSON of the quiz id, the selected question ids in
// instance order, and the option maps in the same order, hashed with
// SHA-256. Pure: identical inputs always produce the identical digest.
func ComputeFingerprint(inst Instance) string {
	ids := inst.QuestionIDs
	if ids == nil {
		ids = []string{}
	}
	mappings := make([][]int, 0, len(ids))
	for _, qid := range ids {
		m := inst.OptionMaps[qid]
		if m == nil {
			m = []int{}
		}
		mappings = append(mappings, m)
	}
	// map keys are sorted by encoding/json, which keeps the form canonical.
	payload := map[string]interface{}{
		"quiz_id":      inst.QuizID,
		"question_ids": ids,
		"mappings":     mappings,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		// Only reachable with a non-serializable payload, which the shapes
		// above cannot produce.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ValidateIntegrity recomputes the digest of the attempt's stored instance
// and compares it to the expected fingerprint (e.g. the one recorded at
// generation). False on a blank expectation: an attempt without a recorded
// fingerprint cannot vouch for itself.
func ValidateIntegrity(a Attempt, expected string) bool {
	if expected == "" {
		return false
	}
	return ComputeFingerprint(a.Instance) == expected
}
