package quiz

import "testing"

func sampleInstance() Instance {
	return Instance{
		QuizID:      "z1",
		QuestionIDs: []string{"a", "b"},
		OptionMaps: map[string][]int{
			"a": {1, 0, 2},
			"b": {0, 1},
		},
	}
}

func TestFingerprintIsPure(t *testing.T) {
	inst := sampleInstance()
	if ComputeFingerprint(inst) != ComputeFingerprint(inst) {
		t.Fatal("same instance produced two digests")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := ComputeFingerprint(sampleInstance())

	reordered := sampleInstance()
	reordered.QuestionIDs = []string{"b", "a"}
	if ComputeFingerprint(reordered) == base {
		t.Fatal("question order change not detected")
	}

	remapped := sampleInstance()
	remapped.OptionMaps["a"] = []int{0, 1, 2}
	if ComputeFingerprint(remapped) == base {
		t.Fatal("option map change not detected")
	}

	otherQuiz := sampleInstance()
	otherQuiz.QuizID = "z2"
	if ComputeFingerprint(otherQuiz) == base {
		t.Fatal("quiz id change not detected")
	}
}

func TestFingerprintIgnoresStoredDigest(t *testing.T) {
	inst := sampleInstance()
	inst.Fingerprint = "stale"
	fresh := sampleInstance()
	if ComputeFingerprint(inst) != ComputeFingerprint(fresh) {
		t.Fatal("digest must be computed over content only")
	}
}

func TestValidateIntegrity(t *testing.T) {
	inst := sampleInstance()
	inst.Fingerprint = ComputeFingerprint(inst)
	a := Attempt{Instance: inst}

	if !ValidateIntegrity(a, inst.Fingerprint) {
		t.Fatal("untouched instance must validate")
	}
	if ValidateIntegrity(a, "") {
		t.Fatal("blank expectation must not validate")
	}

	tampered := a
	tampered.Instance.QuestionIDs = []string{"a"}
	if ValidateIntegrity(tampered, inst.Fingerprint) {
		t.Fatal("tampered instance must not validate")
	}
}
