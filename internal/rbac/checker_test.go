package rbac

import "testing"

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"learner", "attempt:create", true},
		{"learner", "quiz:create", false},
		{"learner", "attempt:view-all", false},
		{"trainer", "quiz:create", true},
		{"trainer", "attempt:view-all", true},
		{"trainer", "attempt:create", false},
		{"admin", "anything:at-all", true},
		{"", "quiz:view", false},
		{"ghost", "quiz:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestWildcardPatterns(t *testing.T) {
	c := NewChecker(map[string][]string{"ops": {"attempt:*"}})
	if !c.Has("ops", "attempt:verify") {
		t.Fatal("prefix wildcard should match")
	}
	if c.Has("ops", "quiz:view") {
		t.Fatal("wildcard must not leak across prefixes")
	}
	if !c.Any("ops", "quiz:view", "attempt:save") {
		t.Fatal("Any should succeed when one permission matches")
	}
}
