package quiz

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSelectionVariantResolvedAtDecode(t *testing.T) {
	var s Selection
	if err := json.Unmarshal([]byte(`2`), &s); err != nil {
		t.Fatalf("decode single: %v", err)
	}
	if s.Multi || !reflect.DeepEqual(s.Indices, []int{2}) {
		t.Fatalf("got %+v, want single index 2", s)
	}

	if err := json.Unmarshal([]byte(`[2,0,2]`), &s); err != nil {
		t.Fatalf("decode multi: %v", err)
	}
	if !s.Multi || !reflect.DeepEqual(s.Indices, []int{0, 2}) {
		t.Fatalf("got %+v, want deduplicated sorted set {0,2}", s)
	}

	err := json.Unmarshal([]byte(`"zero"`), &s)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSelectionWireForm(t *testing.T) {
	b, err := json.Marshal(Single(3))
	if err != nil || string(b) != "3" {
		t.Fatalf("single wire form = %s (%v), want bare 3", b, err)
	}
	b, err = json.Marshal(Multiple(1, 0))
	if err != nil || string(b) != "[0,1]" {
		t.Fatalf("multi wire form = %s (%v), want [0,1]", b, err)
	}
	b, err = json.Marshal(Selection{Multi: true})
	if err != nil || string(b) != "[]" {
		t.Fatalf("empty multi wire form = %s (%v), want []", b, err)
	}
}

func TestSelectionValid(t *testing.T) {
	if !Single(0).Valid() {
		t.Fatal("single index 0 is valid")
	}
	if (Selection{}).Valid() {
		t.Fatal("single with no index is invalid")
	}
	if Single(-1).Valid() {
		t.Fatal("negative index is invalid")
	}
	if !Multiple().Valid() {
		t.Fatal("empty multi set is a valid deselection")
	}
	if (Selection{Multi: true, Indices: []int{-2}}).Valid() {
		t.Fatal("negative index in set is invalid")
	}
}
