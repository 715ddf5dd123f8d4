package flatjson

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pointerSet(r *ParseResult) map[string]ValueType {
	out := make(map[string]ValueType, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Key.Pointer] = e.Key.ValueType
	}
	return out
}

// S5 — depth expansion grows the entry count level by level.
func TestChangeDepthGrowsEntries(t *testing.T) {
	input := []byte(`{"a":{"b":{"c":1}}}`)

	r1, err := ParseOwned(input, WithMaxDepth(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(r1.Entries) != 1 {
		t.Fatalf("max_depth=1: expected 1 entry, got %d: %+v", len(r1.Entries), r1.Entries)
	}

	if err := ChangeDepth(r1, 2); err != nil {
		t.Fatal(err)
	}
	if len(r1.Entries) != 2 {
		t.Fatalf("after change_depth(2): expected 2 entries, got %d: %+v", len(r1.Entries), r1.Entries)
	}
	if _, ok := r1.FindByPointer("/a"); !ok {
		t.Error("expected /a to survive expansion")
	}
	if _, ok := r1.FindByPointer("/a/b"); !ok {
		t.Error("expected /a/b after change_depth(2)")
	}

	if err := ChangeDepth(r1, 3); err != nil {
		t.Fatal(err)
	}
	if len(r1.Entries) != 4 {
		t.Fatalf("after change_depth(3): expected 4 entries, got %d: %+v", len(r1.Entries), r1.Entries)
	}
	for _, ptr := range []string{"/a", "/a/b", "/a/b/c"} {
		if _, ok := r1.FindByPointer(ptr); !ok {
			t.Errorf("missing %s after full expansion", ptr)
		}
	}
}

// Testable property 4: depth idempotence.
func TestChangeDepthIdempotent(t *testing.T) {
	input := []byte(`{"a":{"b":{"c":[1,2,{"d":3}]}}}`)
	r, err := ParseOwned(input, WithMaxDepth(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := ChangeDepth(r, 4); err != nil {
		t.Fatal(err)
	}
	once := pointerSet(r)

	if err := ChangeDepth(r, 4); err != nil {
		t.Fatal(err)
	}
	twice := pointerSet(r)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("change_depth is not idempotent (-once +twice):\n%s", diff)
	}
}

// Testable property 5: expand-equivalence.
func TestChangeDepthMatchesDirectParse(t *testing.T) {
	input := []byte(`{"a":{"b":{"c":[1,2,{"d":3,"e":[4,5]}]}}}`)

	staged, err := ParseOwned(input, WithMaxDepth(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := ChangeDepth(staged, 5); err != nil {
		t.Fatal(err)
	}

	direct, err := Parse(input, WithMaxDepth(5))
	if err != nil {
		t.Fatal(err)
	}

	stagedPointers := pointerKeys(staged)
	directPointers := pointerKeys(direct)
	sort.Strings(stagedPointers)
	sort.Strings(directPointers)
	if diff := cmp.Diff(directPointers, stagedPointers); diff != "" {
		t.Errorf("expand-equivalence failed (-direct +staged):\n%s", diff)
	}
}

func pointerKeys(r *ParseResult) []string {
	keys := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key.Pointer
	}
	return keys
}

func TestChangeDepthNoOpWhenNotDeeper(t *testing.T) {
	input := []byte(`{"a":{"b":1}}`)
	r, err := ParseOwned(input, WithMaxDepth(5))
	if err != nil {
		t.Fatal(err)
	}
	before := len(r.Entries)
	if err := ChangeDepth(r, 2); err != nil {
		t.Fatal(err)
	}
	if len(r.Entries) != before {
		t.Errorf("expected no-op, entries changed from %d to %d", before, len(r.Entries))
	}
}

func TestChangeDepthRequiresInput(t *testing.T) {
	r, err := Parse([]byte(`{"a":{"b":1}}`), WithMaxDepth(1))
	if err != nil {
		t.Fatal(err)
	}
	r.input = nil
	if err := ChangeDepth(r, 5); err == nil {
		t.Fatal("expected an error when input is unavailable")
	}
}
