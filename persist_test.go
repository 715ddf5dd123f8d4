package flatjson

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	input := []byte(`{"id":1,"name":"NV_BASIC","tags":["a","b"],"nested":{"x":1}}`)
	r, err := ParseOwned(input, WithMaxDepth(1), WithKeepObjectRawData(true))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Persist(&buf, r); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(loaded.Entries) != len(r.Entries) {
		t.Fatalf("entry count mismatch: got %d, want %d", len(loaded.Entries), len(r.Entries))
	}
	for i := range r.Entries {
		want := r.Entries[i]
		got := loaded.Entries[i]
		if got.Key.Pointer != want.Key.Pointer {
			t.Errorf("entry %d: pointer mismatch: got %q want %q", i, got.Key.Pointer, want.Key.Pointer)
		}
		if diff := cmp.Diff(want.Key.ValueType, got.Key.ValueType); diff != "" {
			t.Errorf("entry %d (%s): ValueType mismatch (-want +got):\n%s", i, want.Key.Pointer, diff)
		}
		if got.HasValue != want.HasValue {
			t.Errorf("entry %d (%s): HasValue mismatch: got %v want %v", i, want.Key.Pointer, got.HasValue, want.HasValue)
		}
		if got.HasValue && got.Value.String() != want.Value.String() {
			t.Errorf("entry %d (%s): value mismatch: got %q want %q", i, want.Key.Pointer, got.Value.String(), want.Value.String())
		}
	}
	if loaded.MaxJSONDepth != r.MaxJSONDepth {
		t.Errorf("MaxJSONDepth mismatch: got %d want %d", loaded.MaxJSONDepth, r.MaxJSONDepth)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a snapshot at all")))
	if err == nil {
		t.Fatal("expected an error for a corrupt snapshot header")
	}
}
