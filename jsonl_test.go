package flatjson

import "testing"

func TestIsJSONL(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{`{"id":1}` + "\n" + `{"id":2}` + "\n", true},
		{`{"a":{"b":1}}`, false},
		{`[{"a":1},{"b":2}]`, false},
		{`{"id":1}` + "\r\n" + `{"id":2}`, true},
	}
	for _, c := range cases {
		if got := IsJSONL([]byte(c.input)); got != c.want {
			t.Errorf("IsJSONL(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

// S6 / testable property 7: parse_jsonl with N lines yields root
// Array(N) plus N Object(true,_) entries at depth 2.
func TestParseJSONLBasic(t *testing.T) {
	input := []byte(`{"id":1}` + "\n" + `{"id":2}` + "\n")
	r, err := ParseJSONL(input)
	if err != nil {
		t.Fatal(err)
	}

	root := findEntry(t, r, "")
	if root.Key.ValueType.Kind != KindArray || root.Key.ValueType.Len != 2 {
		t.Fatalf("unexpected root: %+v", root)
	}

	rowCount := 0
	for _, ptr := range []string{"/0", "/1"} {
		row := findEntry(t, r, ptr)
		if row.Key.ValueType.Kind != KindObject || !row.Key.ValueType.Parsed || row.Key.ValueType.Elements != 1 {
			t.Errorf("unexpected row %s: %+v", ptr, row)
		}
		if row.Key.Depth != 2 {
			t.Errorf("row %s: expected depth 2, got %d", ptr, row.Key.Depth)
		}
		if !row.HasValue {
			t.Errorf("row %s: expected raw line to be retained", ptr)
		}
		rowCount++
	}
	if rowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", rowCount)
	}

	id0 := findEntry(t, r, "/0/id")
	if id0.Value.String() != "1" {
		t.Errorf("unexpected /0/id: %+v", id0)
	}
}

func TestParseJSONLSkipsBlankLines(t *testing.T) {
	input := []byte("\n" + `{"id":1}` + "\n\n" + `{"id":2}` + "\n\n")
	r, err := ParseJSONL(input)
	if err != nil {
		t.Fatal(err)
	}
	root := findEntry(t, r, "")
	if root.Key.ValueType.Len != 2 {
		t.Fatalf("expected 2 rows, got %+v", root)
	}
}

func TestParseJSONLLineError(t *testing.T) {
	input := []byte(`{"id":1}` + "\n" + `not json` + "\n")
	_, err := ParseJSONL(input)
	if err == nil {
		t.Fatal("expected an error for a malformed line")
	}
}

func TestParseJSONLCorrelationID(t *testing.T) {
	r, err := ParseJSONL([]byte(`{"id":1}` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if r.CorrelationID == "" {
		t.Error("expected a correlation ID to be assigned")
	}
}
