package flatjson

import (
	"encoding/json"
	"reflect"
	"testing"
)

// Testable property 3: round-trip through parse → serialize.
func TestToJSONRoundTrip(t *testing.T) {
	inputs := []string{
		`{"id":1,"name":"NV_BASIC","ok":true,"tags":["a","b","c"],"meta":null}`,
		`[1,2,3]`,
		`{"nested":{"a":{"b":[1,2,{"c":3}]}}}`,
		`{}`,
		`[]`,
	}
	for _, input := range inputs {
		r, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("parsing %q: %v", input, err)
		}
		out, err := ToJSON(r)
		if err != nil {
			t.Fatalf("serializing %q: %v", input, err)
		}

		var want, got interface{}
		if err := json.Unmarshal([]byte(input), &want); err != nil {
			t.Fatalf("oracle unmarshal of input failed: %v", err)
		}
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatalf("unmarshal of rendered output failed: %v\noutput: %s", err, out)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("round-trip mismatch for %q:\n want=%#v\n got=%#v\n rendered=%s", input, want, got, out)
		}
	}
}

func TestToJSONPreservesRawCapture(t *testing.T) {
	r, err := Parse([]byte(`{"nested":{"a":1}}`), WithMaxDepth(1), WithKeepObjectRawData(true))
	if err != nil {
		t.Fatal(err)
	}
	out, err := ToJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal rendered output: %v\noutput: %s", err, out)
	}
	nested, ok := got["nested"].(map[string]interface{})
	if !ok || nested["a"] != float64(1) {
		t.Errorf("expected raw-captured object to splice back in, got %#v", got)
	}
}

func TestBuildValueFailsOnCorruptResult(t *testing.T) {
	// An unexpanded object entry with no raw data attached cannot be
	// serialized: the parser never produces this state (it always
	// attaches raw bytes to an unparsed object), but BuildValue must
	// still refuse rather than silently dropping data.
	r := &ParseResult{
		Entries: []FlatEntry{{
			Key: PointerKey{Pointer: "/nested", ValueType: Object(false, 0), Depth: 1},
		}},
	}
	if _, err := BuildValue(r); err == nil {
		t.Fatal("expected an error for an unexpanded object with no raw data")
	}
}

func TestToJSONNumberLexemePreserved(t *testing.T) {
	r, err := Parse([]byte(`{"a":1.50,"b":10}`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := ToJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	if !containsLiteral(string(out), "1.50") {
		t.Errorf("expected verbatim numeric lexeme 1.50 in output, got %s", out)
	}
}

func containsLiteral(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
