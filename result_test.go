package flatjson

import "testing"

func TestFindByPointer(t *testing.T) {
	r, err := Parse([]byte(`{"a":{"b":1},"c":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.FindByPointer("/a/b"); !ok {
		t.Fatal("expected to find /a/b")
	}
	if _, ok := r.FindByPointer("/does/not/exist"); ok {
		t.Fatal("did not expect a match")
	}
}

func TestForEachChild(t *testing.T) {
	r, err := Parse([]byte(`{"a":{"b":1,"c":{"d":2}},"e":3}`))
	if err != nil {
		t.Fatal(err)
	}
	var children []string
	r.ForEachChild("/a", func(e FlatEntry) bool {
		children = append(children, e.Key.Pointer)
		return true
	})
	if len(children) != 2 {
		t.Fatalf("expected 2 direct children of /a, got %v", children)
	}
	seen := map[string]bool{}
	for _, c := range children {
		seen[c] = true
	}
	if !seen["/a/b"] || !seen["/a/c"] {
		t.Errorf("expected /a/b and /a/c, got %v", children)
	}
	if seen["/a/c/d"] {
		t.Error("did not expect a grandchild to be included")
	}
}

func TestForEachChildStopsEarly(t *testing.T) {
	r, err := Parse([]byte(`{"a":1,"b":2,"c":3}`))
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	r.ForEachChild("", func(e FlatEntry) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("expected walk to stop after first child, got %d calls", count)
	}
}

func TestDeleteChildObjectField(t *testing.T) {
	r, err := Parse([]byte(`{"a":1,"b":{"c":2},"d":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if !DeleteChild(r, "/b") {
		t.Fatal("expected deletion to succeed")
	}
	if _, ok := r.FindByPointer("/b"); ok {
		t.Error("expected /b to be gone")
	}
	if _, ok := r.FindByPointer("/b/c"); ok {
		t.Error("expected /b/c to be gone")
	}
	if _, ok := r.FindByPointer("/a"); !ok {
		t.Error("expected /a to survive")
	}
	if _, ok := r.FindByPointer("/d"); !ok {
		t.Error("expected /d to survive")
	}
}

func TestDeleteChildRenumbersArraySiblings(t *testing.T) {
	r, err := Parse([]byte(`[{"n":"a"},{"n":"b"},{"n":"c"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if !DeleteChild(r, "/0") {
		t.Fatal("expected deletion to succeed")
	}
	if _, ok := r.FindByPointer("/0"); !ok {
		t.Error("expected old /1 to be renumbered to /0")
	}
	b := findEntry(t, r, "/0/n")
	if b.Value.String() != "b" {
		t.Errorf("expected renumbered /0/n to be \"b\", got %+v", b)
	}
	c := findEntry(t, r, "/1/n")
	if c.Value.String() != "c" {
		t.Errorf("expected renumbered /1/n to be \"c\", got %+v", c)
	}
	root := findEntry(t, r, "")
	if root.Key.ValueType.Len != 2 {
		t.Errorf("expected root array length to drop to 2, got %d", root.Key.ValueType.Len)
	}
}

func TestDeleteChildMissingPointer(t *testing.T) {
	r, err := Parse([]byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if DeleteChild(r, "/nope") {
		t.Fatal("expected no deletion for a missing pointer")
	}
}

func TestRowsGroupsByArrayIndex(t *testing.T) {
	r, err := Parse([]byte(`[{"name":"a","age":1},{"name":"b","age":2}]`))
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Rows("")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Index != 0 || rows[1].Index != 1 {
		t.Fatalf("unexpected row indices: %d, %d", rows[0].Index, rows[1].Index)
	}
	e, ok := rows[1].FindNodeAt("/1/name")
	if !ok || e.Value.String() != "b" {
		t.Errorf("expected row 1's /1/name to be \"b\", got %+v (ok=%v)", e, ok)
	}
	if _, ok := rows[0].FindNodeAt("/1/name"); ok {
		t.Error("row 0 should not contain row 1's entries")
	}
}

func TestFilterNonNullRowsKeepsCompleteRows(t *testing.T) {
	r, err := Parse([]byte(`[{"name":"a","age":1},{"name":null,"age":2},{"age":3}]`))
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Rows("")
	filtered := FilterNonNullRows(rows, "", []string{"/name"})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 row to survive the /name filter, got %d", len(filtered))
	}
	if filtered[0].Index != 0 {
		t.Errorf("expected surviving row to be index 0, got %d", filtered[0].Index)
	}
}
