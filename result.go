package flatjson

import (
	"strconv"
	"strings"
)

// FindByPointer looks up the entry for an exact pointer, building (and
// caching) a secondary index on first use, per SPEC_FULL.md §12.
func (r *ParseResult) FindByPointer(pointer string) (FlatEntry, bool) {
	if r.byPointer == nil {
		r.byPointer = make(map[string]int, len(r.Entries))
		for i, e := range r.Entries {
			r.byPointer[e.Key.Pointer] = i
		}
	}
	idx, ok := r.byPointer[pointer]
	if !ok {
		return FlatEntry{}, false
	}
	return r.Entries[idx], true
}

// ForEachChild calls fn for every entry that is a direct child of
// parentPointer: one more pointer segment, and the same prefix. The
// walk stops the moment fn returns false.
func (r *ParseResult) ForEachChild(parentPointer string, fn func(FlatEntry) bool) {
	parentDepth := -1
	if parentPointer != "" || len(r.Entries) > 0 {
		if e, ok := r.FindByPointer(parentPointer); ok {
			parentDepth = int(e.Key.Depth)
		}
	}
	prefix := parentPointer + "/"
	for _, e := range r.Entries {
		if e.Key.Pointer == parentPointer {
			continue
		}
		if !strings.HasPrefix(e.Key.Pointer, prefix) {
			continue
		}
		rest := e.Key.Pointer[len(prefix):]
		if strings.Contains(rest, "/") {
			continue // descendant, not a direct child
		}
		if parentDepth >= 0 && int(e.Key.Depth) != parentDepth+1 {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// DeleteChild removes the entry at pointer and all of its descendants
// from the result, renumbering any array-index siblings that followed
// it so the remaining indices stay contiguous. It reports whether
// anything was removed.
func DeleteChild(r *ParseResult, pointer string) bool {
	idx := -1
	for i, e := range r.Entries {
		if e.Key.Pointer == pointer {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	prefix := pointer + "/"
	end := idx + 1
	for end < len(r.Entries) && strings.HasPrefix(r.Entries[end].Key.Pointer, prefix) {
		end++
	}

	parentPointer, indexStr, isArrayElem := splitArrayIndexPointer(pointer)
	removed := end - idx
	out := make([]FlatEntry, 0, len(r.Entries)-removed)
	out = append(out, r.Entries[:idx]...)
	out = append(out, r.Entries[end:]...)

	if isArrayElem {
		removedIdx, _ := strconv.Atoi(indexStr)
		childPrefix := parentPointer + "/"
		for i := range out {
			p := out[i].Key.Pointer
			if !strings.HasPrefix(p, childPrefix) {
				continue
			}
			rest := p[len(childPrefix):]
			seg := rest
			if slash := strings.IndexByte(rest, '/'); slash >= 0 {
				seg = rest[:slash]
			}
			n, err := strconv.Atoi(seg)
			if err != nil || n <= removedIdx {
				continue
			}
			out[i].Key.Pointer = childPrefix + strconv.Itoa(n-1) + rest[len(seg):]
		}
		for i := range out {
			if out[i].Key.Pointer == parentPointer && out[i].Key.ValueType.Kind == KindArray {
				out[i].Key.ValueType.Len--
			}
		}
	} else if parentPointer != "" {
		for i := range out {
			if out[i].Key.Pointer == parentPointer && out[i].Key.ValueType.Kind == KindObject {
				out[i].Key.ValueType.Elements--
			}
		}
	}

	r.Entries = out
	r.invalidateIndex()
	return true
}

// RowEntries pairs one array element's own flattened entries with its
// index in the array, the Go analogue of the original Rust port's
// JsonArrayEntries (lib.rs:58-75).
type RowEntries struct {
	Entries []FlatEntry
	Index   int
}

// FindNodeAt looks up an entry within this row by its absolute
// pointer, mirroring JsonArrayEntries::find_node_at (lib.rs:72-74).
func (row RowEntries) FindNodeAt(pointer string) (FlatEntry, bool) {
	for _, e := range row.Entries {
		if e.Key.Pointer == pointer {
			return e, true
		}
	}
	return FlatEntry{}, false
}

// Rows groups the direct array-element children of arrayPointer, and
// each element's own descendants, into one RowEntries per index. It
// relies on the same depth-first pre-order layout DeleteChild depends
// on: all of a row's entries are contiguous.
func (r *ParseResult) Rows(arrayPointer string) []RowEntries {
	prefix := arrayPointer + "/"
	var rows []RowEntries
	var current *RowEntries
	for _, e := range r.Entries {
		if !strings.HasPrefix(e.Key.Pointer, prefix) {
			continue
		}
		rest := e.Key.Pointer[len(prefix):]
		seg := rest
		if slash := strings.IndexByte(rest, '/'); slash >= 0 {
			seg = rest[:slash]
		}
		idx, err := strconv.Atoi(seg)
		if err != nil {
			continue
		}
		if current == nil || current.Index != idx {
			rows = append(rows, RowEntries{Index: idx})
			current = &rows[len(rows)-1]
		}
		current.Entries = append(current.Entries, e)
	}
	return rows
}

// FilterNonNullRows keeps only the rows where every pointer in
// nonNullColumns (each relative to a row, e.g. "/name") resolves to a
// present entry with a value — a port of
// JSONParser::filter_non_null_column (lib.rs:247-269), where a missing
// or JSON-null column leaves the entry's value as None.
func FilterNonNullRows(rows []RowEntries, prefix string, nonNullColumns []string) []RowEntries {
	out := make([]RowEntries, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, col := range nonNullColumns {
			pointer := prefix + "/" + strconv.Itoa(row.Index) + col
			e, ok := row.FindNodeAt(pointer)
			if !ok || !e.HasValue {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

// splitArrayIndexPointer splits "/a/b/3" into ("/a/b", "3", true), or
// ("/a/b", "c", false) for "/a/b/c".
func splitArrayIndexPointer(pointer string) (parent, lastSeg string, isIndex bool) {
	idx := strings.LastIndexByte(pointer, '/')
	if idx < 0 {
		return "", pointer, false
	}
	parent = pointer[:idx]
	lastSeg = pointer[idx+1:]
	_, err := strconv.Atoi(lastSeg)
	return parent, lastSeg, err == nil
}
