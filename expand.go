package flatjson

import "fmt"

// ChangeDepth is the depth expander, spec.md §4.5 (component C5): it
// re-parses every raw-captured entry sitting exactly at the previous
// depth frontier (and every still-unparsed object within the new
// budget), splicing the freshly parsed children back into result in
// place. If newMaxDepth does not exceed the depth already parsed, this
// is a no-op, matching the "N <= P" case in spec.md §4.5.
//
// Re-parsing reuses the ordinary top-level parser (parser.parse) on
// each entry's captured raw span, with prefix set to the entry's own
// pointer and StartDepth set to the entry's own depth. For arrays this
// naturally reproduces a leading entry for the array itself (since a
// '[' at the top of a parse is always recorded); that duplicate is
// discarded once its Len has been copied onto the existing parent
// entry, per spec.md §4.5's "leading element" rule. Objects never
// reproduce a leading entry in the first place (parser.parse recurses
// into an object body directly without recording the body's own
// container), so no such discard is needed there.
func ChangeDepth(result *ParseResult, newMaxDepth uint8) error {
	if newMaxDepth <= result.ParsingMaxDepth {
		return nil
	}
	if result.input == nil {
		return fmt.Errorf("flatjson: cannot expand a result that has no access to its original input")
	}

	// The sub-parser computes its own depth in absolute terms (no
	// start_parse_at of its own), so MaxDepth must be expressed on that
	// same absolute scale: shift newMaxDepth back up by whatever
	// baseline the original parse had already subtracted.
	subOpts := result.Options
	subOpts.MaxDepth = newMaxDepth + result.DepthAfterStartAt
	subOpts.HasStartAt = false
	subOpts.StartParseAt = ""

	i := 0
	for i < len(result.Entries) {
		e := &result.Entries[i]
		if !e.HasValue || !e.Key.ValueType.IsContainer() {
			i++
			continue
		}
		atFrontier := effectiveDepthOf(result, e.Key.Depth) == result.ParsingMaxDepth
		isUnexpandedObject := e.Key.ValueType.Kind == KindObject && !e.Key.ValueType.Parsed
		isRawArray := e.Key.ValueType.Kind == KindArray
		if !atFrontier || (!isUnexpandedObject && !isRawArray) {
			i++
			continue
		}

		opts := subOpts
		opts.Prefix = e.Key.Pointer
		opts.HasPrefix = e.Key.Pointer != ""
		opts.StartDepth = e.Key.Depth
		opts.HasStartDepth = true

		sub := newParser(e.Value.Bytes(), opts)
		subResult, err := sub.parse()
		if err != nil {
			return fmt.Errorf("flatjson: expanding %q: %w", e.Key.Pointer, err)
		}
		newEntries := subResult.Entries

		if e.Key.ValueType.Kind == KindArray {
			if len(newEntries) > 0 && newEntries[0].Key.Pointer == e.Key.Pointer {
				e.Key.ValueType.Len = newEntries[0].Key.ValueType.Len
				newEntries = newEntries[1:]
			}
		} else {
			childCount := 0
			for _, ne := range newEntries {
				if ne.Key.Depth == e.Key.Depth+1 {
					childCount++
				}
			}
			e.Key.ValueType.Parsed = true
			e.Key.ValueType.Elements = childCount
		}

		if !result.Options.KeepObjectRawData && e.Key.ValueType.Kind == KindObject {
			e.HasValue = false
			e.Value = Slice{}
		}
		if subResult.MaxJSONDepth > result.MaxJSONDepth {
			result.MaxJSONDepth = subResult.MaxJSONDepth
		}

		result.Entries = spliceEntries(result.Entries, i, newEntries)
		i += 1 + len(newEntries)
	}

	result.ParsingMaxDepth = newMaxDepth
	result.invalidateIndex()
	return nil
}

// effectiveDepthOf mirrors parser.effectiveDepth for depths already
// recorded in a finished ParseResult.
func effectiveDepthOf(r *ParseResult, depth uint8) uint8 {
	if depth < r.DepthAfterStartAt {
		return 0
	}
	return depth - r.DepthAfterStartAt
}

// spliceEntries inserts newOnes immediately after index at, preserving
// everything before and after.
func spliceEntries(entries []FlatEntry, at int, newOnes []FlatEntry) []FlatEntry {
	if len(newOnes) == 0 {
		return entries
	}
	out := make([]FlatEntry, 0, len(entries)+len(newOnes))
	out = append(out, entries[:at+1]...)
	out = append(out, newOnes...)
	out = append(out, entries[at+1:]...)
	return out
}
