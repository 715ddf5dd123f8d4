package flatjson

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// jsonlSniffWindow bounds how much of the input is scanned when
// guessing whether a buffer is JSON Lines vs a single JSON document
// (spec.md §4.7, component C7).
const jsonlSniffWindow = 4096

// IsJSONL heuristically detects JSON-Lines input: it looks for a
// "}\n{" or "}\r\n{" sequence within the first 4 KiB, ignoring any
// occurrence inside a string literal. A single JSON document never
// produces that sequence at the top level, since only one top-level
// value is permitted.
func IsJSONL(buf []byte) bool {
	window := buf
	if len(window) > jsonlSniffWindow {
		window = window[:jsonlSniffWindow]
	}
	inString, escaped := false, false
	for i := 0; i < len(window); i++ {
		b := window[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		if b == '"' {
			inString = true
			continue
		}
		if b != '}' {
			continue
		}
		j := i + 1
		if j < len(window) && window[j] == '\r' {
			j++
		}
		if j < len(window) && window[j] == '\n' {
			j++
			if j < len(window) && window[j] == '{' {
				return true
			}
		}
	}
	return false
}

// ParseJSONL parses a JSON-Lines buffer into a single ParseResult
// whose root is a synthetic array of the per-line objects, per
// spec.md §4.7: each non-empty line is parsed independently as an
// object with its own pointer prefix "/<row index>" (blank lines are
// skipped and do not consume an index) and start depth 2, and a synthetic { pointer: "", Array(n), depth: 1 } entry is
// prepended to stand in for the root that JSON Lines never writes out
// explicitly.
func ParseJSONL(buf []byte, opts ...Option) (result *ParseResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("flatjson: internal panic while parsing JSON-Lines: %v", rec)
			result = nil
		}
	}()

	base := NewParseOptions(opts...)
	lines := bytes.Split(buf, []byte("\n"))

	entries := make([]FlatEntry, 0, len(lines)*4)
	rowCount := 0
	maxDepth := 1

	for lineNo, rawLine := range lines {
		line := bytes.TrimRight(rawLine, "\r")
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rowOpts := base
		rowOpts.Prefix = fmt.Sprintf("/%d", rowCount)
		rowOpts.HasPrefix = true
		rowOpts.StartDepth = 2
		rowOpts.HasStartDepth = true

		sub := newParser(line, rowOpts)
		subResult, err := sub.parseRow()
		if err != nil {
			return nil, &jsonlError{line: lineNo + 1, err: err}
		}
		// Testable property 7 / S6: the row's own container entry always
		// carries the raw line as its value, regardless of
		// KeepObjectRawData, since JSON-Lines rows have no wrapping array
		// syntax that would otherwise let a caller recover the line text.
		if len(subResult.Entries) > 0 && subResult.Entries[0].Key.Pointer == rowOpts.Prefix {
			subResult.Entries[0].Value = BorrowedSlice(line)
			subResult.Entries[0].HasValue = true
		}
		entries = append(entries, subResult.Entries...)
		if subResult.MaxJSONDepth > maxDepth {
			maxDepth = subResult.MaxJSONDepth
		}
		rowCount++
	}

	root := FlatEntry{
		Key: PointerKey{
			Pointer:   "",
			ValueType: Array(rowCount),
			Depth:     1,
			Position:  0,
		},
	}
	for i := range entries {
		entries[i].Key.Position++
	}
	entries = append([]FlatEntry{root}, entries...)

	return &ParseResult{
		Entries:         entries,
		MaxJSONDepth:    maxDepth,
		ParsingMaxDepth: base.MaxDepth,
		Options:         base,
		input:           buf,
		CorrelationID:   uuid.NewString(),
	}, nil
}
