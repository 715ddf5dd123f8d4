package flatjson

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// debugLogger returns a slog.Logger writing to stderr when
// FLATJSON_DEBUG is set, or nil otherwise (SPEC_FULL.md §10.1). A nil
// logger is checked for at every call site instead of installing a
// discard handler, avoiding the cost of formatting debug lines that
// nobody reads on the hot path.
func debugLogger() *slog.Logger {
	if os.Getenv("FLATJSON_DEBUG") == "" {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Parse parses buf in place: every Slice in the result borrows
// directly from buf, so buf must outlive the result. Use ParseOwned
// when the input buffer's lifetime is shorter than the result's.
func Parse(buf []byte, opts ...Option) (result *ParseResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("flatjson: internal panic while parsing: %v", rec)
			result = nil
		}
	}()

	o := NewParseOptions(opts...)
	p := newParser(buf, o).withLogger(debugLogger())
	result, err = p.parse()
	if err != nil {
		return nil, err
	}
	result.CorrelationID = uuid.NewString()
	return result, nil
}

// ParseOwned behaves like Parse, but every Slice in the result is
// copied out of buf first, so the result no longer references buf's
// backing array once this call returns.
func ParseOwned(buf []byte, opts ...Option) (*ParseResult, error) {
	result, err := Parse(buf, opts...)
	if err != nil {
		return nil, err
	}
	for i := range result.Entries {
		if result.Entries[i].HasValue {
			result.Entries[i].Value = result.Entries[i].Value.Owned()
		}
	}
	result.input = append([]byte(nil), buf...)
	return result, nil
}
