package flatjson

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
)

// parser drives the recursive-descent walk described in spec.md §4.4
// (component C4): it turns a token stream into a flat []FlatEntry,
// honoring the depth budget, the start-pointer filter and the raw
// capture policy along the way.
//
// Depth bookkeeping. Every entry's Depth is baseDepth + the number of
// segments pushed onto the pointer builder during local traversal
// (absDepth). baseDepth defaults to 1, matching spec.md §3's statement
// that a document-root array is depth 1 with an empty pointer. The one
// exception is the top-level call when the document root is an object:
// an object's own root is never recorded as an entry (spec.md's
// examples never show a "" entry for an object-rooted document), so
// that single call temporarily runs with baseDepth decremented by one,
// putting its top-level keys back at depth 1 to match spec.md's
// examples. The depth expander and JSON-Lines driver both set an
// explicit StartDepth instead, bypassing the decrement.
type parser struct {
	lex  *lexer
	opts ParseOptions
	pb   *pointerBuilder

	baseDepth uint8
	entries   []FlatEntry
	posCtr    uint64

	maxJSONDepth int

	depthAfterStartAt uint8
	seenStartAt       bool
	startIndexStart   int
	startIndexEnd     int

	lastPointer string
	logger      *slog.Logger
}

func newParser(buf []byte, opts ParseOptions) *parser {
	prefix := ""
	if opts.HasPrefix {
		prefix = opts.Prefix
	}
	base := uint8(1)
	if opts.HasStartDepth {
		base = opts.StartDepth
	}
	return &parser{
		lex:             newLexer(buf),
		opts:            opts,
		pb:              newPointerBuilder(prefix),
		baseDepth:       base,
		entries:         make([]FlatEntry, 0, 64),
		startIndexStart: -1,
		startIndexEnd:   -1,
	}
}

func (p *parser) withLogger(l *slog.Logger) *parser {
	p.logger = l
	return p
}

func (p *parser) currentPointer() string { return p.pb.concat() }

func (p *parser) absDepth() uint8 { return p.baseDepth + uint8(p.pb.depth()) }

// effectiveDepth is the depth budget actually compared against
// MaxDepth, relative to the point start_parse_at first matched
// (spec.md §4.4's depth_after_start_at).
func (p *parser) effectiveDepth(abs uint8) uint8 {
	if abs < p.depthAfterStartAt {
		return 0
	}
	return abs - p.depthAfterStartAt
}

func (p *parser) withinDepthBudget(abs uint8) bool {
	return p.effectiveDepth(abs) <= p.opts.MaxDepth
}

func (p *parser) withinStartFilter(pointer string) bool {
	if !p.opts.HasStartAt {
		return true
	}
	return strings.HasPrefix(pointer, p.opts.StartParseAt)
}

// parse is the document entry point (spec.md §4.4, point 0): the
// document must open with '{', '}' (an empty object) or '['; any
// other leading token is ErrBadRoot.
func (p *parser) parse() (*ParseResult, error) {
	if len(p.lex.r.buf) == 0 {
		return nil, ErrEmptyInput
	}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokCurlyOpen:
		savedBase := p.baseDepth
		if !p.opts.HasStartDepth {
			p.baseDepth--
		}
		_, err := p.parseObjectBody()
		p.baseDepth = savedBase
		if err != nil {
			return nil, err
		}
	case TokCurlyClose:
		// A bare top-level "}" is an empty object: zero entries.
	case TokSquareOpen:
		if err := p.dispatchValue(tok); err != nil {
			return nil, err
		}
	default:
		return nil, ErrBadRoot
	}
	trailing, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if trailing.Kind != TokEOF {
		return nil, newParseError(ErrUnexpectedToken, "", p.lastPointer, "trailing data after document")
	}
	return p.buildResult(), nil
}

// parseRow is the JSON-Lines entry point (spec.md §4.7): unlike parse,
// it always treats the document as a value occupying its own pointer
// (the configured Prefix), so the row's own container entry is
// recorded exactly like any other object-valued array element.
func (p *parser) parseRow() (*ParseResult, error) {
	if len(p.lex.r.buf) == 0 {
		return nil, ErrEmptyInput
	}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokCurlyOpen {
		return nil, ErrBadRoot
	}
	if err := p.parseObjectValue(p.currentPointer(), p.absDepth()); err != nil {
		return nil, err
	}
	trailing, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if trailing.Kind != TokEOF {
		return nil, newParseError(ErrUnexpectedToken, "", p.lastPointer, "trailing data after document")
	}
	return p.buildResult(), nil
}

// parseObjectBody consumes object members up to and including the
// closing '}' (the opening '{' has already been consumed by the
// caller). It returns the number of direct children emitted.
func (p *parser) parseObjectBody() (int, error) {
	seen := make(map[string]struct{})
	tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind == TokCurlyClose {
		return 0, nil
	}
	count := 0
	for {
		if tok.Kind != TokString {
			return count, newParseError(ErrMissingKey, p.currentPointer(), p.lastPointer, fmt.Sprintf("got %v", tok.Kind))
		}
		key := string(tok.Span)
		if _, dup := seen[key]; dup {
			return count, newParseError(ErrDuplicateKey, p.currentPointer()+"/"+escapePointerSegment(key), p.lastPointer, key)
		}
		seen[key] = struct{}{}

		p.pb.pushKey(key)
		ptr := p.currentPointer()

		colon, err := p.lex.next()
		if err != nil {
			return count, err
		}
		if colon.Kind != TokColon {
			return count, newParseError(ErrMissingColon, ptr, p.lastPointer, fmt.Sprintf("got %v", colon.Kind))
		}

		valTok, err := p.lex.next()
		if err != nil {
			return count, err
		}
		if err := p.dispatchValue(valTok); err != nil {
			return count, err
		}
		p.pb.pop()
		count++

		sep, err := p.lex.next()
		if err != nil {
			return count, err
		}
		switch sep.Kind {
		case TokComma:
			tok, err = p.lex.next()
			if err != nil {
				return count, err
			}
			continue
		case TokCurlyClose:
			return count, nil
		case TokSquareClose:
			panic("flatjson: unexpected ']' while parsing object members")
		default:
			return count, newParseError(ErrUnexpectedToken, ptr, p.lastPointer, fmt.Sprintf("got %v after value", sep.Kind))
		}
	}
}

// parseArrayBody consumes array elements up to and including the
// closing ']' (the opening '[' has already been consumed by the
// caller). It returns the number of direct children emitted.
func (p *parser) parseArrayBody() (int, error) {
	tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind == TokSquareClose {
		return 0, nil
	}
	i := 0
	for {
		p.pb.pushIndex(i)
		if err := p.dispatchValue(tok); err != nil {
			return i, err
		}
		p.pb.pop()
		i++

		sep, err := p.lex.next()
		if err != nil {
			return i, err
		}
		switch sep.Kind {
		case TokComma:
			tok, err = p.lex.next()
			if err != nil {
				return i, err
			}
			continue
		case TokSquareClose:
			return i, nil
		default:
			return i, newParseError(ErrUnexpectedToken, p.currentPointer(), p.lastPointer, fmt.Sprintf("got %v after element", sep.Kind))
		}
	}
}

// dispatchValue handles one value already occupying a pushed pointer
// segment (an object member or array element), or the document-root
// array. It is the heart of spec.md §4.4's depth-budget/start-filter/
// raw-capture decision tree.
func (p *parser) dispatchValue(tok Token) error {
	abs := p.absDepth()
	ptr := p.currentPointer()

	switch tok.Kind {
	case TokString:
		if !p.withinDepthBudget(abs) || !p.withinStartFilter(ptr) {
			return nil
		}
		if !p.opts.validator().Valid(tok.Span) {
			return newParseError(ErrCorruptInput, ptr, p.lastPointer, "invalid utf-8 in string")
		}
		p.emit(ptr, abs, String, BorrowedSlice(tok.Span), true)
		return nil
	case TokNumber:
		if p.withinDepthBudget(abs) && p.withinStartFilter(ptr) {
			p.emit(ptr, abs, Number, BorrowedSlice(tok.Span), true)
		}
		return nil
	case TokBoolean:
		if p.withinDepthBudget(abs) && p.withinStartFilter(ptr) {
			p.emit(ptr, abs, Bool, BorrowedSlice(tok.Span), true)
		}
		return nil
	case TokNull:
		// §9 fix: Null is gated by the exact same depth/filter check as
		// every other scalar, not a separate comparison.
		if p.withinDepthBudget(abs) && p.withinStartFilter(ptr) {
			p.emit(ptr, abs, Null, Slice{}, false)
		}
		return nil
	case TokCurlyOpen:
		return p.parseObjectValue(ptr, abs)
	case TokSquareOpen:
		return p.parseArrayValue(ptr, abs)
	default:
		return newParseError(ErrUnexpectedToken, ptr, p.lastPointer, fmt.Sprintf("got %v", tok.Kind))
	}
}

// parseObjectValue handles a '{' occupying pointer ptr at depth abs
// (spec.md §4.4's object-value dispatch).
func (p *parser) parseObjectValue(ptr string, abs uint8) error {
	braceAt := p.lex.r.index() - 1
	end, ok := p.lex.scanRawObject()
	if !ok {
		return newParseError(ErrUnbalancedContainer, ptr, p.lastPointer, "object")
	}

	withinBudget := p.withinDepthBudget(abs)
	passFilter := p.withinStartFilter(ptr)
	if !withinBudget || !passFilter {
		p.lex.r.setIndex(end)
		return nil
	}

	raw := p.lex.r.sliceBetween(braceAt, end)
	parsed := p.effectiveDepth(abs) < p.opts.MaxDepth

	var val Slice
	hasVal := false
	if p.opts.KeepObjectRawData || !parsed {
		val, hasVal = BorrowedSlice(raw), true
	}
	entryIdx := p.emit(ptr, abs, Object(parsed, 0), val, hasVal)

	if !parsed {
		p.lex.r.setIndex(end)
		return nil
	}

	p.lex.r.setIndex(braceAt + 1)
	count, err := p.parseObjectBody()
	if err != nil {
		return err
	}
	p.entries[entryIdx].Key.ValueType.Elements = count
	return nil
}

// parseArrayValue handles a '[' occupying pointer ptr at depth abs
// (spec.md §4.4's array-value dispatch).
func (p *parser) parseArrayValue(ptr string, abs uint8) error {
	bracketAt := p.lex.r.index() - 1

	if !p.withinStartFilter(ptr) {
		end, ok := p.lex.scanRawArray()
		if !ok {
			return newParseError(ErrUnbalancedContainer, ptr, p.lastPointer, "array")
		}
		p.lex.r.setIndex(end)
		return nil
	}

	// start_parse_at resets the effective-depth baseline right here, so
	// it must bypass the stale depth budget computed before the reset.
	isStartBoundary := p.opts.HasStartAt && !p.seenStartAt && ptr == p.opts.StartParseAt

	if !isStartBoundary && !p.withinDepthBudget(abs) {
		end, ok := p.lex.scanRawArray()
		if !ok {
			return newParseError(ErrUnbalancedContainer, ptr, p.lastPointer, "array")
		}
		p.lex.r.setIndex(end)
		return nil
	}

	belowFrontier := isStartBoundary || p.effectiveDepth(abs) < p.opts.MaxDepth
	shouldDescend := belowFrontier && p.opts.ParseArray || isStartBoundary

	if !shouldDescend {
		end, ok := p.lex.scanRawArray()
		if !ok {
			return newParseError(ErrUnbalancedContainer, ptr, p.lastPointer, "array")
		}
		raw := p.lex.r.sliceBetween(bracketAt, end)
		p.emit(ptr, abs, Array(countTopLevelCommas(raw)), BorrowedSlice(raw), true)
		p.lex.r.setIndex(end)
		return nil
	}

	entryIdx := p.emit(ptr, abs, Array(0), Slice{}, false)

	if isStartBoundary {
		p.seenStartAt = true
		p.depthAfterStartAt = abs
	}

	count, err := p.parseArrayBody()
	if err != nil {
		return err
	}
	p.entries[entryIdx].Key.ValueType.Len = count
	return nil
}

// countTopLevelCommas returns the element count implied by a raw
// array span (including its enclosing brackets): the number of commas
// at nesting depth 0, plus one, or 0 for an empty array.
func countTopLevelCommas(raw []byte) int {
	if len(raw) < 2 {
		return 0
	}
	body := raw[1 : len(raw)-1]
	if len(bytes.TrimSpace(body)) == 0 {
		return 0
	}
	depth := 0
	inString, escaped := false, false
	commas := 0
	for _, b := range body {
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
		switch b {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				commas++
			}
		}
	}
	return commas + 1
}

// emit records one flattened entry and returns its index in p.entries.
func (p *parser) emit(ptr string, abs uint8, vt ValueType, val Slice, hasVal bool) int {
	pos := p.posCtr
	p.posCtr++
	p.entries = append(p.entries, FlatEntry{
		Key: PointerKey{
			Pointer:   ptr,
			ValueType: vt,
			Depth:     abs,
			Position:  pos,
		},
		Value:    val,
		HasValue: hasVal,
	})
	p.lastPointer = ptr
	if int(abs) > p.maxJSONDepth {
		p.maxJSONDepth = int(abs)
	}
	if p.opts.HasStartAt && strings.HasPrefix(ptr, p.opts.StartParseAt) {
		idx := len(p.entries) - 1
		if p.startIndexStart < 0 {
			p.startIndexStart = idx
		}
		p.startIndexEnd = idx
	}
	if p.logger != nil {
		p.logger.Debug("flatjson: emit", "pointer", ptr, "type", vt.String(), "depth", abs)
	}
	return len(p.entries) - 1
}

func (p *parser) buildResult() *ParseResult {
	r := &ParseResult{
		Entries:           p.entries,
		MaxJSONDepth:      p.maxJSONDepth,
		ParsingMaxDepth:   p.opts.MaxDepth,
		DepthAfterStartAt: p.depthAfterStartAt,
		Options:           p.opts,
		input:             p.lex.r.buf,
	}
	if p.opts.HasStartAt {
		r.StartedParsingAt = p.opts.StartParseAt
		r.HasStartedAt = true
		r.StartIndexStart = p.startIndexStart
		r.StartIndexEnd = p.startIndexEnd
	}
	if p.opts.HasPrefix {
		r.ParsingPrefix = p.opts.Prefix
		r.HasParsingPrefix = true
	}
	return r
}
