package flatjson

import "strconv"

// pointerBuilder maintains the current JSON Pointer path as a stack of
// segments (spec.md §4.3, component C3). Each segment already carries
// its leading '/', so concat is a plain join.
type pointerBuilder struct {
	segments []string
	prefix   string
	hasIdx   []bool // true if the corresponding segment is an array index
}

func newPointerBuilder(prefix string) *pointerBuilder {
	return &pointerBuilder{prefix: prefix}
}

// pushKey pushes an object member segment.
func (pb *pointerBuilder) pushKey(key string) {
	pb.segments = append(pb.segments, "/"+escapePointerSegment(key))
	pb.hasIdx = append(pb.hasIdx, false)
}

// pushIndex pushes an array element segment for index i.
func (pb *pointerBuilder) pushIndex(i int) {
	pb.segments = append(pb.segments, "/"+strconv.Itoa(i))
	pb.hasIdx = append(pb.hasIdx, true)
}

// pop removes the most recently pushed segment.
func (pb *pointerBuilder) pop() {
	n := len(pb.segments)
	if n == 0 {
		return
	}
	pb.segments = pb.segments[:n-1]
	pb.hasIdx = pb.hasIdx[:n-1]
}

// depth returns the number of segments pushed during local traversal.
// The prefix, if any, is not a counted segment: it anchors the pointer
// textually without shifting depth arithmetic, which is driven instead
// by ParseOptions.StartDepth (see parser.go's absDepth).
func (pb *pointerBuilder) depth() int { return len(pb.segments) }

// concat joins the prefix and the stack into a single pointer string.
// With no prefix and an empty stack this is the document root ("").
func (pb *pointerBuilder) concat() string {
	if len(pb.segments) == 0 {
		return pb.prefix
	}
	total := len(pb.prefix)
	for _, s := range pb.segments {
		total += len(s)
	}
	out := make([]byte, 0, total)
	out = append(out, pb.prefix...)
	for _, s := range pb.segments {
		out = append(out, s...)
	}
	return string(out)
}

// escapePointerSegment applies RFC 6901's two substitutions ('~' -> '~0',
// '/' -> '~1') to an object member name before it is used as a pointer
// segment.
func escapePointerSegment(key string) string {
	needsEscape := false
	for i := 0; i < len(key); i++ {
		if key[i] == '~' || key[i] == '/' {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return key
	}
	out := make([]byte, 0, len(key)+2)
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, key[i])
		}
	}
	return string(out)
}
