package flatjson

// Validator is the pluggable UTF-8 validation capability spec.md §1
// keeps external to the core: the parser calls it on every string span
// it emits, but never implements validation itself. See DESIGN.md
// ("Stdlib-only concerns") for why the default is unicode/utf8 backed rather than a
// hand-rolled checker.
type Validator interface {
	Valid(b []byte) bool
}

// defaultValidator delegates to unicode/utf8.Valid. It is the zero
// value used when no Validator is configured.
type defaultValidator struct{}

func (defaultValidator) Valid(b []byte) bool { return utf8Valid(b) }

// noopValidator accepts every span without looking at it. Useful for
// callers who have already validated encoding upstream and want to
// skip the (small) per-string cost.
type noopValidator struct{}

func (noopValidator) Valid([]byte) bool { return true }

// NoopValidator returns a Validator that accepts all input unchecked.
func NoopValidator() Validator { return noopValidator{} }

// ParseOptions configures a single Parse/ParseOwned call, per the
// option table in spec.md §4.4.
type ParseOptions struct {
	// ParseArray: when false, arrays are captured raw unless they are
	// exactly the StartParseAt pointer itself.
	ParseArray bool

	// KeepObjectRawData: when true, object container entries also
	// carry the raw substring even when expanded.
	KeepObjectRawData bool

	// MaxDepth bounds how deep the parser descends before capturing
	// raw substrings instead of emitting children.
	MaxDepth uint8

	// StartParseAt, when set, restricts emission to entries whose
	// pointer begins with this value.
	StartParseAt string
	HasStartAt   bool

	// StartDepth declares the depth assigned to the outermost
	// container. Used by the depth expander and JSON-Lines driver to
	// stitch re-parses back into an existing result. HasStartDepth
	// distinguishes "not set" from the valid value 0.
	StartDepth    uint8
	HasStartDepth bool

	// Prefix is prepended to every emitted pointer.
	Prefix    string
	HasPrefix bool

	// Validator is consulted for every string span. Defaults to
	// unicode/utf8-backed validation if left nil.
	Validator Validator
}

// DefaultParseOptions returns the options used when none are supplied:
// arrays are parsed (not captured raw), object raw data is not
// duplicated, depth is effectively unbounded, and UTF-8 is validated
// with the default validator.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		ParseArray: true,
		MaxDepth:   255,
		Validator:  defaultValidator{},
	}
}

// Option mutates a ParseOptions. Following the functional-option
// pattern used by the teacher's options.go (ParserOption), options can
// be composed at the call site instead of filling in every struct
// field.
type Option func(*ParseOptions)

// NewParseOptions builds a ParseOptions starting from the defaults and
// applying opts in order.
func NewParseOptions(opts ...Option) ParseOptions {
	o := DefaultParseOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithParseArray controls whether arrays are parsed or captured raw.
func WithParseArray(b bool) Option {
	return func(o *ParseOptions) { o.ParseArray = b }
}

// WithKeepObjectRawData controls whether expanded objects also retain
// their raw substring.
func WithKeepObjectRawData(b bool) Option {
	return func(o *ParseOptions) { o.KeepObjectRawData = b }
}

// WithMaxDepth sets the depth budget relative to the effective root.
func WithMaxDepth(d uint8) Option {
	return func(o *ParseOptions) { o.MaxDepth = d }
}

// WithStartParseAt restricts emission to the given pointer's subtree.
func WithStartParseAt(pointer string) Option {
	return func(o *ParseOptions) {
		o.StartParseAt = pointer
		o.HasStartAt = true
	}
}

// WithStartDepth sets the depth assigned to the outermost container.
func WithStartDepth(d uint8) Option {
	return func(o *ParseOptions) {
		o.StartDepth = d
		o.HasStartDepth = true
	}
}

// WithPrefix prepends prefix to every emitted pointer.
func WithPrefix(prefix string) Option {
	return func(o *ParseOptions) {
		o.Prefix = prefix
		o.HasPrefix = true
	}
}

// WithValidator installs a custom UTF-8 validator.
func WithValidator(v Validator) Option {
	return func(o *ParseOptions) { o.Validator = v }
}

func (o ParseOptions) validator() Validator {
	if o.Validator == nil {
		return defaultValidator{}
	}
	return o.Validator
}
