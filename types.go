/*
 * MinIO Cloud Storage, (C) 2020 MinIO, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package flatjson parses JSON into a flattened, pointer-addressed
// representation: every leaf and every container becomes one entry
// keyed by its RFC 6901 JSON Pointer, instead of a conventional tree.
package flatjson

import "fmt"

// Kind tags the variant a ValueType carries.
type Kind uint8

const (
	KindNone Kind = iota
	KindArray
	KindObject
	KindNumber
	KindString
	KindBool
	KindNull
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "none"
	}
}

// ValueType is the tagged variant described in spec.md §3.
//
// Only the fields relevant to Kind are meaningful:
//   - KindArray uses Len.
//   - KindObject uses Parsed and Elements.
type ValueType struct {
	Kind     Kind
	Len      int  // Array: number of direct children (for a raw capture, top-level commas + 1, or 0 if empty).
	Parsed   bool // Object: true if children were flattened into the vector.
	Elements int  // Object: number of direct children, when Parsed.
}

// Array returns a container ValueType for an array with len children.
func Array(len int) ValueType { return ValueType{Kind: KindArray, Len: len} }

// Object returns a container ValueType for an object.
func Object(parsed bool, elements int) ValueType {
	return ValueType{Kind: KindObject, Parsed: parsed, Elements: elements}
}

// Scalar value types. These carry no payload beyond the entry's Value slice.
var (
	Number = ValueType{Kind: KindNumber}
	String = ValueType{Kind: KindString}
	Bool   = ValueType{Kind: KindBool}
	Null   = ValueType{Kind: KindNull}
)

func (v ValueType) String() string {
	switch v.Kind {
	case KindArray:
		return fmt.Sprintf("Array(%d)", v.Len)
	case KindObject:
		return fmt.Sprintf("Object(%v,%d)", v.Parsed, v.Elements)
	default:
		return v.Kind.String()
	}
}

// IsContainer reports whether v is an array or object.
func (v ValueType) IsContainer() bool {
	return v.Kind == KindArray || v.Kind == KindObject
}

// Slice is a span of bytes that is either borrowed from the original
// input buffer or owned (copied into its own storage). Borrowed spans
// are cheaper but tie the result's lifetime to the input buffer; owned
// spans are independent copies, used by ParseOwned and by Load once a
// value must outlive the original buffer.
type Slice struct {
	owned    string
	borrowed []byte
	isOwned  bool
}

// BorrowedSlice wraps a span of the original input buffer.
func BorrowedSlice(b []byte) Slice { return Slice{borrowed: b} }

// OwnedSlice wraps an independently-owned string.
func OwnedSlice(s string) Slice { return Slice{owned: s, isOwned: true} }

// Bytes returns the slice contents as a byte slice. The returned slice
// must not be modified if the Slice is borrowed.
func (s Slice) Bytes() []byte {
	if s.isOwned {
		return []byte(s.owned)
	}
	return s.borrowed
}

// String returns the slice contents as a string, copying if borrowed.
func (s Slice) String() string {
	if s.isOwned {
		return s.owned
	}
	return string(s.borrowed)
}

// IsOwned reports whether the slice has been copied out of the input buffer.
func (s Slice) IsOwned() bool { return s.isOwned }

// Owned returns a copy of s that no longer references the input buffer.
func (s Slice) Owned() Slice {
	if s.isOwned {
		return s
	}
	return OwnedSlice(string(s.borrowed))
}

// PointerKey identifies one flattened entry, per spec.md §3.
type PointerKey struct {
	Pointer   string
	ValueType ValueType
	Depth     uint8
	Position  uint64
	ColumnID  uint64 // reserved for external association; unused by the core.
}

// FlatEntry is one record of the flattened representation.
// Value is unset (the zero Slice) for fully-expanded containers.
type FlatEntry struct {
	Key      PointerKey
	Value    Slice
	HasValue bool
}

// ParseResult is the output of Parse/ParseOwned/ParseJSONL, per spec.md §3.
type ParseResult struct {
	Entries []FlatEntry

	MaxJSONDepth      int
	ParsingMaxDepth   uint8
	StartedParsingAt  string
	HasStartedAt      bool
	StartIndexStart   int
	StartIndexEnd     int
	ParsingPrefix     string
	HasParsingPrefix  bool
	DepthAfterStartAt uint8

	// CorrelationID tags this parse run for log correlation. See
	// SPEC_FULL.md §11.2. It has no bearing on the flattened data model.
	CorrelationID string

	// Options records the ParseOptions used to produce this result,
	// so ChangeDepth can re-parse captured raw spans with the same
	// ParseArray/KeepObjectRawData/Validator policy by default.
	Options ParseOptions

	// input holds the bytes the result was parsed from (a private copy
	// for ParseOwned). ChangeDepth refuses to run when it is nil, as it
	// is for a result returned by Load.
	input []byte

	// byPointer is a lazily-built secondary index from pointer to entry
	// index, used by FindByPointer. It is invalidated by DeleteChild.
	byPointer map[string]int
}

func (r *ParseResult) invalidateIndex() {
	r.byPointer = nil
}
