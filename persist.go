package flatjson

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Binary snapshot format (SPEC_FULL.md §11.3), mirroring the teacher's
// parsed_serialize.go block-compression split: pointers/tags (small,
// highly repetitive) go through s2 for fast decode; captured raw
// payloads (bulkier, less compressible) go through zstd.
const (
	persistMagic   = "FJSN"
	persistVersion = uint32(1)
)

// Persist writes a binary snapshot of r to w.
func Persist(w io.Writer, r *ParseResult) error {
	var structBuf, rawBuf bytes.Buffer
	for _, e := range r.Entries {
		if err := writeLenPrefixedString(&structBuf, e.Key.Pointer); err != nil {
			return err
		}
		if err := binary.Write(&structBuf, binary.LittleEndian, struct {
			Kind     uint8
			Len      int32
			Parsed   uint8
			Elements int32
			Depth    uint8
			HasValue uint8
		}{
			Kind:     uint8(e.Key.ValueType.Kind),
			Len:      int32(e.Key.ValueType.Len),
			Parsed:   boolByte(e.Key.ValueType.Parsed),
			Elements: int32(e.Key.ValueType.Elements),
			Depth:    e.Key.Depth,
			HasValue: boolByte(e.HasValue),
		}); err != nil {
			return err
		}
		if err := binary.Write(&structBuf, binary.LittleEndian, e.Key.Position); err != nil {
			return err
		}
		raw := []byte(nil)
		if e.HasValue {
			raw = e.Value.Bytes()
		}
		if err := binary.Write(&structBuf, binary.LittleEndian, uint32(len(raw))); err != nil {
			return err
		}
		rawBuf.Write(raw)
	}

	compStruct := s2.Encode(nil, structBuf.Bytes())

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compRaw := zw.EncodeAll(rawBuf.Bytes(), nil)
	if err := zw.Close(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(persistMagic); err != nil {
		return err
	}
	meta := []any{
		persistVersion,
		uint32(len(r.Entries)),
		int32(r.MaxJSONDepth),
		r.ParsingMaxDepth,
		r.DepthAfterStartAt,
	}
	for _, field := range meta {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	if err := writeLenPrefixedString(bw, r.StartedParsingAt); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, boolByte(r.HasStartedAt)); err != nil {
		return err
	}
	if err := writeLenPrefixedString(bw, r.ParsingPrefix); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, boolByte(r.HasParsingPrefix)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(compStruct))); err != nil {
		return err
	}
	if _, err := bw.Write(compStruct); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(compRaw))); err != nil {
		return err
	}
	if _, err := bw.Write(compRaw); err != nil {
		return err
	}
	return bw.Flush()
}

// Load reads back a snapshot written by Persist. The returned result's
// entries own their Value bytes independently of any external buffer.
func Load(r io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(persistMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("flatjson: reading snapshot magic: %w", err)
	}
	if string(magic) != persistMagic {
		return nil, fmt.Errorf("flatjson: not a flatjson snapshot")
	}
	var version, entryCount uint32
	var maxJSONDepth int32
	var parsingMaxDepth, depthAfterStartAt uint8
	for _, field := range []any{&version, &entryCount, &maxJSONDepth, &parsingMaxDepth, &depthAfterStartAt} {
		if err := binary.Read(br, binary.LittleEndian, field); err != nil {
			return nil, err
		}
	}
	if version != persistVersion {
		return nil, fmt.Errorf("flatjson: unsupported snapshot version %d", version)
	}
	startedAt, err := readLenPrefixedString(br)
	if err != nil {
		return nil, err
	}
	var hasStartedAtByte, hasPrefixByte uint8
	if err := binary.Read(br, binary.LittleEndian, &hasStartedAtByte); err != nil {
		return nil, err
	}
	prefix, err := readLenPrefixedString(br)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &hasPrefixByte); err != nil {
		return nil, err
	}

	var structLen, rawLen uint32
	if err := binary.Read(br, binary.LittleEndian, &structLen); err != nil {
		return nil, err
	}
	compStruct := make([]byte, structLen)
	if _, err := io.ReadFull(br, compStruct); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &rawLen); err != nil {
		return nil, err
	}
	compRaw := make([]byte, rawLen)
	if _, err := io.ReadFull(br, compRaw); err != nil {
		return nil, err
	}

	structBytes, err := s2.Decode(nil, compStruct)
	if err != nil {
		return nil, fmt.Errorf("flatjson: decoding s2 structural block: %w", err)
	}
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	rawBytes, err := zr.DecodeAll(compRaw, nil)
	if err != nil {
		return nil, fmt.Errorf("flatjson: decoding zstd raw block: %w", err)
	}

	sr := bytes.NewReader(structBytes)
	rawOffset := 0
	entries := make([]FlatEntry, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		pointer, err := readLenPrefixedString(sr)
		if err != nil {
			return nil, err
		}
		var fixed struct {
			Kind     uint8
			Len      int32
			Parsed   uint8
			Elements int32
			Depth    uint8
			HasValue uint8
		}
		if err := binary.Read(sr, binary.LittleEndian, &fixed); err != nil {
			return nil, err
		}
		var position uint64
		if err := binary.Read(sr, binary.LittleEndian, &position); err != nil {
			return nil, err
		}
		var rawLen uint32
		if err := binary.Read(sr, binary.LittleEndian, &rawLen); err != nil {
			return nil, err
		}
		var value Slice
		hasValue := fixed.HasValue != 0
		if hasValue {
			value = OwnedSlice(string(rawBytes[rawOffset : rawOffset+int(rawLen)]))
		}
		rawOffset += int(rawLen)

		entries[i] = FlatEntry{
			Key: PointerKey{
				Pointer: pointer,
				ValueType: ValueType{
					Kind:     Kind(fixed.Kind),
					Len:      int(fixed.Len),
					Parsed:   fixed.Parsed != 0,
					Elements: int(fixed.Elements),
				},
				Depth:    fixed.Depth,
				Position: position,
			},
			Value:    value,
			HasValue: hasValue,
		}
	}

	return &ParseResult{
		Entries:           entries,
		MaxJSONDepth:      int(maxJSONDepth),
		ParsingMaxDepth:   parsingMaxDepth,
		StartedParsingAt:  startedAt,
		HasStartedAt:      hasStartedAtByte != 0,
		ParsingPrefix:     prefix,
		HasParsingPrefix:  hasPrefixByte != 0,
		DepthAfterStartAt: depthAfterStartAt,
	}, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func writeLenPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readLenPrefixedString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
