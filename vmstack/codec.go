package vmstack

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/valyala/fastjson"

	"github.com/toncell-lab/emubridge/cell"
)

// MaxDecodeDepth bounds tuple nesting on the decode path so that
// adversarial input cannot grow the call stack without limit. It is
// kept under fastjson's own parse depth limit so the caller sees
// ErrDepthExceeded rather than a parser error
const MaxDecodeDepth = 128

// wire type tags
const (
	typeCell  = "cell"
	typeSlice = "cell_slice"
	typeNum   = "number"
	typeTuple = "tuple"
	typeNull  = "null"

	// typeUnsupported is emitted, never accepted: an internal variant
	// the codec cannot represent encodes to this sentinel instead of
	// failing, for wire compatibility with existing consumers
	typeUnsupported = "UNSUPPORTED STACK ENTRY TYPE"
)

var (
	// ErrUnsupportedType is returned for an unrecognized type tag
	// during decode
	ErrUnsupportedType = errors.New("unsupported stack entry type")

	// ErrIntegerParse is returned when a number value is not a
	// decimal integer within the machine range
	ErrIntegerParse = errors.New("error parsing string to int257")

	// ErrDepthExceeded is returned when tuple nesting passes
	// MaxDecodeDepth
	ErrDepthExceeded = errors.New("stack entry nesting too deep")

	// ErrBase64 is returned on malformed base64 content
	ErrBase64 = errors.New("malformed base64")

	// ErrNotAnObject is returned when a stack entry is not a tagged
	// JSON object
	ErrNotAnObject = errors.New("stack entry of object type expected")

	// ErrNotAnArray is returned when a stack is not a JSON array
	ErrNotAnArray = errors.New("stack of type array expected")
)

var stackParserPool fastjson.ParserPool

// DecodeStack parses a JSON array of tagged objects into a stack,
// preserving array order
func DecodeStack(data []byte) (Stack, error) {
	p := stackParserPool.Get()
	defer stackParserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode stack json: %w", err)
	}

	entries, err := v.Array()
	if err != nil {
		return nil, ErrNotAnArray
	}

	st := make(Stack, 0, len(entries))

	for i, entry := range entries {
		val, err := decodeValue(entry, 0)
		if err != nil {
			return nil, fmt.Errorf("stack entry %d: %w", i, err)
		}

		st = append(st, val)
	}

	return st, nil
}

// DecodeValue parses one tagged JSON object into a value
func DecodeValue(data []byte) (Value, error) {
	p := stackParserPool.Get()
	defer stackParserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode stack entry json: %w", err)
	}

	return decodeValue(v, 0)
}

func decodeValue(v *fastjson.Value, depth int) (Value, error) {
	if depth > MaxDecodeDepth {
		return nil, ErrDepthExceeded
	}

	if v.Type() != fastjson.TypeObject {
		return nil, ErrNotAnObject
	}

	tag := v.GetStringBytes("type")
	if tag == nil {
		return nil, fmt.Errorf("%w: missing type field", ErrNotAnObject)
	}

	switch string(tag) {
	case typeNull:
		return &NullValue{}, nil

	case typeNum:
		return decodeNumber(v)

	case typeCell:
		c, err := decodeCellField(v)
		if err != nil {
			return nil, err
		}

		return &CellValue{Cell: c}, nil

	case typeSlice:
		c, err := decodeCellField(v)
		if err != nil {
			return nil, err
		}

		return &SliceValue{Slice: c.BeginParse()}, nil

	case typeTuple:
		return decodeTuple(v, depth)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, tag)
	}
}

func decodeNumber(v *fastjson.Value) (Value, error) {
	raw := v.GetStringBytes("value")
	if raw == nil {
		return nil, fmt.Errorf("%w: value must be a decimal string", ErrIntegerParse)
	}

	num, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrIntegerParse, raw)
	}

	val, err := NewInt(num)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrIntegerParse, raw)
	}

	return val, nil
}

func decodeCellField(v *fastjson.Value) (*cell.Cell, error) {
	raw := v.GetStringBytes("value")
	if raw == nil {
		return nil, fmt.Errorf("%w: value must be a base64 string", ErrBase64)
	}

	boc, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}

	c, err := cell.Deserialize(boc)
	if err != nil {
		return nil, fmt.Errorf("can't deserialize value boc: %w", err)
	}

	return c, nil
}

func decodeTuple(v *fastjson.Value, depth int) (Value, error) {
	arr := v.GetArray("value")
	if arr == nil {
		return nil, fmt.Errorf("%w: tuple value must be an array", ErrNotAnObject)
	}

	elems := make([]Value, 0, len(arr))

	for i, entry := range arr {
		elem, err := decodeValue(entry, depth+1)
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}

		elems = append(elems, elem)
	}

	return &TupleValue{Elems: elems}, nil
}

// entryJSON is the wire shape of one encoded stack entry
type entryJSON struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// EncodeStack serializes a stack into a JSON array, preserving order
func EncodeStack(st Stack) ([]byte, error) {
	entries := make([]entryJSON, 0, len(st))

	for i, val := range st {
		entry, err := encodeValue(val)
		if err != nil {
			return nil, fmt.Errorf("stack entry %d: %w", i, err)
		}

		entries = append(entries, entry)
	}

	return json.Marshal(entries)
}

// EncodeValue serializes one value into its tagged JSON object form
func EncodeValue(val Value) ([]byte, error) {
	entry, err := encodeValue(val)
	if err != nil {
		return nil, err
	}

	return json.Marshal(entry)
}

func encodeValue(val Value) (entryJSON, error) {
	switch v := val.(type) {
	case *NullValue:
		return entryJSON{Type: typeNull, Value: nil}, nil

	case *IntValue:
		return entryJSON{Type: typeNum, Value: v.String()}, nil

	case *CellValue:
		return entryJSON{
			Type:  typeCell,
			Value: base64.StdEncoding.EncodeToString(cell.Serialize(v.Cell, true)),
		}, nil

	case *SliceValue:
		// only the unconsumed remainder is re-serialized
		rem, err := v.Slice.ToCell()
		if err != nil {
			return entryJSON{}, fmt.Errorf("can't materialize slice remainder: %w", err)
		}

		return entryJSON{
			Type:  typeSlice,
			Value: base64.StdEncoding.EncodeToString(cell.Serialize(rem, true)),
		}, nil

	case *TupleValue:
		elems := make([]entryJSON, 0, len(v.Elems))

		for i, elem := range v.Elems {
			encoded, err := encodeValue(elem)
			if err != nil {
				return entryJSON{}, fmt.Errorf("tuple element %d: %w", i, err)
			}

			elems = append(elems, encoded)
		}

		return entryJSON{Type: typeTuple, Value: elems}, nil

	default:
		// deliberate output-side leniency, see typeUnsupported
		return entryJSON{Type: typeUnsupported, Value: nil}, nil
	}
}
