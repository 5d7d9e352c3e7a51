package vmstack

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toncell-lab/emubridge/cell"
)

func mustInt(t *testing.T, dec string) *IntValue {
	t.Helper()

	num, ok := new(big.Int).SetString(dec, 10)
	require.True(t, ok)

	v, err := NewInt(num)
	require.NoError(t, err)

	return v
}

func buildTestCell(t *testing.T) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreUint(0xdeadbeef, 32))

	child := cell.NewBuilder()
	require.NoError(t, child.StoreUint(7, 3))

	c, err := child.Finalize()
	require.NoError(t, err)
	require.NoError(t, b.StoreRef(c))

	root, err := b.Finalize()
	require.NoError(t, err)

	return root
}

func cellB64(t *testing.T, c *cell.Cell) string {
	t.Helper()

	return base64.StdEncoding.EncodeToString(cell.Serialize(c, true))
}

func TestValueRoundTrip(t *testing.T) {
	t.Parallel()

	testCell := buildTestCell(t)

	tests := []struct {
		name  string
		value Value
	}{
		{"null", &NullValue{}},
		{"zero", mustInt(t, "0")},
		{"negative number", mustInt(t, "-123456789")},
		{
			"max magnitude",
			mustInt(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935"),
		},
		{"cell", &CellValue{Cell: testCell}},
		{"cell slice", &SliceValue{Slice: testCell.BeginParse()}},
		{"empty tuple", &TupleValue{}},
		{
			"nested tuple",
			&TupleValue{Elems: []Value{
				&NullValue{},
				mustInt(t, "5"),
				&TupleValue{Elems: []Value{&CellValue{Cell: testCell}}},
			}},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded, err := EncodeValue(tt.value)
			require.NoError(t, err)

			decoded, err := DecodeValue(encoded)
			require.NoError(t, err)

			assert.True(t, Equal(tt.value, decoded), "decode(encode(v)) != v: %s", encoded)
		})
	}
}

func TestStackRoundTripPreservesOrder(t *testing.T) {
	t.Parallel()

	st := Stack{
		mustInt(t, "1"),
		&NullValue{},
		mustInt(t, "2"),
	}

	encoded, err := EncodeStack(st)
	require.NoError(t, err)

	decoded, err := DecodeStack(encoded)
	require.NoError(t, err)

	require.Len(t, decoded, len(st))
	for i := range st {
		assert.True(t, Equal(st[i], decoded[i]), "stack entry %d reordered", i)
	}
}

func TestDecodeTupleOrdering(t *testing.T) {
	t.Parallel()

	input := `{"type":"tuple","value":[{"type":"null","value":null},{"type":"number","value":"5"}]}`

	decoded, err := DecodeValue([]byte(input))
	require.NoError(t, err)

	tuple, ok := decoded.(*TupleValue)
	require.True(t, ok)
	require.Len(t, tuple.Elems, 2)

	assert.True(t, Equal(&NullValue{}, tuple.Elems[0]))
	assert.True(t, Equal(mustInt(t, "5"), tuple.Elems[1]))

	// encoding back must keep the array order
	encoded, err := EncodeValue(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(encoded))
}

func TestDecodeEmptyTuple(t *testing.T) {
	t.Parallel()

	decoded, err := DecodeValue([]byte(`{"type":"tuple","value":[]}`))
	require.NoError(t, err)

	tuple, ok := decoded.(*TupleValue)
	require.True(t, ok)
	assert.Empty(t, tuple.Elems)
}

func TestDecodeNumberBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"max unsigned magnitude", "115792089237316195423570985008687907853269984665640564039457584007913129639935", true},
		{"min signed", "-115792089237316195423570985008687907853269984665640564039457584007913129639936", true},
		{"one past max", "115792089237316195423570985008687907853269984665640564039457584007913129639936", false},
		{"one past min", "-115792089237316195423570985008687907853269984665640564039457584007913129639937", false},
		{"not a number", "abc", false},
		{"empty", "", false},
		{"trailing junk", "15x", false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := fmt.Sprintf(`{"type":"number","value":%q}`, tt.value)

			decoded, err := DecodeValue([]byte(input))
			if !tt.ok {
				assert.ErrorIs(t, err, ErrIntegerParse)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded.(*IntValue).String())
		})
	}
}

func TestDecodeUnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := DecodeValue([]byte(`{"type":"bogus","value":null}`))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDecodeMalformedEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		match error
	}{
		{"not an object", `[1]`, ErrNotAnObject},
		{"missing type", `{"value":null}`, ErrNotAnObject},
		{"bad base64 cell", `{"type":"cell","value":"@@@"}`, ErrBase64},
		{"number not a string", `{"type":"number","value":5}`, ErrIntegerParse},
		{"tuple not an array", `{"type":"tuple","value":"x"}`, ErrNotAnObject},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeValue([]byte(tt.input))
			assert.ErrorIs(t, err, tt.match)
		})
	}
}

func TestDecodeCellBadBoc(t *testing.T) {
	t.Parallel()

	// valid base64 that is not a bag of cells
	input := fmt.Sprintf(`{"type":"cell","value":%q}`,
		base64.StdEncoding.EncodeToString([]byte("not a boc")))

	_, err := DecodeValue([]byte(input))
	assert.ErrorIs(t, err, cell.ErrMalformedBOC)
}

func TestDecodeDepthLimit(t *testing.T) {
	t.Parallel()

	depth := MaxDecodeDepth + 2
	input := strings.Repeat(`{"type":"tuple","value":[`, depth) +
		`{"type":"null","value":null}` +
		strings.Repeat(`]}`, depth)

	_, err := DecodeValue([]byte(input))
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestDecodeStackErrorsCarryPosition(t *testing.T) {
	t.Parallel()

	input := `[{"type":"null","value":null},{"type":"bogus","value":null}]`

	_, err := DecodeStack([]byte(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), "stack entry 1")
}

func TestEncodeSliceRemainderOnly(t *testing.T) {
	t.Parallel()

	testCell := buildTestCell(t)

	s := testCell.BeginParse()
	_, err := s.LoadUint(16)
	require.NoError(t, err)

	encoded, err := EncodeValue(&SliceValue{Slice: s})
	require.NoError(t, err)

	decoded, err := DecodeValue(encoded)
	require.NoError(t, err)

	rem := decoded.(*SliceValue).Slice
	assert.Equal(t, 16, rem.BitsRemaining())

	v, err := rem.Clone().LoadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xbeef), v)
}

func TestEncodeCellMatchesSerializedForm(t *testing.T) {
	t.Parallel()

	testCell := buildTestCell(t)

	encoded, err := EncodeValue(&CellValue{Cell: testCell})
	require.NoError(t, err)

	want := fmt.Sprintf(`{"type":"cell","value":%q}`, cellB64(t, testCell))
	assert.JSONEq(t, want, string(encoded))
}

func TestNewIntRange(t *testing.T) {
	t.Parallel()

	over := new(big.Int).Lsh(big.NewInt(1), 256)

	_, err := NewInt(over)
	assert.ErrorIs(t, err, ErrIntegerOutOfRange)

	_, err = NewInt(new(big.Int).Neg(over))
	assert.NoError(t, err)

	_, err = NewInt(nil)
	assert.ErrorIs(t, err, ErrIntegerOutOfRange)
}
