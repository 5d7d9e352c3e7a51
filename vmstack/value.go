package vmstack

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/toncell-lab/emubridge/cell"
)

var (
	// ErrIntegerOutOfRange is returned when an integer does not fit
	// the 257-bit signed machine range
	ErrIntegerOutOfRange = errors.New("integer out of 257-bit signed range")
)

// minInt and maxInt bound the machine integer range:
// -2^256 <= x < 2^256
var (
	minInt = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 256))
	maxInt = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Value is one tagged stack entry exchanged with the execution engine.
// Values are immutable once constructed
type Value interface {
	value()
}

// Stack is an ordered sequence of values for one method invocation.
// Position is significant and preserved end to end
type Stack []Value

// NullValue is the absence marker
type NullValue struct{}

// IntValue holds a signed arbitrary-precision integer bounded to the
// 257-bit machine range
type IntValue struct {
	big *big.Int
}

// CellValue shares a reference to a whole cell
type CellValue struct {
	Cell *cell.Cell
}

// SliceValue shares a reference to a cell cursor, including its
// current position
type SliceValue struct {
	Slice *cell.Slice
}

// TupleValue is an ordered sequence of fully-formed values. The
// element slice is shared: the same tuple may appear on multiple
// stacks
type TupleValue struct {
	Elems []Value
}

func (*NullValue) value()  {}
func (*IntValue) value()   {}
func (*CellValue) value()  {}
func (*SliceValue) value() {}
func (*TupleValue) value() {}

// NewInt constructs an integer value, rejecting magnitudes outside
// the machine range
func NewInt(v *big.Int) (*IntValue, error) {
	if v == nil || v.Cmp(minInt) < 0 || v.Cmp(maxInt) > 0 {
		return nil, ErrIntegerOutOfRange
	}

	return &IntValue{big: new(big.Int).Set(v)}, nil
}

// Big returns a copy of the held integer
func (v *IntValue) Big() *big.Int {
	return new(big.Int).Set(v.big)
}

// String returns the canonical decimal form, sign-preserving, with no
// redundant leading zeros
func (v *IntValue) String() string {
	return v.big.Text(10)
}

// Equal reports deep structural equality, including tuple order
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *NullValue:
		_, ok := b.(*NullValue)

		return ok

	case *IntValue:
		bv, ok := b.(*IntValue)

		return ok && av.big.Cmp(bv.big) == 0

	case *CellValue:
		bv, ok := b.(*CellValue)

		return ok && av.Cell.Equal(bv.Cell)

	case *SliceValue:
		bv, ok := b.(*SliceValue)
		if !ok {
			return false
		}

		ac, errA := av.Slice.ToCell()
		bc, errB := bv.Slice.ToCell()

		return errA == nil && errB == nil && ac.Equal(bc)

	case *TupleValue:
		bv, ok := b.(*TupleValue)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}

		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}

		return true

	default:
		return false
	}
}

func (s Stack) String() string {
	return fmt.Sprintf("stack[%d]", len(s))
}
