package cell

import (
	"fmt"
	"math/big"
)

// Slice is a non-owning read cursor over one cell's payload and
// references. Reads consume sequentially and never mutate the
// underlying cell; consuming past the end is an error
type Slice struct {
	cell   *Cell
	bitPos int
	refPos int
}

// Cell returns the underlying cell the slice was opened on
func (s *Slice) Cell() *Cell {
	return s.cell
}

// BitsRemaining returns the number of unconsumed payload bits
func (s *Slice) BitsRemaining() int {
	return s.cell.bits - s.bitPos
}

// RefsRemaining returns the number of unconsumed references
func (s *Slice) RefsRemaining() int {
	return len(s.cell.refs) - s.refPos
}

// Clone returns an independent cursor at the same position
func (s *Slice) Clone() *Slice {
	return &Slice{
		cell:   s.cell,
		bitPos: s.bitPos,
		refPos: s.refPos,
	}
}

func (s *Slice) LoadBit() (bool, error) {
	if s.BitsRemaining() < 1 {
		return false, ErrCursorUnderflow
	}

	v := bitAt(s.cell.data, s.bitPos)
	s.bitPos++

	return v, nil
}

// LoadUint consumes n bits (n <= 64) as a big-endian unsigned integer
func (s *Slice) LoadUint(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("%w: invalid uint width %d", ErrCursorUnderflow, n)
	}

	if s.BitsRemaining() < n {
		return 0, ErrCursorUnderflow
	}

	var v uint64
	for i := 0; i < n; i++ {
		v <<= 1
		if bitAt(s.cell.data, s.bitPos+i) {
			v |= 1
		}
	}

	s.bitPos += n

	return v, nil
}

// PreloadUint reads n bits without consuming them
func (s *Slice) PreloadUint(n int) (uint64, error) {
	v, err := s.Clone().LoadUint(n)

	return v, err
}

// LoadBits consumes n bits into a fresh byte slice, most significant
// bit first, zero padded at the tail
func (s *Slice) LoadBits(n int) ([]byte, error) {
	if n < 0 || s.BitsRemaining() < n {
		return nil, ErrCursorUnderflow
	}

	out := make([]byte, byteLen(n))
	for i := 0; i < n; i++ {
		if bitAt(s.cell.data, s.bitPos+i) {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}

	s.bitPos += n

	return out, nil
}

// LoadBigUint consumes n bits as an arbitrary-precision unsigned
// integer
func (s *Slice) LoadBigUint(n int) (*big.Int, error) {
	raw, err := s.LoadBits(n)
	if err != nil {
		return nil, err
	}

	v := new(big.Int).SetBytes(raw)
	if pad := byteLen(n)*8 - n; pad > 0 {
		v.Rsh(v, uint(pad))
	}

	return v, nil
}

func (s *Slice) SkipBits(n int) error {
	if n < 0 || s.BitsRemaining() < n {
		return ErrCursorUnderflow
	}

	s.bitPos += n

	return nil
}

func (s *Slice) LoadRef() (*Cell, error) {
	if s.RefsRemaining() < 1 {
		return nil, ErrCursorUnderflow
	}

	ref := s.cell.refs[s.refPos]
	s.refPos++

	return ref, nil
}

func (s *Slice) SkipRefs(n int) error {
	if n < 0 || s.RefsRemaining() < n {
		return ErrCursorUnderflow
	}

	s.refPos += n

	return nil
}

// ToCell materializes a new owned cell from the unconsumed payload and
// references, leaving the cursor position untouched
func (s *Slice) ToCell() (*Cell, error) {
	b := NewBuilder()
	if err := b.StoreSlice(s); err != nil {
		return nil, err
	}

	return b.Finalize()
}
