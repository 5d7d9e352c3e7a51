package cell

import "fmt"

// Builder assembles a new cell by appending bits and references.
// The zero value is not usable; construct with NewBuilder
type Builder struct {
	data []byte
	bits int
	refs []*Cell
}

func NewBuilder() *Builder {
	return &Builder{
		data: make([]byte, 0, byteLen(MaxPayloadBits)),
	}
}

// BitsStored returns the number of payload bits appended so far
func (b *Builder) BitsStored() int {
	return b.bits
}

// RefsStored returns the number of references appended so far
func (b *Builder) RefsStored() int {
	return len(b.refs)
}

func (b *Builder) StoreBit(v bool) error {
	if b.bits+1 > MaxPayloadBits {
		return ErrCellOverflow
	}

	if b.bits%8 == 0 {
		b.data = append(b.data, 0)
	}

	if v {
		b.data[b.bits/8] |= 1 << (7 - uint(b.bits%8))
	}

	b.bits++

	return nil
}

// StoreUint appends the low n bits of v, most significant bit first
func (b *Builder) StoreUint(v uint64, n int) error {
	if n < 0 || n > 64 {
		return fmt.Errorf("%w: invalid uint width %d", ErrCellOverflow, n)
	}

	for i := n - 1; i >= 0; i-- {
		if err := b.StoreBit(v&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}

	return nil
}

// StoreBits appends the first n bits of src, most significant bit of
// src[0] first
func (b *Builder) StoreBits(src []byte, n int) error {
	if n > len(src)*8 {
		return fmt.Errorf("%w: source holds fewer than %d bits", ErrCellOverflow, n)
	}

	for i := 0; i < n; i++ {
		if err := b.StoreBit(bitAt(src, i)); err != nil {
			return err
		}
	}

	return nil
}

func (b *Builder) StoreRef(c *Cell) error {
	if len(b.refs)+1 > MaxRefs {
		return fmt.Errorf("%w: too many references", ErrCellOverflow)
	}

	b.refs = append(b.refs, c)

	return nil
}

// StoreSlice appends the unconsumed payload bits and references of s
func (b *Builder) StoreSlice(s *Slice) error {
	rem := s.Clone()

	bits, err := rem.LoadBits(rem.BitsRemaining())
	if err != nil {
		return err
	}

	if err := b.StoreBits(bits, s.BitsRemaining()); err != nil {
		return err
	}

	for rem.RefsRemaining() > 0 {
		ref, err := rem.LoadRef()
		if err != nil {
			return err
		}

		if err := b.StoreRef(ref); err != nil {
			return err
		}
	}

	return nil
}

// Finalize constructs the immutable cell. The builder must not be
// reused afterwards
func (b *Builder) Finalize() (*Cell, error) {
	return newCell(b.data, b.bits, b.refs)
}
