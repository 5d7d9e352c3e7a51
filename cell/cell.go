package cell

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/toncell-lab/emubridge/types"
)

const (
	// MaxPayloadBits is the payload capacity of a single cell
	MaxPayloadBits = 1023

	// MaxRefs is the reference capacity of a single cell
	MaxRefs = 4
)

// Cell is an immutable binary-tree node holding a bounded bit-string
// payload and an ordered list of child references. Cells are shared by
// pointer; the same cell may be referenced from multiple parents,
// forming a DAG. Identity is defined by the content hash
type Cell struct {
	bits  int
	data  []byte // ceil(bits/8) bytes, unused trailing bits zero
	refs  []*Cell
	hash  types.Hash
	depth uint16
}

// newCell takes ownership of data and refs. The caller must hand over
// buffers that are not mutated afterwards
func newCell(data []byte, bits int, refs []*Cell) (*Cell, error) {
	if bits < 0 || bits > MaxPayloadBits {
		return nil, fmt.Errorf("%w: %d payload bits", ErrCellOverflow, bits)
	}

	if len(refs) > MaxRefs {
		return nil, fmt.Errorf("%w: %d references", ErrCellOverflow, len(refs))
	}

	if len(data) != byteLen(bits) {
		return nil, fmt.Errorf("%w: payload length does not match bit count", ErrCellOverflow)
	}

	c := &Cell{
		bits: bits,
		data: data,
		refs: refs,
	}

	for _, ref := range refs {
		if ref.depth >= c.depth {
			c.depth = ref.depth + 1
		}
	}

	c.hash = sha256.Sum256(c.repr())

	return c, nil
}

// repr builds the standard representation the content hash is computed
// over: both descriptor bytes, the padded payload, then every child's
// depth followed by every child's hash
func (c *Cell) repr() []byte {
	body := c.paddedData()

	repr := make([]byte, 0, 2+len(body)+len(c.refs)*(2+types.HashLength))
	repr = append(repr, c.d1(), c.d2())
	repr = append(repr, body...)

	for _, ref := range c.refs {
		repr = binary.BigEndian.AppendUint16(repr, ref.depth)
	}

	for _, ref := range c.refs {
		repr = append(repr, ref.hash[:]...)
	}

	return repr
}

// d1 is the first descriptor byte: the reference count, with the
// exotic flag and level bits always clear for ordinary cells
func (c *Cell) d1() byte {
	return byte(len(c.refs))
}

// d2 is the second descriptor byte: floor(bits/8) + ceil(bits/8).
// An odd value marks a payload that ends mid-byte
func (c *Cell) d2() byte {
	return byte(c.bits/8 + (c.bits+7)/8)
}

// paddedData returns the payload with the completion tag applied when
// the payload ends mid-byte
func (c *Cell) paddedData() []byte {
	body := types.CopyBytes(c.data)
	if c.bits%8 != 0 {
		body[len(body)-1] |= 1 << (7 - uint(c.bits%8))
	}

	return body
}

// Bits returns the payload length in bits
func (c *Cell) Bits() int {
	return c.bits
}

// Data returns a copy of the raw payload bytes, without completion tag
func (c *Cell) Data() []byte {
	return types.CopyBytes(c.data)
}

// RefsCount returns the number of child references
func (c *Cell) RefsCount() int {
	return len(c.refs)
}

// Ref returns the i-th child reference
func (c *Cell) Ref(i int) *Cell {
	return c.refs[i]
}

// Hash returns the content hash derived from the payload and the
// children's hashes
func (c *Cell) Hash() types.Hash {
	return c.hash
}

// Depth returns the longest reference chain below this cell
func (c *Cell) Depth() uint16 {
	return c.depth
}

// Equal reports hash equality
func (c *Cell) Equal(other *Cell) bool {
	if other == nil {
		return false
	}

	return c.hash == other.hash
}

// BeginParse opens a read cursor over this cell at position zero
func (c *Cell) BeginParse() *Slice {
	return &Slice{cell: c}
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}

func bitAt(data []byte, i int) bool {
	return data[i/8]&(1<<(7-uint(i%8))) != 0
}
