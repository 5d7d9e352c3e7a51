package cell

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math/bits"

	"github.com/toncell-lab/emubridge/types"
)

// bag-of-cells framing constants
const (
	bocMagic = 0xb5ee9c72

	flagHasIndex     = 0x80
	flagHasCRC       = 0x40
	flagHasCacheBits = 0x20
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Serialize produces the canonical bag-of-cells form of a single root,
// deduplicating repeated sub-cells by content hash. The output is
// deterministic for a given cell graph
func Serialize(root *Cell, withCRC bool) []byte {
	order := topoOrder(root)

	index := make(map[types.Hash]int, len(order))
	for i, c := range order {
		index[c.hash] = i
	}

	refSize := minBytes(uint64(len(order)))

	totalSize := uint64(0)
	for _, c := range order {
		totalSize += uint64(2 + len(c.paddedData()) + len(c.refs)*refSize)
	}

	offBytes := minBytes(totalSize)

	out := make([]byte, 0, 16+int(totalSize))
	out = binary.BigEndian.AppendUint32(out, bocMagic)

	flags := byte(refSize)
	if withCRC {
		flags |= flagHasCRC
	}

	out = append(out, flags, byte(offBytes))
	out = appendUintN(out, uint64(len(order)), refSize) // cell count
	out = appendUintN(out, 1, refSize)                  // root count
	out = appendUintN(out, 0, refSize)                  // absent count
	out = appendUintN(out, totalSize, offBytes)
	out = appendUintN(out, 0, refSize) // root index

	for _, c := range order {
		out = append(out, c.d1(), c.d2())
		out = append(out, c.paddedData()...)

		for _, ref := range c.refs {
			out = appendUintN(out, uint64(index[ref.hash]), refSize)
		}
	}

	if withCRC {
		out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(out, crcTable))
	}

	return out
}

// topoOrder lists root and every transitively reachable cell exactly
// once, parents strictly before children (reverse DFS postorder)
func topoOrder(root *Cell) []*Cell {
	var (
		order []*Cell
		seen  = map[types.Hash]struct{}{}
		visit func(c *Cell)
	)

	visit = func(c *Cell) {
		if _, ok := seen[c.hash]; ok {
			return
		}

		seen[c.hash] = struct{}{}

		for i := len(c.refs) - 1; i >= 0; i-- {
			visit(c.refs[i])
		}

		order = append(order, c)
	}
	visit(root)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	return order
}

// rawCell is a parsed but not yet linked cell record
type rawCell struct {
	data []byte
	bits int
	refs []int
}

// Deserialize parses a canonical bag of cells encoding exactly one
// root cell. A present checksum is always verified
func Deserialize(data []byte) (*Cell, error) {
	r := &bocReader{data: data}

	magic, err := r.readUintN(4)
	if err != nil {
		return nil, err
	}

	if magic != bocMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedBOC)
	}

	flags, err := r.readByte()
	if err != nil {
		return nil, err
	}

	refSize := int(flags & 0x07)
	if refSize < 1 || refSize > 4 {
		return nil, fmt.Errorf("%w: reference size %d", ErrMalformedBOC, refSize)
	}

	if flags&flagHasCRC != 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: truncated checksum", ErrMalformedBOC)
		}

		body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
		if crc32.Checksum(body, crcTable) != sum {
			return nil, ErrChecksumMismatch
		}

		r.limit = len(data) - 4
	}

	offBytes, err := r.readByte()
	if err != nil {
		return nil, err
	}

	if offBytes < 1 || offBytes > 8 {
		return nil, fmt.Errorf("%w: offset size %d", ErrMalformedBOC, offBytes)
	}

	cellCount, err := r.readUintN(refSize)
	if err != nil {
		return nil, err
	}

	rootCount, err := r.readUintN(refSize)
	if err != nil {
		return nil, err
	}

	absentCount, err := r.readUintN(refSize)
	if err != nil {
		return nil, err
	}

	if rootCount != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrUnexpectedRootCount, rootCount)
	}

	if absentCount != 0 {
		return nil, fmt.Errorf("%w: absent cells not supported", ErrMalformedBOC)
	}

	if cellCount == 0 || cellCount > uint64(len(data)) {
		return nil, fmt.Errorf("%w: implausible cell count %d", ErrMalformedBOC, cellCount)
	}

	totalSize, err := r.readUintN(int(offBytes))
	if err != nil {
		return nil, err
	}

	rootIdx, err := r.readUintN(refSize)
	if err != nil {
		return nil, err
	}

	if rootIdx >= cellCount {
		return nil, fmt.Errorf("%w: root index out of range", ErrMalformedBOC)
	}

	if flags&flagHasIndex != 0 {
		if err := r.skip(int(cellCount) * int(offBytes)); err != nil {
			return nil, err
		}
	}

	cellsStart := r.pos

	raw := make([]rawCell, cellCount)
	for i := range raw {
		if err := r.readRawCell(&raw[i], refSize, i, int(cellCount)); err != nil {
			return nil, err
		}
	}

	if uint64(r.pos-cellsStart) != totalSize {
		return nil, fmt.Errorf("%w: declared data size does not match", ErrMalformedBOC)
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrMalformedBOC)
	}

	// references always point forward, so cells link bottom-up
	cells := make([]*Cell, cellCount)
	for i := int(cellCount) - 1; i >= 0; i-- {
		refs := make([]*Cell, len(raw[i].refs))
		for j, refIdx := range raw[i].refs {
			refs[j] = cells[refIdx]
		}

		c, err := newCell(raw[i].data, raw[i].bits, refs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBOC, err)
		}

		cells[i] = c
	}

	return cells[rootIdx], nil
}

type bocReader struct {
	data  []byte
	pos   int
	limit int // 0 means len(data)
}

func (r *bocReader) end() int {
	if r.limit > 0 {
		return r.limit
	}

	return len(r.data)
}

func (r *bocReader) remaining() int {
	return r.end() - r.pos
}

func (r *bocReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: truncated", ErrMalformedBOC)
	}

	b := r.data[r.pos]
	r.pos++

	return b, nil
}

func (r *bocReader) readUintN(n int) (uint64, error) {
	if r.remaining() < n {
		return 0, fmt.Errorf("%w: truncated", ErrMalformedBOC)
	}

	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(r.data[r.pos+i])
	}

	r.pos += n

	return v, nil
}

func (r *bocReader) skip(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("%w: truncated", ErrMalformedBOC)
	}

	r.pos += n

	return nil
}

func (r *bocReader) readRawCell(rc *rawCell, refSize, idx, cellCount int) error {
	d1, err := r.readByte()
	if err != nil {
		return err
	}

	if d1&0x08 != 0 {
		return fmt.Errorf("%w: exotic cells not supported", ErrMalformedBOC)
	}

	if d1&0x10 != 0 {
		return fmt.Errorf("%w: stored cell hashes not supported", ErrMalformedBOC)
	}

	if d1>>5 != 0 {
		return fmt.Errorf("%w: non-zero cell level", ErrMalformedBOC)
	}

	refsCount := int(d1 & 0x07)
	if refsCount > MaxRefs {
		return fmt.Errorf("%w: cell with %d references", ErrMalformedBOC, refsCount)
	}

	d2, err := r.readByte()
	if err != nil {
		return err
	}

	dataBytes := (int(d2) + 1) / 2
	if r.remaining() < dataBytes {
		return fmt.Errorf("%w: truncated cell payload", ErrMalformedBOC)
	}

	body := types.CopyBytes(r.data[r.pos : r.pos+dataBytes])
	r.pos += dataBytes

	bitLen := (int(d2) / 2) * 8

	if d2&1 != 0 {
		// payload ends mid-byte: locate and strip the completion tag
		last := body[dataBytes-1]
		if last == 0 {
			return fmt.Errorf("%w: missing completion tag", ErrMalformedBOC)
		}

		tagPos := bits.TrailingZeros8(last)
		bitLen += 7 - tagPos
		body[dataBytes-1] &^= 1 << uint(tagPos)

		if tagPos == 7 {
			// the final byte carried only the tag
			body = body[:dataBytes-1]
		}
	}

	rc.data = body
	rc.bits = bitLen
	rc.refs = make([]int, refsCount)

	for j := 0; j < refsCount; j++ {
		ref, err := r.readUintN(refSize)
		if err != nil {
			return err
		}

		if ref <= uint64(idx) || ref >= uint64(cellCount) {
			return fmt.Errorf("%w: reference index out of order", ErrMalformedBOC)
		}

		rc.refs[j] = int(ref)
	}

	return nil
}

// minBytes returns the least number of bytes able to hold v (at least 1)
func minBytes(v uint64) int {
	n := 1
	for v >= 1<<(8*uint(n)) && n < 8 {
		n++
	}

	return n
}

func appendUintN(dst []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}

	return dst
}
