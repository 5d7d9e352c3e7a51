package tlb

import (
	"fmt"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// address constructor tags (2 bits, exact width)
const (
	addrNoneTag   = 0x00
	addrExternTag = 0x01
	addrStdTag    = 0x02
	addrVarTag    = 0x03
)

// LoadStdAddress decodes an address field as a standard address: the
// addr_std constructor without an anycast prefix, carrying a signed
// 8-bit workchain and a 256-bit account identifier. Every other
// encoding fails with ErrNonStandardAddress
func LoadStdAddress(s *cell.Slice) (types.Address, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return types.Address{}, fmt.Errorf("can't read address tag: %w", err)
	}

	if tag != addrStdTag {
		return types.Address{}, ErrNonStandardAddress
	}

	anycast, err := s.LoadBit()
	if err != nil {
		return types.Address{}, fmt.Errorf("can't read anycast flag: %w", err)
	}

	if anycast {
		return types.Address{}, fmt.Errorf("%w: anycast prefix present", ErrNonStandardAddress)
	}

	wc, err := s.LoadUint(8)
	if err != nil {
		return types.Address{}, fmt.Errorf("can't read workchain: %w", err)
	}

	id, err := s.LoadBits(types.HashLength * 8)
	if err != nil {
		return types.Address{}, fmt.Errorf("can't read account id: %w", err)
	}

	return types.Address{
		Workchain: int32(int8(wc)),
		AccountID: types.BytesToHash(id),
	}, nil
}

// skipMsgAddress consumes one full address field of any supported
// constructor, so that fields following an address parse at the right
// offset
func skipMsgAddress(s *cell.Slice) error {
	tag, err := s.LoadUint(2)
	if err != nil {
		return err
	}

	switch tag {
	case addrNoneTag:
		return nil

	case addrExternTag:
		length, err := s.LoadUint(9)
		if err != nil {
			return err
		}

		return s.SkipBits(int(length))

	case addrStdTag:
		if err := skipAnycast(s); err != nil {
			return err
		}

		return s.SkipBits(8 + types.HashLength*8)

	case addrVarTag:
		if err := skipAnycast(s); err != nil {
			return err
		}

		length, err := s.LoadUint(9)
		if err != nil {
			return err
		}

		return s.SkipBits(32 + int(length))

	default:
		return ErrSchemaMismatch
	}
}

// skipAnycast consumes an optional anycast rewrite prefix
func skipAnycast(s *cell.Slice) error {
	present, err := s.LoadBit()
	if err != nil {
		return err
	}

	if !present {
		return nil
	}

	depth, err := s.LoadUint(5)
	if err != nil {
		return err
	}

	if depth < 1 || depth > 30 {
		return fmt.Errorf("%w: anycast depth %d", ErrSchemaMismatch, depth)
	}

	return s.SkipBits(int(depth))
}
