package tlb

import (
	"fmt"
	"math/big"

	"github.com/toncell-lab/emubridge/cell"
)

// MsgKind discriminates the supported message envelope layouts
type MsgKind int

const (
	MsgInternal MsgKind = iota
	MsgExtIn
	MsgExtOut
)

func (k MsgKind) String() string {
	switch k {
	case MsgInternal:
		return "int_msg_info"
	case MsgExtIn:
		return "ext_in_msg_info"
	case MsgExtOut:
		return "ext_out_msg_info"
	default:
		return "unknown"
	}
}

// CommonMsgInfo is the decoded prefix of a message envelope. Dest is a
// cursor positioned on the destination address field of the matched
// layout
type CommonMsgInfo struct {
	Kind MsgKind

	// internal message flags, zero for external-incoming
	IHRDisabled bool
	Bounce      bool
	Bounced     bool

	Dest *cell.Slice
}

// msgLayouts maps each supported discriminant to its field decoder.
// Unsupported discriminants fail dispatch before this table is hit
var msgLayouts = map[MsgKind]func(*cell.Slice, *CommonMsgInfo) error{
	MsgInternal: unpackIntMsgInfo,
	MsgExtIn:    unpackExtInMsgInfo,
}

// LoadCommonMsgInfo reads the envelope discriminant off the cursor and
// decodes the matching layout. External-outgoing envelopes fail with
// ErrUnsupportedMessageShape
func LoadCommonMsgInfo(s *cell.Slice) (*CommonMsgInfo, error) {
	kind, err := loadMsgTag(s)
	if err != nil {
		return nil, err
	}

	unpack, ok := msgLayouts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedMessageShape, kind)
	}

	info := &CommonMsgInfo{Kind: kind}
	if err := unpack(s, info); err != nil {
		return nil, fmt.Errorf("can't unpack %s: %w", kind, err)
	}

	return info, nil
}

// loadMsgTag consumes the envelope discriminant: int_msg_info$0,
// ext_in_msg_info$10, ext_out_msg_info$11. The encoding is a prefix
// code, so exactly the bits of one tag are consumed
func loadMsgTag(s *cell.Slice) (MsgKind, error) {
	first, err := s.LoadBit()
	if err != nil {
		return 0, fmt.Errorf("can't read message tag: %w", err)
	}

	if !first {
		return MsgInternal, nil
	}

	second, err := s.LoadBit()
	if err != nil {
		return 0, fmt.Errorf("can't read message tag: %w", err)
	}

	if !second {
		return MsgExtIn, nil
	}

	return MsgExtOut, nil
}

// int_msg_info$0 ihr_disabled:Bool bounce:Bool bounced:Bool
// src:MsgAddressInt dest:MsgAddressInt ...
func unpackIntMsgInfo(s *cell.Slice, info *CommonMsgInfo) error {
	var err error

	if info.IHRDisabled, err = s.LoadBit(); err != nil {
		return err
	}

	if info.Bounce, err = s.LoadBit(); err != nil {
		return err
	}

	if info.Bounced, err = s.LoadBit(); err != nil {
		return err
	}

	if err = skipMsgAddress(s); err != nil { // src
		return err
	}

	info.Dest = s.Clone()

	return skipMsgAddress(s)
}

// ext_in_msg_info$10 src:MsgAddressExt dest:MsgAddressInt
// import_fee:Grams
func unpackExtInMsgInfo(s *cell.Slice, info *CommonMsgInfo) error {
	if err := skipMsgAddress(s); err != nil { // src
		return err
	}

	info.Dest = s.Clone()

	if err := skipMsgAddress(s); err != nil {
		return err
	}

	_, err := LoadCoins(s)

	return err
}

// LoadCoins consumes a variable-length currency amount: a 4-bit byte
// count of 0 to 15 followed by that many amount bytes
func LoadCoins(s *cell.Slice) (*big.Int, error) {
	size, err := s.LoadUint(4)
	if err != nil {
		return nil, err
	}

	return s.LoadBigUint(int(size) * 8)
}
