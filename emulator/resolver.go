package emulator

import (
	"fmt"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/tlb"
	"github.com/toncell-lab/emubridge/types"
)

// ResolveAccountAddress recovers the destination account address for a
// message given the previous shard-account state.
//
// The branch order matters: a message addressed to an account that
// already exists resolves to that account's recorded address, never to
// whatever destination the message itself claims
func ResolveAccountAddress(msg, shardAccount *cell.Cell) (types.Address, error) {
	sa, err := tlb.LoadShardAccount(shardAccount.BeginParse())
	if err != nil {
		return types.Address{}, fmt.Errorf("can't unpack shard account cell: %w", err)
	}

	account, err := tlb.LoadAccount(sa.Account.BeginParse())
	if err != nil {
		return types.Address{}, fmt.Errorf("can't unpack account cell: %w", err)
	}

	var addrSlice *cell.Slice

	if account.Exists {
		addrSlice = account.Addr
	} else {
		info, err := tlb.LoadCommonMsgInfo(msg.BeginParse())
		if err != nil {
			return types.Address{}, fmt.Errorf("can't unpack inbound message: %w", err)
		}

		addrSlice = info.Dest
	}

	addr, err := tlb.LoadStdAddress(addrSlice)
	if err != nil {
		return types.Address{}, fmt.Errorf("can't extract account address: %w", err)
	}

	return addr, nil
}
