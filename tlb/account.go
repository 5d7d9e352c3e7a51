package tlb

import (
	"fmt"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// ShardAccount is the ledger wrapper around an account state:
// account:^Account last_trans_hash:bits256 last_trans_lt:uint64
type ShardAccount struct {
	Account       *cell.Cell
	LastTransHash types.Hash
	LastTransLT   uint64
}

func LoadShardAccount(s *cell.Slice) (*ShardAccount, error) {
	account, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("can't read account state reference: %w", err)
	}

	hashBits, err := s.LoadBits(types.HashLength * 8)
	if err != nil {
		return nil, fmt.Errorf("can't read last transaction hash: %w", err)
	}

	lt, err := s.LoadUint(64)
	if err != nil {
		return nil, fmt.Errorf("can't read last transaction lt: %w", err)
	}

	return &ShardAccount{
		Account:       account,
		LastTransHash: types.BytesToHash(hashBits),
		LastTransLT:   lt,
	}, nil
}

// Account is the decoded prefix of an account record:
// account_none$0 or account$1 addr:MsgAddressInt ...
// For an existing account, Addr is a cursor positioned on the recorded
// address field
type Account struct {
	Exists bool
	Addr   *cell.Slice
}

func LoadAccount(s *cell.Slice) (*Account, error) {
	exists, err := s.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("can't read account tag: %w", err)
	}

	if !exists {
		return &Account{}, nil
	}

	acc := &Account{
		Exists: true,
		Addr:   s.Clone(),
	}

	// advance over the address so later field reads stay aligned
	if err := skipMsgAddress(s); err != nil {
		return nil, fmt.Errorf("can't unpack account address: %w", err)
	}

	return acc, nil
}
