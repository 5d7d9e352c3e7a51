package tlb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// shared test builders

func mustFinalize(t *testing.T, b *cell.Builder) *cell.Cell {
	t.Helper()

	c, err := b.Finalize()
	require.NoError(t, err)

	return c
}

func storeStdAddr(t *testing.T, b *cell.Builder, addr types.Address) {
	t.Helper()

	require.NoError(t, b.StoreUint(addrStdTag, 2))
	require.NoError(t, b.StoreBit(false)) // no anycast
	require.NoError(t, b.StoreUint(uint64(uint8(addr.Workchain)), 8))
	require.NoError(t, b.StoreBits(addr.AccountID.Bytes(), types.HashLength*8))
}

func storeAddrNone(t *testing.T, b *cell.Builder) {
	t.Helper()

	require.NoError(t, b.StoreUint(addrNoneTag, 2))
}

func testAddress(t *testing.T, fill byte) types.Address {
	t.Helper()

	var id types.Hash
	for i := range id {
		id[i] = fill
	}

	return types.Address{Workchain: 0, AccountID: id}
}
