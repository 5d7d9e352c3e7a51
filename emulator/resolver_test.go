package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// msg_address and shard-account fixture builders shared by the
// emulator tests

func fillAddress(wc int32, fill byte) types.Address {
	var id types.Hash
	for i := range id {
		id[i] = fill
	}

	return types.Address{Workchain: wc, AccountID: id}
}

func storeStdAddress(t *testing.T, b *cell.Builder, addr types.Address) {
	t.Helper()

	require.NoError(t, b.StoreUint(2, 2)) // addr_std$10
	require.NoError(t, b.StoreBit(false)) // no anycast
	require.NoError(t, b.StoreUint(uint64(uint8(addr.Workchain)), 8))
	require.NoError(t, b.StoreBits(addr.AccountID.Bytes(), types.HashLength*8))
}

func buildInternalMessage(t *testing.T, dest types.Address) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreBit(false)) // int_msg_info$0
	require.NoError(t, b.StoreBit(true))  // ihr_disabled
	require.NoError(t, b.StoreBit(true))  // bounce
	require.NoError(t, b.StoreBit(false)) // bounced
	require.NoError(t, b.StoreUint(0, 2)) // src: addr_none$00
	storeStdAddress(t, b, dest)

	c, err := b.Finalize()
	require.NoError(t, err)

	return c
}

func buildAccountCell(t *testing.T, addr *types.Address) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()

	if addr == nil {
		require.NoError(t, b.StoreBit(false)) // account_none$0
	} else {
		require.NoError(t, b.StoreBit(true)) // account$1
		storeStdAddress(t, b, *addr)
	}

	c, err := b.Finalize()
	require.NoError(t, err)

	return c
}

func buildShardAccountState(t *testing.T, account *cell.Cell, lastHash types.Hash, lastLT uint64) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreRef(account))
	require.NoError(t, b.StoreBits(lastHash.Bytes(), types.HashLength*8))
	require.NoError(t, b.StoreUint(lastLT, 64))

	c, err := b.Finalize()
	require.NoError(t, err)

	return c
}

func TestResolveAddressFromMessage(t *testing.T) {
	t.Parallel()

	dest := fillAddress(0, 0xaa)

	msg := buildInternalMessage(t, dest)
	shardAccount := buildShardAccountState(t, buildAccountCell(t, nil), types.Hash{}, 0)

	addr, err := ResolveAccountAddress(msg, shardAccount)
	require.NoError(t, err)
	assert.Equal(t, dest, addr)
}

func TestResolveAddressPrefersExistingAccount(t *testing.T) {
	t.Parallel()

	recorded := fillAddress(-1, 0xbb)
	claimed := fillAddress(0, 0xaa)

	msg := buildInternalMessage(t, claimed)
	shardAccount := buildShardAccountState(t, buildAccountCell(t, &recorded), types.Hash{}, 42)

	addr, err := ResolveAccountAddress(msg, shardAccount)
	require.NoError(t, err)

	// the ledger's recorded address wins over the message destination
	assert.Equal(t, recorded, addr)
}

func TestResolveAddressMalformedInputs(t *testing.T) {
	t.Parallel()

	dest := fillAddress(0, 0xaa)
	msg := buildInternalMessage(t, dest)

	t.Run("shard account without account ref", func(t *testing.T) {
		t.Parallel()

		b := cell.NewBuilder()
		require.NoError(t, b.StoreUint(0, 64))

		truncated, err := b.Finalize()
		require.NoError(t, err)

		_, err = ResolveAccountAddress(msg, truncated)
		assert.ErrorContains(t, err, "can't unpack shard account cell")
	})

	t.Run("message truncated before destination", func(t *testing.T) {
		t.Parallel()

		b := cell.NewBuilder()
		require.NoError(t, b.StoreUint(0, 4)) // int_msg_info flags only

		truncated, err := b.Finalize()
		require.NoError(t, err)

		shardAccount := buildShardAccountState(t, buildAccountCell(t, nil), types.Hash{}, 0)

		_, err = ResolveAccountAddress(truncated, shardAccount)
		assert.ErrorContains(t, err, "can't unpack inbound message")
	})
}
