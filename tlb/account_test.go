package tlb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// buildAccountNone is the uninitialized account record: a single tag bit
func buildAccountNone(t *testing.T) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreBit(false))

	return mustFinalize(t, b)
}

// buildAccount assembles the prefix of an existing account record:
// tag $1 followed by the recorded address
func buildAccount(t *testing.T, addr types.Address) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreBit(true))
	storeStdAddr(t, b, addr)

	return mustFinalize(t, b)
}

func buildShardAccount(t *testing.T, account *cell.Cell, lastHash types.Hash, lastLT uint64) *cell.Cell {
	t.Helper()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreRef(account))
	require.NoError(t, b.StoreBits(lastHash.Bytes(), types.HashLength*8))
	require.NoError(t, b.StoreUint(lastLT, 64))

	return mustFinalize(t, b)
}

func TestLoadShardAccount(t *testing.T) {
	t.Parallel()

	account := buildAccountNone(t)
	lastHash := types.BytesToHash([]byte{0xde, 0xad})

	sa, err := LoadShardAccount(buildShardAccount(t, account, lastHash, 42).BeginParse())
	require.NoError(t, err)

	assert.True(t, account.Equal(sa.Account))
	assert.Equal(t, lastHash, sa.LastTransHash)
	assert.Equal(t, uint64(42), sa.LastTransLT)
}

func TestLoadShardAccountTruncated(t *testing.T) {
	t.Parallel()

	b := cell.NewBuilder()
	require.NoError(t, b.StoreRef(buildAccountNone(t)))
	require.NoError(t, b.StoreUint(0, 64)) // too short for hash + lt

	_, err := LoadShardAccount(mustFinalize(t, b).BeginParse())
	assert.ErrorIs(t, err, cell.ErrCursorUnderflow)
}

func TestLoadAccount(t *testing.T) {
	t.Parallel()

	t.Run("no account", func(t *testing.T) {
		t.Parallel()

		acc, err := LoadAccount(buildAccountNone(t).BeginParse())
		require.NoError(t, err)
		assert.False(t, acc.Exists)
		assert.Nil(t, acc.Addr)
	})

	t.Run("existing account", func(t *testing.T) {
		t.Parallel()

		want := testAddress(t, 0x99)

		acc, err := LoadAccount(buildAccount(t, want).BeginParse())
		require.NoError(t, err)
		require.True(t, acc.Exists)

		got, err := LoadStdAddress(acc.Addr)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
