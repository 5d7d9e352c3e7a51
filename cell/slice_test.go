package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSequentialReads(t *testing.T) {
	t.Parallel()

	ref := mustCell(t, func(b *Builder) {})

	c := mustCell(t, func(b *Builder) {
		require.NoError(t, b.StoreBit(true))
		require.NoError(t, b.StoreUint(0x2a, 7))
		require.NoError(t, b.StoreUint(0xbeef, 16))
		require.NoError(t, b.StoreRef(ref))
	})

	s := c.BeginParse()
	assert.Equal(t, 24, s.BitsRemaining())
	assert.Equal(t, 1, s.RefsRemaining())

	bit, err := s.LoadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	v, err := s.LoadUint(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2a), v)

	// preload must not move the cursor
	peeked, err := s.PreloadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xbeef), peeked)
	assert.Equal(t, 16, s.BitsRemaining())

	v, err = s.LoadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xbeef), v)

	got, err := s.LoadRef()
	require.NoError(t, err)
	assert.True(t, ref.Equal(got))
}

func TestSliceUnderflow(t *testing.T) {
	t.Parallel()

	c := mustCell(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(5, 4))
	})

	s := c.BeginParse()

	_, err := s.LoadUint(5)
	assert.ErrorIs(t, err, ErrCursorUnderflow)

	_, err = s.LoadRef()
	assert.ErrorIs(t, err, ErrCursorUnderflow)

	assert.ErrorIs(t, s.SkipBits(5), ErrCursorUnderflow)

	// the failed reads must not have consumed anything
	v, err := s.LoadUint(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
}

func TestSliceRemainderToCell(t *testing.T) {
	t.Parallel()

	first := mustCell(t, func(b *Builder) {})
	second := mustCell(t, func(b *Builder) {
		require.NoError(t, b.StoreBit(true))
	})

	// two fields: an 8-bit field with one ref, then a 16-bit field
	// with another ref
	c := mustCell(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(0x11, 8))
		require.NoError(t, b.StoreUint(0x2233, 16))
		require.NoError(t, b.StoreRef(first))
		require.NoError(t, b.StoreRef(second))
	})

	s := c.BeginParse()

	// consume the first field
	_, err := s.LoadUint(8)
	require.NoError(t, err)
	_, err = s.LoadRef()
	require.NoError(t, err)

	rem, err := s.ToCell()
	require.NoError(t, err)

	// the remainder holds only the second field
	assert.Equal(t, 16, rem.Bits())
	assert.Equal(t, 1, rem.RefsCount())
	assert.True(t, second.Equal(rem.Ref(0)))

	v, err := rem.BeginParse().LoadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2233), v)

	// the remainder round-trips independently of the original cell
	decoded, err := Deserialize(Serialize(rem, true))
	require.NoError(t, err)
	assert.True(t, rem.Equal(decoded))

	// materializing left the cursor untouched
	assert.Equal(t, 16, s.BitsRemaining())
}

func TestLoadBigUint(t *testing.T) {
	t.Parallel()

	c := mustCell(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(0b1011, 4))
		require.NoError(t, b.StoreUint(0xffee, 16))
	})

	s := c.BeginParse()

	v, err := s.LoadBigUint(4)
	require.NoError(t, err)
	assert.Equal(t, int64(0b1011), v.Int64())

	w, err := s.LoadBigUint(16)
	require.NoError(t, err)
	assert.Equal(t, int64(0xffee), w.Int64())
}
