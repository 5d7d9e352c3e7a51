package types

import (
	"errors"

	"github.com/toncell-lab/emubridge/helper/hex"
)

const HashLength = 32

var ErrInvalidHashLength = errors.New("hash expected as 64 characters hex string")

// Hash is a fixed 256-bit value. It is used for cell content hashes,
// account identifiers and random seeds
type Hash [HashLength]byte

var ZeroHash = Hash{}

func BytesToHash(b []byte) Hash {
	var h Hash

	size := len(b)
	min := min(size, HashLength)

	copy(h[HashLength-min:], b[len(b)-min:])

	return h
}

// StringToHash parses a 64-character hex string into a Hash
func StringToHash(str string) (Hash, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return ZeroHash, err
	}

	if len(b) != HashLength {
		return ZeroHash, ErrInvalidHashLength
	}

	return BytesToHash(b), nil
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(input []byte) error {
	parsed, err := StringToHash(string(input))
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
