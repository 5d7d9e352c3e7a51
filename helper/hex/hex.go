package hex

import (
	"encoding/hex"
	"strings"
)

// EncodeToString wraps the hex.EncodeToString function
func EncodeToString(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeString wraps the hex.DecodeString function,
// tolerating an optional 0x prefix
func DecodeString(str string) ([]byte, error) {
	str = strings.TrimPrefix(str, "0x")

	return hex.DecodeString(str)
}

// MustDecodeString decodes a hex string and panics on malformed input.
// Reserved for hardcoded values
func MustDecodeString(str string) []byte {
	b, err := DecodeString(str)
	if err != nil {
		panic(err)
	}

	return b
}
