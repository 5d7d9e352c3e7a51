package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAddressFormat = errors.New("address expected as workchain:hex64")

// Address is a standard smart-contract address: a signed workchain
// identifier plus a 256-bit account identifier
type Address struct {
	Workchain int32
	AccountID Hash
}

// StringToAddress parses the raw textual form, e.g.
// "0:2cf55953e92efbeadab7ba725c3f93a0b23f842cbba72d7b8e6f510a70e422e3"
func StringToAddress(str string) (Address, error) {
	sep := strings.IndexByte(str, ':')
	if sep < 0 {
		return Address{}, ErrInvalidAddressFormat
	}

	wc, err := strconv.ParseInt(str[:sep], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}

	id, err := StringToHash(str[sep+1:])
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}

	return Address{Workchain: int32(wc), AccountID: id}, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%s", a.Workchain, a.AccountID.String())
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(input []byte) error {
	parsed, err := StringToAddress(string(input))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
