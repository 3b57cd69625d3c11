package domain

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the size of a decoded account identifier.
const AddressLength = 32

// Address is a decoded ledger account identifier.
// Its textual form is base58.
type Address [AddressLength]byte

// ParseAddress decodes a base58 account identifier and checks its length.
func ParseAddress(s string) (Address, error) {
	var a Address
	if s == "" {
		return a, errors.New("empty address")
	}
	b, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode base58: %w", err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("decoded %d bytes, want %d", len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(fmt.Sprintf("domain: invalid address %q: %v", s, err))
	}
	return a
}

// String returns the base58 encoding of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Dedupe drops repeated addresses, keeping the first occurrence of each.
// It returns the filtered slice and the number of entries removed.
func Dedupe(addrs []Address) ([]Address, int) {
	seen := make(map[Address]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, len(addrs) - len(out)
}
