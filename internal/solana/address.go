package solana

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the size of a decoded public key
const AddressLength = 32

// ErrInvalidAddress is returned for strings that are not base58 public keys
var ErrInvalidAddress = errors.New("invalid address")

// Well-known program and account addresses
const (
	TokenProgramID  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	NameProgramID   = "namesLPneVptA9Z5rqUDD9tMTWEJwofgaYwp8cawRkX"
	SolTLDAuthority = "58PwtjSDuFHuUkYjH9BYnnQKHfwo9reZhC2zMJv9JPkx"
)

// ValidateAddress checks that s decodes to a 32-byte public key
func ValidateAddress(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != AddressLength {
		return fmt.Errorf("%w: %s: decoded to %d bytes", ErrInvalidAddress, s, len(raw))
	}
	return nil
}

// EncodeAddress encodes a raw 32-byte key
func EncodeAddress(raw []byte) (string, error) {
	if len(raw) != AddressLength {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(raw))
	}
	return base58.Encode(raw), nil
}
