package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned when an address is not a base58 32-byte key.
var ErrInvalidAddress = errors.New("invalid solana address")

// ValidateAddress checks that address decodes to a 32-byte public key.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, address, len(raw))
	}
	return nil
}

// IsOnCurve reports whether address is an ed25519 point, i.e. a key that can
// sign. Program-derived addresses (pool vaults, escrow PDAs) are off curve.
// Undecodable addresses are reported as off curve.
func IsOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
