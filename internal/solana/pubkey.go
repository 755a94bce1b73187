package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of an ed25519 public key.
const PublicKeyLength = 32

// ErrInvalidPublicKey is returned when a string is not a base58 32-byte key.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a validated base58-encoded Solana account address.
type PublicKey struct {
	raw     [PublicKeyLength]byte
	encoded string
}

// ParsePublicKey decodes and validates a base58 account address.
func ParsePublicKey(s string) (PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidPublicKey, s, err)
	}
	if len(decoded) != PublicKeyLength {
		return PublicKey{}, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidPublicKey, s, len(decoded))
	}

	var pk PublicKey
	copy(pk.raw[:], decoded)
	pk.encoded = base58.Encode(decoded)
	return pk, nil
}

// String returns the canonical base58 encoding.
func (pk PublicKey) String() string {
	return pk.encoded
}

// IsZero reports whether pk was never set.
func (pk PublicKey) IsZero() bool {
	return pk.encoded == ""
}

// IsOnCurve reports whether the key is a point on the ed25519 curve.
// Wallet addresses are on the curve; program-derived addresses are not.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk.raw[:])
	return err == nil
}
