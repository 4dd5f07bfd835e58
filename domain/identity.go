package domain

import (
	"chat-gate/errors"
	"encoding/hex"
	"fmt"
)

// IdentityLength is the size in bytes of a caller identity.
const IdentityLength = 32

// Identity is the opaque, verified identifier of a caller.
// It is the primary key of the User table and never changes once a row exists.
type Identity [IdentityLength]byte

// ParseIdentity decodes a 64 characters hexadecimal string.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if len(s) != hex.EncodedLen(IdentityLength) {
		return id, fmt.Errorf("%w: expected %d hex characters, got %d",
			errors.ErrMalformedIdentity, hex.EncodedLen(IdentityLength), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: %v", errors.ErrMalformedIdentity, err)
	}
	return id, nil
}

// IdentityFromBytes copies raw bytes as read from storage.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentityLength {
		return id, fmt.Errorf("%w: expected %d bytes, got %d",
			errors.ErrMalformedIdentity, IdentityLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}
