package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// tokenBytes is the random byte length of issued bearer tokens.
	tokenBytes = 16

	// pairingCodeMin and pairingCodeSpan bound pairing codes to six digits.
	pairingCodeMin  = 100000
	pairingCodeSpan = 900000
)

// RandBytes fills the provided slice with cryptographically secure random
// bytes.
func RandBytes(out []byte) ([]byte, error) {
	if len(out) == 0 {
		return out, fmt.Errorf("output slice is empty")
	}
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("rand read: %w", err)
	}
	return out, nil
}

// RandHex returns n random bytes encoded as lower-case hex.
func RandHex(n int) (string, error) {
	b, err := RandBytes(make([]byte, n))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewToken returns a fresh opaque bearer token.
func NewToken() (string, error) {
	return RandHex(tokenBytes)
}

// NewPairingCode returns a uniformly distributed six digit decimal code.
func NewPairingCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pairingCodeSpan))
	if err != nil {
		return "", fmt.Errorf("rand int: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+pairingCodeMin), nil
}
