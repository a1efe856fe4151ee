package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// TokenAlphabet is the character set used for access token identifiers.
const TokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultTokenLength is the default identifier length. 32 alphanumeric
// characters give just over 190 bits of entropy, so collisions are
// negligible; the database unique constraint is the backstop.
const DefaultTokenLength = 32

// MakeRandString generates a random string of the given length drawn from
// TokenAlphabet using a cryptographically secure source.
//
// It returns an error if the random number generator fails.
func MakeRandString(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(TokenAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = TokenAlphabet[n.Int64()]
	}
	return string(b), nil
}

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length will be
// twice the size.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system random source fails, which is unrecoverable.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes the buffer in place. Callers use it to scrub
// passwords once they are no longer needed. Nil-safe.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
