// Package hashutil implements the hash primitives the consensus core is
// built on: single SHA-256, double SHA-256 (H2) and Hash160
// (RIPEMD160-of-SHA256), plus the hex codec used everywhere ids are
// printed.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // deprecated but still the standard Hash160 primitive
)

// Size256 is the length in bytes of a SHA-256 / H2 digest.
const Size256 = sha256.Size

// Size160 is the length in bytes of a Hash160 digest.
const Size160 = ripemd160.Size

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// H2 is SHA256(SHA256(data)), the double hash used for block hashes,
// transaction ids and Base58Check checksums.
func H2(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// H160 is RIPEMD160(SHA256(data)), used to turn a public key into the
// payload of an address.
func H160(data []byte) []byte {
	first := sha256.Sum256(data)
	hasher := ripemd160.New()
	hasher.Write(first[:])
	return hasher.Sum(nil)
}

// ToHex renders data as lowercase, zero-padded hex.
func ToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// FromHex parses lowercase or uppercase hex back into bytes.
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
