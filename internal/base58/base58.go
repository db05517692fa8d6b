// Package base58 implements address encoding: the standard Base58
// alphabet plus the Base58Check wrapper (payload + 4-byte checksum) used
// to turn a public-key hash into a human-typeable address.
package base58

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/petiidaniel/utxod/internal/hashutil"
)

const checksumLength = 4

// Encode renders data as a Base58 string.
func Encode(data []byte) string {
	return base58.Encode(data)
}

// Decode parses a Base58 string back into bytes.
func Decode(s string) ([]byte, error) {
	return base58.Decode(s)
}

// checksum is the first 4 bytes of H2(payload).
func checksum(payload []byte) []byte {
	return hashutil.H2(payload)[:checksumLength]
}

// CheckEncode appends a checksum to payload and Base58-encodes the result.
func CheckEncode(payload []byte) string {
	full := append(append([]byte{}, payload...), checksum(payload)...)
	return Encode(full)
}

// CheckDecode reverses CheckEncode, validating the checksum.
func CheckDecode(s string) ([]byte, error) {
	full, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(full) < checksumLength {
		return nil, fmt.Errorf("base58check: input too short")
	}
	payload := full[:len(full)-checksumLength]
	want := full[len(full)-checksumLength:]
	got := checksum(payload)
	if !bytes.Equal(want, got) {
		return nil, fmt.Errorf("base58check: checksum mismatch")
	}
	return payload, nil
}
