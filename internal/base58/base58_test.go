package base58

import "testing"

func TestCheckEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	encoded := CheckEncode(payload)

	decoded, err := CheckDecode(encoded)
	if err != nil {
		t.Fatalf("CheckDecode: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatalf("round trip mismatch: got %x, want %x", decoded, payload)
	}
}

func TestCheckDecodeRejectsTamperedChecksum(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	encoded := CheckEncode(payload)

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	decoded[len(decoded)-1] ^= 0xFF
	tampered := Encode(decoded)

	if _, err := CheckDecode(tampered); err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
}

func TestLeadingZeroBytesBecomeLeadingOnes(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x01, 0x02}
	encoded := Encode(payload)
	if len(encoded) < 2 || encoded[0] != '1' || encoded[1] != '1' {
		t.Fatalf("expected two leading '1' characters, got %q", encoded)
	}
}
