package hashutil

import "testing"

// Values from spec.md scenario S6.
func TestKnownVectors(t *testing.T) {
	h1 := ToHex(Sha256([]byte("hello")))
	wantH1 := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if h1 != wantH1 {
		t.Fatalf("sha256(hello) = %s, want %s", h1, wantH1)
	}

	h2 := ToHex(H2([]byte("hello")))
	wantH2 := "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"
	if h2 != wantH2 {
		t.Fatalf("h2(hello) = %s, want %s", h2, wantH2)
	}
}

func TestFromHexRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0xff, 0xab}
	roundTripped, err := FromHex(ToHex(data))
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if string(roundTripped) != string(data) {
		t.Fatalf("round trip mismatch: got %x, want %x", roundTripped, data)
	}
}

func TestH160Length(t *testing.T) {
	out := H160([]byte("some public key bytes"))
	if len(out) != Size160 {
		t.Fatalf("H160 length = %d, want %d", len(out), Size160)
	}
}
