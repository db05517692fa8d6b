package chain

import (
	"bytes"
	"testing"
)

func coinbaseTx(to string, amount int64) *Transaction {
	return &Transaction{
		Inputs:  []TxIn{{PrevIndex: CoinbasePrevIndex}},
		Outputs: []TxOut{{Value: amount, Address: to}},
	}
}

func TestPowCheckAndMine(t *testing.T) {
	b := &Block{Version: 1, Timestamp: 1000, Bits: 1, Transactions: []*Transaction{coinbaseTx("alice", 100)}}
	FinalizeAndMine(b, 1)

	if !PowCheck(b, 1) {
		t.Fatal("mined block should satisfy its own difficulty")
	}
	hash := b.Hash()
	rev := reversedHash(hash)
	if rev[0] != 0 {
		t.Fatalf("expected at least one leading zero byte on the reversed hash, got %x", rev)
	}
}

func TestFinalizeAndMineSetsMerkleRoot(t *testing.T) {
	tx := coinbaseTx("alice", 100)
	b := &Block{Version: 1, Bits: 1, Transactions: []*Transaction{tx}}
	FinalizeAndMine(b, 1)

	want := MerkleRoot(transactionIDs(b.Transactions))
	if b.MerkleRoot != want {
		t.Fatalf("merkle root not recomputed: got %x want %x", b.MerkleRoot, want)
	}
}

func TestFinalizeAndMineLeavesEmptyRootZero(t *testing.T) {
	b := &Block{Version: 1, Bits: 1}
	FinalizeAndMine(b, 1)
	var zero [32]byte
	if b.MerkleRoot != zero {
		t.Fatalf("empty-transaction block should keep an all-zero merkle root, got %x", b.MerkleRoot)
	}
}

func TestBlockSerializeRoundTrip(t *testing.T) {
	b := &Block{Version: 7, Timestamp: 42, Bits: 3, Nonce: 99, Transactions: []*Transaction{coinbaseTx("alice", 5)}}
	b.PrevBlockHash = [32]byte{0xaa}
	b.RecomputeMerkleRoot()

	var buf bytes.Buffer
	if err := SerializeBlock(&buf, b); err != nil {
		t.Fatalf("SerializeBlock: %v", err)
	}

	got, err := DeserializeBlock(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DeserializeBlock: %v", err)
	}

	if got.Version != b.Version || got.Timestamp != b.Timestamp || got.Bits != b.Bits || got.Nonce != b.Nonce {
		t.Fatalf("header mismatch after round trip: got %+v, want %+v", got, b)
	}
	if got.PrevBlockHash != b.PrevBlockHash || got.MerkleRoot != b.MerkleRoot {
		t.Fatalf("hash fields mismatch after round trip")
	}
	if len(got.Transactions) != 1 || got.Transactions[0].ID() != b.Transactions[0].ID() {
		t.Fatalf("transaction mismatch after round trip")
	}
}
