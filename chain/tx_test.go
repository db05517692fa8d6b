package chain

import "testing"

func TestTransactionIDExcludesSignature(t *testing.T) {
	tx := &Transaction{
		Inputs: []TxIn{
			{PrevTxID: [32]byte{1}, PrevIndex: 0, PublicKey: []byte("pub")},
		},
		Outputs: []TxOut{{Value: 100, Address: "addr1"}},
	}

	before := tx.ID()
	tx.Inputs[0].Signature = []byte("a signature that was not there before")
	after := tx.ID()

	if before != after {
		t.Fatalf("tx id changed when only the signature changed: %x != %x", before, after)
	}
}

func TestTransactionIDIsDeterministic(t *testing.T) {
	tx := &Transaction{
		Inputs:  []TxIn{{PrevTxID: [32]byte{9}, PrevIndex: 2, PublicKey: []byte{1, 2, 3}}},
		Outputs: []TxOut{{Value: 50, Address: "bob"}},
	}
	id1 := tx.ID()
	id2 := tx.ID()
	if id1 != id2 {
		t.Fatalf("tx.ID() is not deterministic")
	}
}

func TestIsCoinbase(t *testing.T) {
	coinbase := &Transaction{Inputs: []TxIn{{PrevIndex: CoinbasePrevIndex}}}
	if !coinbase.IsCoinbase() {
		t.Fatal("expected coinbase input to be recognized")
	}

	spend := &Transaction{Inputs: []TxIn{{PrevIndex: 0}}}
	if spend.IsCoinbase() {
		t.Fatal("regular spend should not be a coinbase")
	}
}

func TestSerializeForIDThenForWireDiffer(t *testing.T) {
	tx := &Transaction{
		Inputs:  []TxIn{{PrevTxID: [32]byte{1}, Signature: []byte("sig"), PublicKey: []byte("pub")}},
		Outputs: []TxOut{{Value: 1, Address: "a"}},
	}
	idBytes := tx.SerializeForID()
	wireBytes := tx.SerializeForWire()
	if string(idBytes) == string(wireBytes) {
		t.Fatal("expected serialize-for-id to omit the signature present in serialize-for-wire")
	}
}
