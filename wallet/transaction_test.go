package wallet

import (
	"testing"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/internal/coreerr"
)

// fakeView is a minimal BlockchainView backed by a fixed UTXO set, for
// exercising coin selection without a real Blockchain.
type fakeView struct {
	utxos   map[string]chain.TxOut
	balance int64
}

func (f *fakeView) FindUTXOs(addr string) map[string]chain.TxOut { return f.utxos }
func (f *fakeView) GetBalance(addr string) int64                 { return f.balance }

func utxoKey(txID [32]byte, index uint32) string {
	k := chain.UTXOKey{TxID: txID, Index: index}
	return k.String()
}

func TestCreateTransactionPaysAndReturnsChange(t *testing.T) {
	w := MakeWallet()
	view := &fakeView{utxos: map[string]chain.TxOut{
		utxoKey([32]byte{1}, 0): {Value: 10_000, Address: w.Address()},
	}}

	tx, err := w.CreateTransaction("BOB", 5_000, view)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if len(tx.Inputs) != 1 {
		t.Fatalf("expected 1 input, got %d", len(tx.Inputs))
	}
	if len(tx.Outputs) != 2 {
		t.Fatalf("expected payment + change outputs, got %d", len(tx.Outputs))
	}
	if tx.Outputs[0].Value != 5_000 || tx.Outputs[0].Address != "BOB" {
		t.Fatalf("unexpected payment output: %+v", tx.Outputs[0])
	}
	wantChange := int64(10_000 - 5_000 - fee)
	if tx.Outputs[1].Value != wantChange || tx.Outputs[1].Address != w.Address() {
		t.Fatalf("unexpected change output: %+v, want value %d to %s", tx.Outputs[1], wantChange, w.Address())
	}

	txID := tx.ID()
	if !Verify(tx.Inputs[0].PublicKey, txID, tx.Inputs[0].Signature) {
		t.Fatal("input signature does not verify against the tx id")
	}
}

func TestCreateTransactionDonatesDustChange(t *testing.T) {
	w := MakeWallet()
	// sum - target = (5_000 + fee + 100) - (5_000 + fee) = 100, which is <= dustThreshold
	view := &fakeView{utxos: map[string]chain.TxOut{
		utxoKey([32]byte{2}, 0): {Value: 5_000 + fee + 100, Address: w.Address()},
	}}

	tx, err := w.CreateTransaction("BOB", 5_000, view)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if len(tx.Outputs) != 1 {
		t.Fatalf("expected dust change to be donated to the fee, got %d outputs", len(tx.Outputs))
	}
}

func TestCreateTransactionInsufficientFunds(t *testing.T) {
	w := MakeWallet()
	view := &fakeView{utxos: map[string]chain.TxOut{
		utxoKey([32]byte{3}, 0): {Value: 100, Address: w.Address()},
	}}

	_, err := w.CreateTransaction("BOB", 5_000, view)
	if err != coreerr.ErrInsufficientFundsWallet {
		t.Fatalf("expected ErrInsufficientFundsWallet, got %v", err)
	}
}

func TestCreateTransactionAccumulatesMultipleInputs(t *testing.T) {
	w := MakeWallet()
	view := &fakeView{utxos: map[string]chain.TxOut{
		utxoKey([32]byte{4}, 0): {Value: 2_000, Address: w.Address()},
		utxoKey([32]byte{5}, 0): {Value: 2_000, Address: w.Address()},
		utxoKey([32]byte{6}, 0): {Value: 2_000, Address: w.Address()},
	}}

	tx, err := w.CreateTransaction("BOB", 5_000, view)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if len(tx.Inputs) < 2 {
		t.Fatalf("expected coin selection to span multiple inputs, got %d", len(tx.Inputs))
	}
}
