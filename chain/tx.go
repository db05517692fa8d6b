// Package chain implements the consensus-critical data model: the
// transaction and block formats, merkle roots, proof-of-work search, and
// the blockchain's atomic UTXO state transition and difficulty retarget.
package chain

import (
	"bytes"
	"io"
	"math"

	"github.com/petiidaniel/utxod/internal/hashutil"
	"github.com/petiidaniel/utxod/internal/wire"
)

// CoinbasePrevIndex marks a TxIn as the single input of a coinbase
// transaction (spec §3).
const CoinbasePrevIndex = math.MaxUint32

// TxIn references a prior output being spent.
type TxIn struct {
	PrevTxID  [32]byte // all-zero for coinbase
	PrevIndex uint32   // CoinbasePrevIndex for coinbase
	Signature []byte   // DER-encoded ECDSA signature, empty while computing the tx id
	PublicKey []byte   // compressed secp256k1 public key (33 bytes)
}

// TxOut is an unspent coin: a value locked to an address.
type TxOut struct {
	Value   int64 // satoshis, must be >= 0
	Address string
}

// Transaction is an ordered list of inputs and outputs.
type Transaction struct {
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
}

// IsCoinbase reports whether tx is the block-reward transaction: exactly
// one input whose PrevIndex is CoinbasePrevIndex (spec §3).
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevIndex == CoinbasePrevIndex
}

// serialize writes the transaction per spec §4.2. When includeSignatures
// is false, each input's signature slot is written as a zero-length
// field instead of the real signature — this is what tx.ID hashes, so
// that signing can commit to an id that doesn't depend on the signature
// it's about to produce.
func (tx *Transaction) serialize(w *bytes.Buffer, includeSignatures bool) error {
	if err := wire.WriteU32(w, uint32(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if _, err := w.Write(in.PrevTxID[:]); err != nil {
			return err
		}
		if err := wire.WriteU32(w, in.PrevIndex); err != nil {
			return err
		}
		if includeSignatures {
			if err := wire.WriteBytesLP(w, in.Signature); err != nil {
				return err
			}
		} else {
			if err := wire.WriteU32(w, 0); err != nil {
				return err
			}
		}
		if err := wire.WriteBytesLP(w, in.PublicKey); err != nil {
			return err
		}
	}

	if err := wire.WriteU32(w, uint32(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := wire.WriteI64(w, out.Value); err != nil {
			return err
		}
		if err := wire.WriteStringLP(w, out.Address); err != nil {
			return err
		}
	}

	return wire.WriteU32(w, tx.LockTime)
}

// SerializeForID is the canonical encoding tx.ID() hashes: it always
// omits input signatures (spec §4.2's serialize_for_id).
func (tx *Transaction) SerializeForID() []byte {
	var buf bytes.Buffer
	if err := tx.serialize(&buf, false); err != nil {
		panic(err) // bytes.Buffer never fails to write
	}
	return buf.Bytes()
}

// SerializeForWire is the canonical encoding used for transmission and
// disk storage: it includes input signatures (spec §4.2's
// serialize_full).
func (tx *Transaction) SerializeForWire() []byte {
	var buf bytes.Buffer
	if err := tx.serialize(&buf, true); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ID is H2 over SerializeForID. It is independent of every input's
// signature by construction (spec §4.2, §8 property 5).
func (tx *Transaction) ID() [32]byte {
	var id [32]byte
	copy(id[:], hashutil.H2(tx.SerializeForID()))
	return id
}

// DeserializeTransaction reads a single transaction from its
// SerializeForWire encoding, for callers (the mempool's durability
// mirror) that persist individual transactions rather than whole
// blocks.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	return deserializeTransaction(bytes.NewReader(data))
}

// deserializeTransaction reads a Transaction in the §4.7 wire format.
func deserializeTransaction(r *bytes.Reader) (*Transaction, error) {
	tx := &Transaction{}

	inCount, err := wire.ReadU32(r)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]TxIn, inCount)
	for i := range tx.Inputs {
		var prevTxID [32]byte
		if _, err := io.ReadFull(r, prevTxID[:]); err != nil {
			return nil, err
		}
		prevIndex, err := wire.ReadU32(r)
		if err != nil {
			return nil, err
		}
		sig, err := wire.ReadBytesLP(r)
		if err != nil {
			return nil, err
		}
		pub, err := wire.ReadBytesLP(r)
		if err != nil {
			return nil, err
		}
		tx.Inputs[i] = TxIn{PrevTxID: prevTxID, PrevIndex: prevIndex, Signature: sig, PublicKey: pub}
	}

	outCount, err := wire.ReadU32(r)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]TxOut, outCount)
	for i := range tx.Outputs {
		value, err := wire.ReadI64(r)
		if err != nil {
			return nil, err
		}
		addr, err := wire.ReadStringLP(r)
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = TxOut{Value: value, Address: addr}
	}

	lockTime, err := wire.ReadU32(r)
	if err != nil {
		return nil, err
	}
	tx.LockTime = lockTime

	return tx, nil
}
