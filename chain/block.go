package chain

import (
	"bytes"

	"github.com/petiidaniel/utxod/internal/hashutil"
	"github.com/petiidaniel/utxod/internal/wire"
)

// Block is the unit of the chain: a 6-field header plus an ordered
// transaction list (spec §3).
type Block struct {
	Version       int32
	PrevBlockHash [32]byte // all-zero only for genesis
	MerkleRoot    [32]byte // all-zero iff Transactions is empty
	Timestamp     uint32
	Bits          uint32 // leading-zero-byte difficulty, informational only (§4.5)
	Nonce         uint32
	Transactions  []*Transaction
}

// headerBytes writes the six header fields in order, each little-endian,
// the 32-byte hash fields in their natural byte order (spec §3).
func (b *Block) headerBytes() []byte {
	var buf bytes.Buffer
	_ = wire.WriteI32(&buf, b.Version)
	buf.Write(b.PrevBlockHash[:])
	buf.Write(b.MerkleRoot[:])
	_ = wire.WriteU32(&buf, b.Timestamp)
	_ = wire.WriteU32(&buf, b.Bits)
	_ = wire.WriteU32(&buf, b.Nonce)
	return buf.Bytes()
}

// Hash is H2 over the block header (spec §3).
func (b *Block) Hash() [32]byte {
	var h [32]byte
	copy(h[:], hashutil.H2(b.headerBytes()))
	return h
}

// reversedHash returns Hash() with its bytes reversed — the
// big-endian-as-displayed form the difficulty check counts leading
// zero bytes on (spec §4.4).
func reversedHash(h [32]byte) [32]byte {
	var rev [32]byte
	for i, b := range h {
		rev[len(h)-1-i] = b
	}
	return rev
}

// PowCheck reports whether b's header hash, byte-reversed, begins with
// difficulty zero bytes (spec §4.4).
func PowCheck(b *Block, difficulty uint32) bool {
	rev := reversedHash(b.Hash())
	if int(difficulty) > len(rev) {
		return false
	}
	for i := uint32(0); i < difficulty; i++ {
		if rev[i] != 0 {
			return false
		}
	}
	return true
}

// RecomputeMerkleRoot sets b.MerkleRoot from b.Transactions per spec
// §4.3; with an empty transaction list b.MerkleRoot is left as it is.
func (b *Block) RecomputeMerkleRoot() {
	if len(b.Transactions) == 0 {
		return
	}
	b.MerkleRoot = MerkleRoot(transactionIDs(b.Transactions))
}

// Mine searches for a nonce satisfying PowCheck at the given difficulty
// (spec §4.4). On nonce wraparound it bumps the timestamp and keeps
// going — the search space never truly exhausts.
func Mine(b *Block, difficulty uint32) {
	b.Nonce = 0
	for !PowCheck(b, difficulty) {
		b.Nonce++
		if b.Nonce == 0 {
			b.Timestamp++
		}
	}
}

// FinalizeAndMine recomputes the merkle root (if there are transactions)
// and then mines the block at the given difficulty (spec §4.4).
func FinalizeAndMine(b *Block, difficulty uint32) {
	b.RecomputeMerkleRoot()
	Mine(b, difficulty)
}

// SerializeBlock writes b in the §4.7 disk format.
func SerializeBlock(w *bytes.Buffer, b *Block) error {
	if err := wire.WriteI32(w, b.Version); err != nil {
		return err
	}
	if err := wire.WriteBytesLP(w, b.PrevBlockHash[:]); err != nil {
		return err
	}
	if err := wire.WriteBytesLP(w, b.MerkleRoot[:]); err != nil {
		return err
	}
	if err := wire.WriteU32(w, b.Timestamp); err != nil {
		return err
	}
	if err := wire.WriteU32(w, b.Bits); err != nil {
		return err
	}
	if err := wire.WriteU32(w, b.Nonce); err != nil {
		return err
	}
	if err := wire.WriteU32(w, uint32(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.serialize(w, true); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBlock reads a Block in the §4.7 disk format.
func DeserializeBlock(r *bytes.Reader) (*Block, error) {
	b := &Block{}

	version, err := wire.ReadI32(r)
	if err != nil {
		return nil, err
	}
	b.Version = version

	prevHash, err := wire.ReadBytesLP(r)
	if err != nil {
		return nil, err
	}
	copy(b.PrevBlockHash[:], prevHash)

	merkle, err := wire.ReadBytesLP(r)
	if err != nil {
		return nil, err
	}
	copy(b.MerkleRoot[:], merkle)

	if b.Timestamp, err = wire.ReadU32(r); err != nil {
		return nil, err
	}
	if b.Bits, err = wire.ReadU32(r); err != nil {
		return nil, err
	}
	if b.Nonce, err = wire.ReadU32(r); err != nil {
		return nil, err
	}

	txCount, err := wire.ReadU32(r)
	if err != nil {
		return nil, err
	}
	b.Transactions = make([]*Transaction, txCount)
	for i := range b.Transactions {
		tx, err := deserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		b.Transactions[i] = tx
	}

	return b, nil
}
