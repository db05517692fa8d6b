package chain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/petiidaniel/utxod/internal/coreerr"
	"github.com/petiidaniel/utxod/internal/hashutil"
)

// UTXOKey identifies a single unspent output.
type UTXOKey struct {
	TxID  [32]byte
	Index uint32
}

// String renders a key as "(txIdHex)_(index)", the format spec §6's
// find_utxos query keys its result by.
func (k UTXOKey) String() string {
	return fmt.Sprintf("%s_%d", hashutil.ToHex(k.TxID[:]), k.Index)
}

// RetargetParams configures the difficulty controller (spec §4.6).
type RetargetParams struct {
	Interval       uint32 // N: blocks between retargets
	TargetInterval uint32 // T: desired seconds per block
}

// DefaultRetargetParams matches a reasonably fast devnet cadence.
var DefaultRetargetParams = RetargetParams{Interval: 5, TargetInterval: 2}

// Blockchain is the ordered block sequence plus the UTXO index derived
// from it (spec §3). chain[0] is always genesis.
type Blockchain struct {
	chain   []*Block
	utxoSet map[UTXOKey]TxOut
	params  RetargetParams
	log     *zap.SugaredLogger

	// VerifySignatures gates the reserved-but-unexercised signature check
	// in applyToShadow (spec §9 Open Questions; default false matches the
	// source's behavior of reserving the hook without exercising it).
	VerifySignatures bool
	Verify           func(pubKey []byte, txID [32]byte, sig []byte) bool
}

// New creates an empty Blockchain (no genesis block yet).
func New(params RetargetParams, log *zap.SugaredLogger) *Blockchain {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Blockchain{
		utxoSet: make(map[UTXOKey]TxOut),
		params:  params,
		log:     log,
	}
}

// Height returns len(chain) - 1, or -1 for an empty chain.
func (bc *Blockchain) Height() int {
	return len(bc.chain) - 1
}

// Latest returns the chain's tip block, or nil if empty.
func (bc *Blockchain) Latest() *Block {
	if len(bc.chain) == 0 {
		return nil
	}
	return bc.chain[len(bc.chain)-1]
}

// BlockAt returns the block at height h.
func (bc *Blockchain) BlockAt(h int) (*Block, error) {
	if h < 0 || h >= len(bc.chain) {
		return nil, coreerr.ErrBlockNotFound
	}
	return bc.chain[h], nil
}

// Blocks returns the full chain, oldest first. Callers must not mutate
// the returned slice or blocks.
func (bc *Blockchain) Blocks() []*Block {
	return bc.chain
}

// InitGenesis seeds the chain with a single block containing coinbaseTx,
// crediting its outputs directly into utxoSet (spec §4.7's load-time
// genesis rule applies at creation time too: no input consumption).
func (bc *Blockchain) InitGenesis(coinbaseTx *Transaction, timestamp uint32) *Block {
	genesis := &Block{
		Version:       1,
		PrevBlockHash: [32]byte{},
		Timestamp:     timestamp,
		Bits:          1,
		Transactions:  []*Transaction{coinbaseTx},
	}
	FinalizeAndMine(genesis, 1)

	bc.chain = []*Block{genesis}
	txID := coinbaseTx.ID()
	for i, out := range coinbaseTx.Outputs {
		bc.utxoSet[UTXOKey{TxID: txID, Index: uint32(i)}] = out
	}
	bc.log.Infow("genesis block created", "hash", hashutil.ToHex(genesis.Hash()[:]))
	return genesis
}

// RequiredDifficulty is required_difficulty() from spec §4.6: the
// retarget output for the next block to be accepted. Deterministic and
// side-effect-free; reads only bc.chain.
func (bc *Blockchain) RequiredDifficulty() uint32 {
	if len(bc.chain) == 0 {
		return 1
	}
	last := bc.chain[len(bc.chain)-1]

	n := bc.params.Interval
	if n == 0 || uint32(len(bc.chain))%n != 0 {
		return last.Bits
	}

	first := bc.chain[uint32(len(bc.chain))-n]
	actual := int64(last.Timestamp) - int64(first.Timestamp)
	if actual < 1 {
		actual = 1
	}
	expected := int64(n) * int64(bc.params.TargetInterval)

	switch {
	case actual < expected/2:
		return last.Bits + 1
	case actual > expected*2 && last.Bits > 1:
		return last.Bits - 1
	default:
		return last.Bits
	}
}

// applyToShadow runs spec §4.5 Phase B against a caller-supplied shadow
// map, mutating it in place. On error the shadow may already hold the
// changes of earlier transactions in the block, so callers discard it. It
// never touches bc.utxoSet.
func (bc *Blockchain) applyToShadow(shadow map[UTXOKey]TxOut, block *Block) error {
	for _, tx := range block.Transactions {
		txID := tx.ID()

		if !tx.IsCoinbase() {
			var inputSum int64
			spent := make([]UTXOKey, 0, len(tx.Inputs))
			for _, in := range tx.Inputs {
				key := UTXOKey{TxID: in.PrevTxID, Index: in.PrevIndex}
				out, ok := shadow[key]
				if !ok {
					return coreerr.ErrMissingUTXO
				}
				if bc.VerifySignatures && bc.Verify != nil {
					if !bc.Verify(in.PublicKey, txID, in.Signature) {
						return coreerr.ErrInvalidSignature
					}
				}
				inputSum += out.Value
				spent = append(spent, key)
			}

			var outputSum int64
			for _, out := range tx.Outputs {
				outputSum += out.Value
			}
			if inputSum < outputSum {
				return coreerr.ErrInsufficientFunds
			}

			for _, key := range spent {
				delete(shadow, key)
			}
		}

		for i, out := range tx.Outputs {
			shadow[UTXOKey{TxID: txID, Index: uint32(i)}] = out
		}
	}
	return nil
}

// copyUTXOSet makes the shadow copy §4.5 Phase B validates against.
func (bc *Blockchain) copyUTXOSet() map[UTXOKey]TxOut {
	shadow := make(map[UTXOKey]TxOut, len(bc.utxoSet))
	for k, v := range bc.utxoSet {
		shadow[k] = v
	}
	return shadow
}

// AddBlock validates and atomically applies a candidate block (spec
// §4.5). On any failure, bc.chain and bc.utxoSet are left byte-identical
// to their pre-call state (atomic-apply, §8 property 7).
func (bc *Blockchain) AddBlock(block *Block) error {
	latest := bc.Latest()
	if latest == nil {
		return coreerr.ErrEmptyChain
	}

	// Phase A: header validation.
	if block.PrevBlockHash != latest.Hash() {
		return coreerr.ErrLinkage
	}
	if !PowCheck(block, bc.RequiredDifficulty()) {
		return coreerr.ErrPow
	}
	if block.MerkleRoot != MerkleRoot(transactionIDs(block.Transactions)) {
		return coreerr.ErrMerkle
	}

	// Phase B: UTXO transition against a shadow copy.
	shadow := bc.copyUTXOSet()
	if err := bc.applyToShadow(shadow, block); err != nil {
		return err
	}

	bc.chain = append(bc.chain, block)
	bc.utxoSet = shadow

	bc.log.Infow("block accepted",
		"height", bc.Height(),
		"hash", hashutil.ToHex(block.Hash()[:]),
		"txs", len(block.Transactions),
	)
	return nil
}

// GetBalance sums utxoSet entries locked to addr (spec §6).
func (bc *Blockchain) GetBalance(addr string) int64 {
	var total int64
	for _, out := range bc.utxoSet {
		if out.Address == addr {
			total += out.Value
		}
	}
	return total
}

// FindUTXOs returns the subset of utxoSet locked to addr, keyed by
// "(txIdHex)_(index)" (spec §6).
func (bc *Blockchain) FindUTXOs(addr string) map[string]TxOut {
	result := make(map[string]TxOut)
	for k, out := range bc.utxoSet {
		if out.Address == addr {
			result[k.String()] = out
		}
	}
	return result
}

// UTXOCount returns the number of unspent outputs tracked, for metrics
// and the CLI.
func (bc *Blockchain) UTXOCount() int {
	return len(bc.utxoSet)
}
