package chain

import "github.com/petiidaniel/utxod/internal/hashutil"

// MerkleRoot computes the bottom-up H2 merkle root of a block's
// transaction ids (spec §4.3). The empty list roots to 32 zero bytes; an
// odd level duplicates its last element before pairing.
func MerkleRoot(txIDs [][32]byte) [32]byte {
	var root [32]byte
	if len(txIDs) == 0 {
		return root
	}

	level := make([][]byte, len(txIDs))
	for i, id := range txIDs {
		level[i] = append([]byte{}, id[:]...)
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			combined := append(append([]byte{}, level[i]...), level[i+1]...)
			next = append(next, hashutil.H2(combined))
		}
		level = next
	}

	copy(root[:], level[0])
	return root
}

// transactionIDs extracts each transaction's id in block order.
func transactionIDs(txs []*Transaction) [][32]byte {
	ids := make([][32]byte, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID()
	}
	return ids
}
