// Package mempool implements the pending-transaction buffer sitting
// between wallet transaction construction and block assembly. The
// in-memory map is what the mining controller actually reads; the
// badger-backed store behind it is a durability mirror so a restarted
// node doesn't lose unconfirmed transactions.
package mempool

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/internal/hashutil"
)

// Mempool holds pending transactions keyed by hex transaction id, plus
// insertion order so snapshots are taken FIFO (spec §4.9 step 3: mempool
// transactions are appended "in snapshot order").
//
// Callers are expected to hold their own lock around Mempool access when
// sharing it with a miner (spec §5: one mutex covers chain, utxoSet and
// mempool together) — Mempool itself does no internal locking.
type Mempool struct {
	txs   map[string]*chain.Transaction
	order []string
	db    *badger.DB
}

// Open creates a Mempool backed by a badger database at path. An empty
// path runs purely in memory (used by tests and single-shot CLI
// invocations that don't need durability across restarts).
// Transactions read back from the database are ordered by badger's key
// order (ascending hex id); the order in which they were first added is
// not kept across a reopen.
func Open(path string) (*Mempool, error) {
	mp := &Mempool{txs: make(map[string]*chain.Transaction)}

	if path == "" {
		return mp, nil
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	mp.db = db

	if err := mp.loadFromDisk(); err != nil {
		db.Close()
		return nil, err
	}
	return mp, nil
}

func (mp *Mempool) loadFromDisk() error {
	return mp.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			idHex := string(item.Key())
			err := item.Value(func(val []byte) error {
				tx, err := chain.DeserializeTransaction(val)
				if err != nil {
					return err
				}
				mp.txs[idHex] = tx
				mp.order = append(mp.order, idHex)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Add inserts tx into the pool, keyed by its id. Re-adding an id that's
// already present is a no-op on ordering (it keeps its original slot).
func (mp *Mempool) Add(tx *chain.Transaction) error {
	id := tx.ID()
	idHex := hashutil.ToHex(id[:])

	if _, exists := mp.txs[idHex]; !exists {
		mp.order = append(mp.order, idHex)
	}
	mp.txs[idHex] = tx

	if mp.db == nil {
		return nil
	}
	return mp.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(idHex), tx.SerializeForWire())
	})
}

// Remove deletes a transaction by id, if present.
func (mp *Mempool) Remove(idHex string) error {
	if _, ok := mp.txs[idHex]; !ok {
		return nil
	}
	delete(mp.txs, idHex)
	for i, id := range mp.order {
		if id == idHex {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}

	if mp.db == nil {
		return nil
	}
	return mp.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(idHex))
	})
}

// Clear removes every pending transaction (called after a mined block
// absorbs the snapshot that was mined, spec §4.9 step 5).
func (mp *Mempool) Clear() error {
	ids := make([]string, len(mp.order))
	copy(ids, mp.order)
	for _, id := range ids {
		if err := mp.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the pending transactions in insertion order. The
// returned slice is a copy; mutating it does not affect the pool.
func (mp *Mempool) Snapshot() []*chain.Transaction {
	out := make([]*chain.Transaction, 0, len(mp.order))
	for _, id := range mp.order {
		out = append(out, mp.txs[id])
	}
	return out
}

// Len reports the number of pending transactions.
func (mp *Mempool) Len() int {
	return len(mp.order)
}

// Get returns the pending transaction with the given hex id, if any.
func (mp *Mempool) Get(idHex string) (*chain.Transaction, bool) {
	tx, ok := mp.txs[idHex]
	return tx, ok
}

// Close releases the underlying badger database, if one was opened.
func (mp *Mempool) Close() error {
	if mp.db == nil {
		return nil
	}
	return mp.db.Close()
}
