package wallet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/internal/coreerr"
	"github.com/petiidaniel/utxod/internal/hashutil"
)

// fee is the fixed satoshi fee spec §4.8 charges every transaction.
const fee = 1000

// dustThreshold is the minimum worthwhile change output; anything at or
// below this is donated to the fee instead of returned to the sender.
const dustThreshold = 546

// BlockchainView is the capability wallet.CreateTransaction needs from
// the chain, injected rather than held as a back-pointer (spec §9):
// the chain does not know about wallets.
type BlockchainView interface {
	FindUTXOs(addr string) map[string]chain.TxOut
	GetBalance(addr string) int64
}

// CreateTransaction implements spec §4.8's create_transaction: walk the
// wallet's UTXOs in sorted key order until the target is met, build one
// payment output plus an optional change output, then sign every input.
func (w *Wallet) CreateTransaction(to string, amount int64, view BlockchainView) (*chain.Transaction, error) {
	target := amount + fee

	utxos := view.FindUTXOs(w.Address())
	keys := make([]string, 0, len(utxos))
	for k := range utxos {
		keys = append(keys, k)
	}
	// map iteration order is random in Go; sort for a reproducible walk
	// so tests (and re-runs against the same UTXO set) are deterministic.
	sort.Strings(keys)

	var sum int64
	var inputs []chain.TxIn
	for _, k := range keys {
		out := utxos[k]
		prevTxID, prevIndex, err := parseUTXOKey(k)
		if err != nil {
			continue
		}
		inputs = append(inputs, chain.TxIn{PrevTxID: prevTxID, PrevIndex: prevIndex})
		sum += out.Value
		if sum >= target {
			break
		}
	}

	if sum < target {
		return nil, coreerr.ErrInsufficientFundsWallet
	}

	outputs := []chain.TxOut{{Value: amount, Address: to}}
	if change := sum - target; change > dustThreshold {
		outputs = append(outputs, chain.TxOut{Value: change, Address: w.Address()})
	}

	for i := range inputs {
		inputs[i].PublicKey = w.PublicKey
	}

	tx := &chain.Transaction{Inputs: inputs, Outputs: outputs}
	txID := tx.ID()
	for i := range tx.Inputs {
		tx.Inputs[i].Signature = w.Sign(txID)
	}

	return tx, nil
}

// parseUTXOKey inverts chain.UTXOKey.String()'s "(txIdHex)_(index)"
// format.
func parseUTXOKey(key string) (txID [32]byte, index uint32, err error) {
	sep := strings.LastIndexByte(key, '_')
	if sep < 0 {
		return txID, 0, coreerr.ErrTransactionNotFound
	}
	raw, err := hashutil.FromHex(key[:sep])
	if err != nil || len(raw) != 32 {
		return txID, 0, coreerr.ErrTransactionNotFound
	}
	copy(txID[:], raw)
	n, err := strconv.ParseUint(key[sep+1:], 10, 32)
	if err != nil {
		return txID, 0, coreerr.ErrTransactionNotFound
	}
	return txID, uint32(n), nil
}
