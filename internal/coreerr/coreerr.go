// Package coreerr collects the sentinel errors the consensus core can
// surface (spec §7). Callers compare with errors.Is; none of these carry
// extra context beyond what errors.New gives, matching the kind of error
// kinds named in spec.md's error table.
package coreerr

import "errors"

// Block validation / application errors (spec §7).
var (
	ErrLinkage                 = errors.New("block does not link to the current tip")
	ErrPow                     = errors.New("block does not satisfy the required proof of work")
	ErrMerkle                  = errors.New("block merkle root does not match its transactions")
	ErrMissingUTXO             = errors.New("input references an unknown or already-spent output")
	ErrInsufficientFunds       = errors.New("transaction outputs exceed its inputs")
	ErrInsufficientFundsWallet = errors.New("wallet cannot cover amount plus fee from its UTXOs")
	ErrCorruptedLog            = errors.New("block log is corrupted past the last valid block")
	ErrWalletExists            = errors.New("wallet key already exists; refusing to overwrite")
	ErrInvalidSignature        = errors.New("input signature does not verify against its public key")
)

// Auxiliary errors surfaced by supporting lookups.
var (
	ErrBlockNotFound       = errors.New("block not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrEmptyChain          = errors.New("blockchain has no blocks yet")
)
