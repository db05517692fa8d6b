// Package wallet implements secp256k1 key lifecycle, address derivation,
// signing, and transaction construction (spec §4.8).
package wallet

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/petiidaniel/utxod/internal/base58"
	"github.com/petiidaniel/utxod/internal/coreerr"
	"github.com/petiidaniel/utxod/internal/hashutil"
)

// version is the address network byte (0x00, Bitcoin's mainnet value).
const version = byte(0x00)

const pemBlockType = "SECP256K1 PRIVATE KEY"

// Wallet holds a single secp256k1 keypair for the process lifetime.
type Wallet struct {
	PrivateKey *secp256k1.PrivateKey
	PublicKey  []byte // compressed point, 33 bytes
}

// NewKeyPair generates a fresh secp256k1 keypair.
func NewKeyPair() (*secp256k1.PrivateKey, []byte) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		// rand.Reader failing is unrecoverable for a wallet process.
		panic(err)
	}
	return priv, priv.PubKey().SerializeCompressed()
}

// MakeWallet creates a wallet around a fresh keypair.
func MakeWallet() *Wallet {
	priv, pub := NewKeyPair()
	return &Wallet{PrivateKey: priv, PublicKey: pub}
}

// Address derives the Base58Check address from the wallet's public key:
// to_base58check(0x00 || hash160(pubkey_compressed)).
func (w *Wallet) Address() string {
	pubHash := hashutil.H160(w.PublicKey)
	versioned := append([]byte{version}, pubHash...)
	return base58.CheckEncode(versioned)
}

// ValidateAddress reports whether address decodes to a well-formed
// version byte + 20-byte pubkey hash + checksum.
func ValidateAddress(address string) bool {
	payload, err := base58.CheckDecode(address)
	if err != nil {
		return false
	}
	return len(payload) == 1+hashutil.Size160 && payload[0] == version
}

// Sign produces a DER-encoded ECDSA signature over digest.
func (w *Wallet) Sign(digest [32]byte) []byte {
	sig := ecdsa.Sign(w.PrivateKey, digest[:])
	return sig.Serialize()
}

// Verify checks a DER signature against a compressed public key and
// digest. Pure function, reserved for the block-validation hook that
// spec.md's Non-goals leave unexercised by default.
func Verify(pubKey []byte, digest [32]byte, sig []byte) bool {
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest[:], pk)
}

// LoadOrGenerate loads a PEM-encoded private key from path. If the file
// is absent it generates a fresh wallet silently (generated=true,
// corrupted=false). If the file is present but fails to parse, it also
// generates a fresh wallet but reports corrupted=true, so the caller
// can log a warning instead of treating it as ordinary first-run setup
// (spec.md §4.8's load semantics for a bad credential file).
func LoadOrGenerate(path string) (w *Wallet, generated bool, corrupted bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return MakeWallet(), true, false, nil
	}
	if err != nil {
		return nil, false, false, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType || len(block.Bytes) != 32 {
		return MakeWallet(), true, true, nil
	}

	priv := secp256k1.PrivKeyFromBytes(block.Bytes)
	return &Wallet{PrivateKey: priv, PublicKey: priv.PubKey().SerializeCompressed()}, false, false, nil
}

// GenerateNewKey creates a fresh wallet and writes it to path, refusing
// to overwrite an existing file unless force is true.
func GenerateNewKey(path string, force bool) (*Wallet, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil, coreerr.ErrWalletExists
		}
	}
	w := MakeWallet()
	if err := w.Save(path); err != nil {
		return nil, err
	}
	return w, nil
}

// Save writes the wallet's private key to path as a PEM block
// containing the raw 32-byte scalar.
func (w *Wallet) Save(path string) error {
	block := &pem.Block{Type: pemBlockType, Bytes: w.PrivateKey.Serialize()}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

func (w *Wallet) String() string {
	return fmt.Sprintf("Wallet{address=%s}", w.Address())
}
