package wallet

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// AddressBook is a supplemented convenience layer holding several
// wallets keyed by address, for nodes that manage more than one
// identity at once.
type AddressBook struct {
	Wallets map[string]*Wallet
}

// gobWallet is the on-disk shape: PrivateKey.Serialize() is the only
// field that needs to survive a round trip, the public key and address
// are rederived from it.
type gobWallet struct {
	D []byte
}

// GobEncode implements gob.GobEncoder for Wallet.
func (w *Wallet) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobWallet{D: w.PrivateKey.Serialize()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder for Wallet.
func (w *Wallet) GobDecode(data []byte) error {
	var gw gobWallet
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&gw); err != nil {
		return err
	}
	w.PrivateKey = secp256k1.PrivKeyFromBytes(gw.D)
	w.PublicKey = w.PrivateKey.PubKey().SerializeCompressed()
	return nil
}

// NewAddressBook loads an address book from path, or returns an empty
// one if the file doesn't exist yet.
func NewAddressBook(path string) (*AddressBook, error) {
	ab := &AddressBook{Wallets: make(map[string]*Wallet)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ab, nil
	}
	if err != nil {
		return nil, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(ab); err != nil {
		return nil, err
	}
	return ab, nil
}

// Add generates a fresh wallet, stores it under its own address, and
// returns the address.
func (ab *AddressBook) Add() string {
	w := MakeWallet()
	addr := w.Address()
	ab.Wallets[addr] = w
	return addr
}

// Addresses lists every address the book holds.
func (ab *AddressBook) Addresses() []string {
	addrs := make([]string, 0, len(ab.Wallets))
	for addr := range ab.Wallets {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Get returns the wallet for addr, or nil if unknown.
func (ab *AddressBook) Get(addr string) *Wallet {
	return ab.Wallets[addr]
}

// Save persists the whole book to path via gob.
func (ab *AddressBook) Save(path string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ab); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
