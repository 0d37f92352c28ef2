// Package wallet manages the key material lifecycle for one exchange role:
// create a keypair on first use, persist it, and load it back on later runs.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"

	"memoex/errors"
	"memoex/jsonx"
	"memoex/logx"
)

// Wallet holds one role's identity. The address is the base58-encoded
// public key and doubles as the on-ledger account id.
type Wallet struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	Address    string
}

// walletFile is the persisted form: the public key as base58 text and the
// 64-byte private key as a plain integer array.
type walletFile struct {
	PublicKey string `json:"public_key"`
	SecretKey []int  `json:"secret_key"`
}

// New generates a fresh ed25519 keypair.
func New() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		PrivateKey: priv,
		PublicKey:  pub,
		Address:    base58.Encode(pub),
	}, nil
}

// CreateOrLoad loads the wallet persisted at path, or generates and saves a
// new one when the file does not exist. A file that exists but does not
// parse into a valid keypair fails with ErrCodeCorruptWalletFile; that is a
// configuration error and the role must abort rather than silently mint a
// new identity.
func CreateOrLoad(path string) (*Wallet, error) {
	if _, err := os.Stat(path); err == nil {
		w, err := Load(path)
		if err != nil {
			return nil, err
		}
		logx.Info("WALLET", "Loaded wallet ", w.Address, " from ", path)
		return w, nil
	}

	w, err := New()
	if err != nil {
		return nil, err
	}
	if err := Save(path, w); err != nil {
		return nil, err
	}
	logx.Info("WALLET", "Created wallet ", w.Address, " at ", path)
	return w, nil
}

// Load reads and validates a persisted wallet file.
func Load(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf(errors.ErrCodeCorruptWalletFile, "read wallet file %s: %v", path, err)
	}

	var wf walletFile
	if err := jsonx.Unmarshal(data, &wf); err != nil {
		return nil, errors.Errorf(errors.ErrCodeCorruptWalletFile, "parse wallet file %s: %v", path, err)
	}
	if len(wf.SecretKey) != ed25519.PrivateKeySize {
		return nil, errors.Errorf(errors.ErrCodeCorruptWalletFile,
			"wallet file %s: secret key has %d bytes, want %d", path, len(wf.SecretKey), ed25519.PrivateKeySize)
	}

	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, b := range wf.SecretKey {
		if b < 0 || b > 255 {
			return nil, errors.Errorf(errors.ErrCodeCorruptWalletFile,
				"wallet file %s: secret key byte %d out of range", path, i)
		}
		priv[i] = byte(b)
	}

	pub := priv.Public().(ed25519.PublicKey)
	address := base58.Encode(pub)
	if wf.PublicKey != "" && wf.PublicKey != address {
		return nil, errors.Errorf(errors.ErrCodeCorruptWalletFile,
			"wallet file %s: public key %s does not match secret key", path, wf.PublicKey)
	}

	return &Wallet{PrivateKey: priv, PublicKey: pub, Address: address}, nil
}

// Save persists the wallet, creating parent directories as needed. The key
// file is written 0600.
func Save(path string, w *Wallet) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	secret := make([]int, len(w.PrivateKey))
	for i, b := range w.PrivateKey {
		secret[i] = int(b)
	}
	data, err := jsonx.MarshalIndent(walletFile{
		PublicKey: w.Address,
		SecretKey: secret,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
