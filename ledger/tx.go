package ledger

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"memoex/jsonx"
)

var (
	ErrNoInstructions = fmt.Errorf("ledger: transaction needs at least one instruction")
	ErrNoBlockhash    = fmt.Errorf("ledger: transaction needs a recent blockhash")
	ErrUnsupportedKey = fmt.Errorf("ledger: unsupported private key length")
)

// BuildTransaction assembles an unsigned transaction around a freshly
// fetched blockhash.
func BuildTransaction(payer, recentBlockhash string, instructions ...Instruction) (*Transaction, error) {
	if payer == "" {
		return nil, fmt.Errorf("ledger: transaction needs a payer")
	}
	if recentBlockhash == "" {
		return nil, ErrNoBlockhash
	}
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}
	return &Transaction{
		Payer:           payer,
		RecentBlockhash: recentBlockhash,
		Instructions:    instructions,
	}, nil
}

// serializeMessage produces the byte string the payer signs: every field of
// every instruction, pipe-joined in order. Deterministic by construction.
func serializeMessage(tx *Transaction) []byte {
	parts := make([]string, 0, len(tx.Instructions)+2)
	parts = append(parts, tx.Payer, tx.RecentBlockhash)
	for _, ix := range tx.Instructions {
		parts = append(parts, fmt.Sprintf("%s|%s|%s|%d|%s|%s",
			ix.Program, ix.Source, ix.Dest, ix.Lamports, ix.Signer, ix.Data))
	}
	return []byte(strings.Join(parts, "||"))
}

// SignTransaction signs the serialized message with the payer's key and
// stores the base58 signature. The signature doubles as the transaction's
// globally unique id once submitted.
func SignTransaction(tx *Transaction, privKey ed25519.PrivateKey) error {
	if len(privKey) != ed25519.PrivateKeySize {
		return ErrUnsupportedKey
	}
	sig := ed25519.Sign(privKey, serializeMessage(tx))
	tx.Signature = base58.Encode(sig)
	return nil
}

// VerifyTransaction checks the signature against the payer's public key
// (the payer address is the base58 public key).
func VerifyTransaction(tx *Transaction) bool {
	pubBytes, err := base58.Decode(tx.Payer)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return false
	}
	sigBytes, err := base58.Decode(tx.Signature)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubBytes), serializeMessage(tx), sigBytes)
}

// EncodeTransaction renders a signed transaction into the base64 blob the
// sendTransaction RPC accepts.
func EncodeTransaction(tx *Transaction) (string, error) {
	raw, err := jsonx.Marshal(tx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTransaction parses a base64 transaction blob.
func DecodeTransaction(blob string) (*Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode transaction blob: %w", err)
	}
	var tx Transaction
	if err := jsonx.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("ledger: unmarshal transaction: %w", err)
	}
	return &tx, nil
}
