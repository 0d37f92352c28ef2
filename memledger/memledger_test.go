package memledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"memoex/ledger"
	"memoex/wallet"
)

func signedMemoTx(t *testing.T, w *wallet.Wallet, blockhash, text string) string {
	t.Helper()
	tx, err := ledger.BuildTransaction(w.Address, blockhash, ledger.MemoInstruction(w.Address, text))
	require.NoError(t, err)
	require.NoError(t, ledger.SignTransaction(tx, w.PrivateKey))
	blob, err := ledger.EncodeTransaction(tx)
	require.NoError(t, err)
	return blob
}

func TestRejectsStaleBlockhash(t *testing.T) {
	l := New()
	w, err := wallet.New()
	require.NoError(t, err)

	_, err = l.applyTransaction(signedMemoTx(t, w, "neverissued", "hello"))
	require.Error(t, err)
}

func TestRejectsBadSignature(t *testing.T) {
	l := New()
	w, err := wallet.New()
	require.NoError(t, err)

	l.mu.Lock()
	hash := l.issueBlockhash()
	l.mu.Unlock()

	tx, err := ledger.BuildTransaction(w.Address, hash, ledger.MemoInstruction(w.Address, "hello"))
	require.NoError(t, err)
	require.NoError(t, ledger.SignTransaction(tx, w.PrivateKey))
	tx.Instructions[0].Data = "tampered after signing"
	blob, err := ledger.EncodeTransaction(tx)
	require.NoError(t, err)

	_, err = l.applyTransaction(blob)
	require.Error(t, err)
}

func TestResubmissionIsIdempotent(t *testing.T) {
	l := New()
	w, err := wallet.New()
	require.NoError(t, err)

	l.mu.Lock()
	hash := l.issueBlockhash()
	l.mu.Unlock()

	blob := signedMemoTx(t, w, hash, "once")
	first, err := l.applyTransaction(blob)
	require.NoError(t, err)
	second, err := l.applyTransaction(blob)
	require.NoError(t, err)
	require.Equal(t, first["signature"], second["signature"])
}

func TestBlockhashWindowAgesOut(t *testing.T) {
	l := New()
	w, err := wallet.New()
	require.NoError(t, err)

	l.mu.Lock()
	old := l.issueBlockhash()
	for i := 0; i < blockhashWindow; i++ {
		l.issueBlockhash()
	}
	l.mu.Unlock()

	_, err = l.applyTransaction(signedMemoTx(t, w, old, "stale"))
	require.Error(t, err)
}
