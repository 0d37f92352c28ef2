// Package ledger is the single place that talks to the ledger RPC endpoint.
// Retry discipline, confirmation waiting and funding backoff all live here
// so the layers above stay retry-agnostic.
package ledger

// Well-known program ids. The memo program is the side channel the whole
// exchange protocol rides on; the system program owns plain value transfers.
const (
	SystemProgramID = "11111111111111111111111111111111"
	MemoProgramID   = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

// NativeDecimals is the ledger's native token precision; one display unit
// equals LamportsPerUnit base units.
const (
	NativeDecimals  = 9
	LamportsPerUnit = 1_000_000_000
)

// Commitment levels, weakest to strongest. The exchange accepts "confirmed"
// everywhere: waiting for "finalized" buys rollback safety this demo-grade
// protocol does not need at the cost of latency.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Instruction is one ledger operation. Exactly two shapes occur here: a
// value transfer owned by the system program, and a memo attachment owned
// by the memo program. A transaction carrying both binds a payment and its
// protocol message atomically.
type Instruction struct {
	Program  string `json:"program"`
	Source   string `json:"source,omitempty"`
	Dest     string `json:"dest,omitempty"`
	Lamports uint64 `json:"lamports,omitempty"`
	Signer   string `json:"signer,omitempty"`
	Data     string `json:"data,omitempty"`
}

// TransferInstruction moves lamports from source to dest.
func TransferInstruction(source, dest string, lamports uint64) Instruction {
	return Instruction{
		Program:  SystemProgramID,
		Source:   source,
		Dest:     dest,
		Lamports: lamports,
	}
}

// MemoInstruction attaches an opaque UTF-8 payload signed by signer.
func MemoInstruction(signer, text string) Instruction {
	return Instruction{
		Program: MemoProgramID,
		Signer:  signer,
		Data:    text,
	}
}

// Transaction is an atomically-applied ordered instruction list. It is only
// valid while RecentBlockhash still references recent ledger state; a stale
// transaction must be rebuilt, not resubmitted.
type Transaction struct {
	Payer           string        `json:"payer"`
	RecentBlockhash string        `json:"recent_blockhash"`
	Instructions    []Instruction `json:"instructions"`
	Signature       string        `json:"signature,omitempty"`
}

// MemoText returns the payload of the first memo instruction, if any.
func (tx *Transaction) MemoText() (string, bool) {
	for _, ix := range tx.Instructions {
		if ix.Program == MemoProgramID {
			return ix.Data, true
		}
	}
	return "", false
}

// TransferLeg returns the first transfer instruction, if any.
func (tx *Transaction) TransferLeg() (Instruction, bool) {
	for _, ix := range tx.Instructions {
		if ix.Program == SystemProgramID {
			return ix, true
		}
	}
	return Instruction{}, false
}

// TransferDetails is the ledger's own record of a transaction's payment
// leg. Providers verify received payments from this, never from what the
// counterparty's memo claims.
type TransferDetails struct {
	Sender    string
	Recipient string
	Lamports  uint64
}
