// Package memledger is an in-process ledger emulator speaking the same
// JSON-RPC surface the client consumes. It backs the simulated demo mode
// and the test suites; it applies transactions atomically, issues expiring
// blockhashes and reports commitment the way a real endpoint would,
// including a configurable delay before a submitted transaction becomes
// visible at confirmed commitment.
package memledger

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/mr-tron/base58"

	"memoex/ledger"
)

const (
	// Issued blockhashes stay valid for this many subsequent issues.
	blockhashWindow = 32

	// Airdrop size granted per successful request.
	airdropLamports = 2 * ledger.LamportsPerUnit
)

const (
	codeInvalidTx    = jrpc2.Code(-32001)
	codeInsufficient = jrpc2.Code(-32002)
	codeStaleHash    = jrpc2.Code(-32003)
	codeAirdropDown  = jrpc2.Code(-32004)
)

type storedTx struct {
	tx     *ledger.Transaction
	status string
	slot   uint64
	polls  int
}

// Ledger is the emulator state. The zero value is not usable; call New.
type Ledger struct {
	mu          sync.Mutex
	balances    map[string]uint64
	txs         map[string]*storedTx
	recent      []string
	slot        uint64
	airdropSeq  uint64
	airdropReqs int

	// ConfirmAfterPolls is how many status polls a transaction sits at
	// "processed" before flipping to "confirmed". Minimum 1 to force at
	// least one real poll cycle.
	ConfirmAfterPolls int

	// HoldConfirmations pins every transaction at "processed" forever,
	// for exercising confirmation deadlines.
	HoldConfirmations bool

	// AirdropFailures makes the next N airdrop requests fail.
	AirdropFailures int
}

func New() *Ledger {
	return &Ledger{
		balances:          make(map[string]uint64),
		txs:               make(map[string]*storedTx),
		ConfirmAfterPolls: 1,
	}
}

// Credit funds an account directly, bypassing the airdrop path.
func (l *Ledger) Credit(address string, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] += lamports
}

// Balance reads an account balance directly.
func (l *Ledger) Balance(address string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address]
}

// AirdropRequests reports how many airdrop calls the emulator has served,
// including induced failures.
func (l *Ledger) AirdropRequests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.airdropReqs
}

// Handler returns the HTTP handler serving the JSON-RPC surface.
func (l *Ledger) Handler() http.Handler {
	return jhttp.NewBridge(l.methods(), &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})
}

// Serve starts an HTTP listener on addr for the simulated demo mode.
func (l *Ledger) Serve(addr string) error {
	return http.ListenAndServe(addr, l.Handler())
}

func (l *Ledger) methods() handler.Map {
	return handler.Map{
		"ledger.getbalance": handler.New(func(ctx context.Context, p struct {
			Address    string `json:"address"`
			Commitment string `json:"commitment,omitempty"`
		}) (map[string]uint64, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			return map[string]uint64{"lamports": l.balances[p.Address]}, nil
		}),

		"ledger.latestblockhash": handler.New(func(ctx context.Context) (map[string]interface{}, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			hash := l.issueBlockhash()
			return map[string]interface{}{
				"blockhash":       hash,
				"last_valid_slot": l.slot + blockhashWindow,
			}, nil
		}),

		"ledger.sendtransaction": handler.New(func(ctx context.Context, p struct {
			Transaction string `json:"transaction"`
		}) (map[string]string, error) {
			return l.applyTransaction(p.Transaction)
		}),

		"ledger.signaturestatus": handler.New(func(ctx context.Context, p struct {
			Signature string `json:"signature"`
		}) (map[string]interface{}, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			st, ok := l.txs[p.Signature]
			if !ok {
				return map[string]interface{}{
					"signature": p.Signature,
					"status":    "unknown",
				}, nil
			}
			l.advance(st)
			return map[string]interface{}{
				"signature":     p.Signature,
				"status":        st.status,
				"slot":          st.slot,
				"confirmations": uint64(st.polls),
				"err_msg":       "",
			}, nil
		}),

		"ledger.gettransaction": handler.New(func(ctx context.Context, p struct {
			Signature  string `json:"signature"`
			Commitment string `json:"commitment,omitempty"`
		}) (map[string]interface{}, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			st, ok := l.txs[p.Signature]
			if !ok || st.status != ledger.CommitmentConfirmed {
				return map[string]interface{}{"found": false}, nil
			}
			return map[string]interface{}{
				"found":       true,
				"transaction": st.tx,
				"slot":        st.slot,
				"status":      st.status,
			}, nil
		}),

		"ledger.requestairdrop": handler.New(func(ctx context.Context, p struct {
			Address  string `json:"address"`
			Lamports uint64 `json:"lamports"`
		}) (map[string]string, error) {
			return l.airdrop(p.Address, p.Lamports)
		}),
	}
}

// issueBlockhash mints a new recent-state reference and ages out the oldest
// one past the validity window. Caller holds the lock.
func (l *Ledger) issueBlockhash() string {
	l.slot++
	sum := sha256.Sum256([]byte(fmt.Sprintf("slot-%d", l.slot)))
	hash := base58.Encode(sum[:])
	l.recent = append(l.recent, hash)
	if len(l.recent) > blockhashWindow {
		l.recent = l.recent[1:]
	}
	return hash
}

func (l *Ledger) isRecent(hash string) bool {
	for _, h := range l.recent {
		if h == hash {
			return true
		}
	}
	return false
}

// advance moves a stored transaction along the commitment ladder. Caller
// holds the lock.
func (l *Ledger) advance(st *storedTx) {
	if l.HoldConfirmations {
		return
	}
	st.polls++
	if st.status == ledger.CommitmentProcessed && st.polls >= l.ConfirmAfterPolls {
		st.status = ledger.CommitmentConfirmed
	}
}

func (l *Ledger) applyTransaction(blob string) (map[string]string, error) {
	tx, err := ledger.DecodeTransaction(blob)
	if err != nil {
		return nil, jrpc2.Errorf(codeInvalidTx, "malformed transaction: %v", err)
	}
	if !ledger.VerifyTransaction(tx) {
		return nil, jrpc2.Errorf(codeInvalidTx, "signature verification failed")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isRecent(tx.RecentBlockhash) {
		return nil, jrpc2.Errorf(codeStaleHash, "blockhash expired")
	}
	if _, exists := l.txs[tx.Signature]; exists {
		// Resubmission of an already-applied transaction is a no-op.
		return map[string]string{"signature": tx.Signature}, nil
	}

	// Validate and apply all instructions atomically.
	if leg, ok := tx.TransferLeg(); ok {
		if l.balances[leg.Source] < leg.Lamports {
			return nil, jrpc2.Errorf(codeInsufficient, "insufficient funds: %s has %d, needs %d",
				leg.Source, l.balances[leg.Source], leg.Lamports)
		}
		l.balances[leg.Source] -= leg.Lamports
		l.balances[leg.Dest] += leg.Lamports
	}

	l.slot++
	l.txs[tx.Signature] = &storedTx{
		tx:     tx,
		status: ledger.CommitmentProcessed,
		slot:   l.slot,
	}
	return map[string]string{"signature": tx.Signature}, nil
}

func (l *Ledger) airdrop(address string, lamports uint64) (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.airdropReqs++
	if l.AirdropFailures > 0 {
		l.AirdropFailures--
		return nil, jrpc2.Errorf(codeAirdropDown, "airdrop unavailable, try again later")
	}

	if lamports == 0 {
		lamports = airdropLamports
	}
	l.balances[address] += lamports

	l.airdropSeq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("airdrop-%s-%d", address, l.airdropSeq)))
	sig := base58.Encode(sum[:])

	l.slot++
	l.txs[sig] = &storedTx{
		tx: &ledger.Transaction{
			Payer:        address,
			Instructions: []ledger.Instruction{ledger.TransferInstruction("faucet", address, lamports)},
			Signature:    sig,
		},
		status: ledger.CommitmentProcessed,
		slot:   l.slot,
	}
	return map[string]string{"signature": sig}, nil
}
