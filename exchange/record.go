package exchange

import (
	"os"
	"path/filepath"
	"sync"

	"memoex/jsonx"
	"memoex/logx"
)

// Record types appearing in a role's exchange log.
const (
	RecordServiceRequest    = "service_request"
	RecordServiceExecution  = "service_execution"
	RecordVerificationProof = "verification_proof"
)

// Record is one append-only audit entry. Entries are created per action,
// never mutated, and flushed as a JSON array when the role shuts down.
// They are bookkeeping, not consensus: the ledger remains the authority.
type Record struct {
	Type         string `json:"type"`
	Signature    string `json:"signature"`
	Memo         string `json:"memo"`
	Amount       uint64 `json:"amount"`
	Counterparty string `json:"counterparty"`
}

// RecordLog is the single-writer append-only log for one role.
type RecordLog struct {
	mu      sync.Mutex
	path    string
	records []Record
}

func NewRecordLog(path string) *RecordLog {
	return &RecordLog{path: path}
}

func (l *RecordLog) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Records returns a copy of the entries accumulated so far.
func (l *RecordLog) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Flush writes the accumulated entries to the configured path, creating
// parent directories as needed. An unset path is a no-op so in-memory use
// (tests, simulated runs) needs no special casing.
func (l *RecordLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := jsonx.MarshalIndent(l.records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return err
	}
	logx.Info("EXCHANGE", "Flushed ", len(l.records), " exchange records to ", l.path)
	return nil
}
