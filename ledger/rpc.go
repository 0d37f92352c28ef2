package ledger

// JSON-RPC method names and their params/results. The wire shapes mirror
// what the ledger endpoint serves; field names are part of the contract.

const (
	methodGetBalance      = "ledger.getbalance"
	methodLatestBlockhash = "ledger.latestblockhash"
	methodSendTransaction = "ledger.sendtransaction"
	methodGetTransaction  = "ledger.gettransaction"
	methodSignatureStatus = "ledger.signaturestatus"
	methodRequestAirdrop  = "ledger.requestairdrop"
)

type balanceParams struct {
	Address    string `json:"address"`
	Commitment string `json:"commitment,omitempty"`
}

type balanceResult struct {
	Lamports uint64 `json:"lamports"`
}

type latestBlockhashResult struct {
	Blockhash     string `json:"blockhash"`
	LastValidSlot uint64 `json:"last_valid_slot"`
}

type sendTransactionParams struct {
	Transaction string `json:"transaction"` // base64 signed transaction
}

type sendTransactionResult struct {
	Signature string `json:"signature"`
}

type getTransactionParams struct {
	Signature  string `json:"signature"`
	Commitment string `json:"commitment,omitempty"`
}

type getTransactionResult struct {
	Found       bool         `json:"found"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Slot        uint64       `json:"slot"`
	Status      string       `json:"status"`
}

type signatureStatusParams struct {
	Signature string `json:"signature"`
}

type signatureStatusResult struct {
	Signature     string `json:"signature"`
	Status        string `json:"status"`
	Slot          uint64 `json:"slot"`
	Confirmations uint64 `json:"confirmations"`
	ErrMsg        string `json:"err_msg"`
}

type requestAirdropParams struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

type requestAirdropResult struct {
	Signature string `json:"signature"`
}
