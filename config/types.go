package config

// RoleConfig describes one exchange role: where it talks to the ledger,
// where its key material and audit log live, and the amounts it moves.
type RoleConfig struct {
	RPCEndpoint string `yaml:"rpc_endpoint"`
	WalletPath  string `yaml:"wallet_path"`
	RecordPath  string `yaml:"record_path"`

	// Counterparty is the other role's base58 address, agreed out-of-band.
	Counterparty string `yaml:"counterparty"`

	// PaymentLamports is what a requester pays per service request.
	// ResponseLamports is the nominal transfer a provider attaches to its
	// response so the memo rides a valid transaction.
	PaymentLamports  uint64 `yaml:"payment_lamports"`
	ResponseLamports uint64 `yaml:"response_lamports"`

	// Funding floor and top-up for devnet-style auto-funding at startup.
	FundingFloorLamports uint64 `yaml:"funding_floor_lamports"`
	FundingTopUpLamports uint64 `yaml:"funding_topup_lamports"`

	MetricsAddr string `yaml:"metrics_addr"`
}

type ConfigFile struct {
	Config RoleConfig `yaml:"config"`
}
