package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRoleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "role.yml")
	body := `config:
  rpc_endpoint: "http://localhost:8899"
  wallet_path: "wallets/requester.json"
  record_path: "logs/requester_exchanges.json"
  counterparty: "PqbfV5pLGCBSkUcCgNL6L3JTQBwFEFtos3ADhT4FVPP"
  payment_lamports: 100000000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadRoleConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8899", cfg.RPCEndpoint)
	require.Equal(t, uint64(100_000_000), cfg.PaymentLamports)
	// Unset amounts fall back to defaults
	require.Equal(t, uint64(DefaultResponseLamports), cfg.ResponseLamports)
	require.Equal(t, uint64(DefaultFundingFloor), cfg.FundingFloorLamports)
}

func TestLoadTuningConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.ini")
	body := `[funding]
max_attempts = 3
base_backoff_ms = 250

[confirm]
timeout_ms = 5000
poll_interval_ms = 100

[poll]
max_attempts = 4
delay_ms = 50
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	funding, err := LoadFundingConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, funding.MaxAttempts)
	require.Equal(t, 250, funding.BaseBackoffMs)

	confirm, err := LoadConfirmConfig(path)
	require.NoError(t, err)
	require.Equal(t, 5000, confirm.TimeoutMs)
	require.Equal(t, 100, confirm.PollIntervalMs)

	poll, err := LoadPollConfig(path)
	require.NoError(t, err)
	require.Equal(t, 4, poll.MaxAttempts)
	require.Equal(t, 50, poll.DelayMs)
}

func TestTuningDefaultsWhenFileMissing(t *testing.T) {
	funding, err := LoadFundingConfig(filepath.Join(t.TempDir(), "absent.ini"))
	require.Error(t, err)
	require.Equal(t, DefaultFundingConfig(), funding)
}
