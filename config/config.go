package config

import (
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"memoex/logx"
)

// Hard floor for devnet demo amounts: 0.1 unit payment, 0.001 unit response.
const (
	DefaultPaymentLamports  = 100_000_000
	DefaultResponseLamports = 1_000_000
	DefaultFundingFloor     = 1_000_000_000
	DefaultFundingTopUp     = 2_000_000_000
)

// LoadRoleConfig reads and parses a role YAML file.
func LoadRoleConfig(path string) (*RoleConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to open role config: ", err)
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", "Failed to decode role config YAML: ", err)
		return nil, err
	}

	cfg := cfgFile.Config
	if cfg.PaymentLamports == 0 {
		cfg.PaymentLamports = DefaultPaymentLamports
	}
	if cfg.ResponseLamports == 0 {
		cfg.ResponseLamports = DefaultResponseLamports
	}
	if cfg.FundingFloorLamports == 0 {
		cfg.FundingFloorLamports = DefaultFundingFloor
	}
	if cfg.FundingTopUpLamports == 0 {
		cfg.FundingTopUpLamports = DefaultFundingTopUp
	}
	return &cfg, nil
}

// Tuning knobs live in an optional .ini file, one section per concern.

type FundingConfig struct {
	MaxAttempts   int `ini:"max_attempts"`
	BaseBackoffMs int `ini:"base_backoff_ms"`
}

type ConfirmConfig struct {
	TimeoutMs      int `ini:"timeout_ms"`
	PollIntervalMs int `ini:"poll_interval_ms"`
}

type PollConfig struct {
	MaxAttempts int `ini:"max_attempts"`
	DelayMs     int `ini:"delay_ms"`
}

func DefaultFundingConfig() FundingConfig {
	return FundingConfig{MaxAttempts: 5, BaseBackoffMs: 1000}
}

func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{TimeoutMs: 30_000, PollIntervalMs: 500}
}

func DefaultPollConfig() PollConfig {
	return PollConfig{MaxAttempts: 10, DelayMs: 2000}
}

// LoadFundingConfig reads the [funding] section from an .ini file.
func LoadFundingConfig(path string) (FundingConfig, error) {
	fundingCfg := DefaultFundingConfig()
	cfg, err := ini.Load(path)
	if err != nil {
		return fundingCfg, err
	}
	if err := cfg.Section("funding").MapTo(&fundingCfg); err != nil {
		return DefaultFundingConfig(), err
	}
	return fundingCfg, nil
}

// LoadConfirmConfig reads the [confirm] section from an .ini file.
func LoadConfirmConfig(path string) (ConfirmConfig, error) {
	confirmCfg := DefaultConfirmConfig()
	cfg, err := ini.Load(path)
	if err != nil {
		return confirmCfg, err
	}
	if err := cfg.Section("confirm").MapTo(&confirmCfg); err != nil {
		return DefaultConfirmConfig(), err
	}
	return confirmCfg, nil
}

// LoadPollConfig reads the [poll] section from an .ini file.
func LoadPollConfig(path string) (PollConfig, error) {
	pollCfg := DefaultPollConfig()
	cfg, err := ini.Load(path)
	if err != nil {
		return pollCfg, err
	}
	if err := cfg.Section("poll").MapTo(&pollCfg); err != nil {
		return DefaultPollConfig(), err
	}
	return pollCfg, nil
}
