package cmd

import (
	"memoex/config"
)

// Tuning loaders fall back to defaults when no file is given or the file
// cannot be read; a missing tuning file is never fatal for a CLI run.

func loadFundingTuning(path string) config.FundingConfig {
	if path == "" {
		return config.DefaultFundingConfig()
	}
	cfg, _ := config.LoadFundingConfig(path)
	return cfg
}

func loadConfirmTuning(path string) config.ConfirmConfig {
	if path == "" {
		return config.DefaultConfirmConfig()
	}
	cfg, _ := config.LoadConfirmConfig(path)
	return cfg
}

func loadPollTuning(path string) config.PollConfig {
	if path == "" {
		return config.DefaultPollConfig()
	}
	cfg, _ := config.LoadPollConfig(path)
	return cfg
}
