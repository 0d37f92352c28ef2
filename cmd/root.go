package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"memoex/logx"
)

var rootCmd = &cobra.Command{
	Use:   "memoex",
	Short: "Memo exchange protocol CLI",
	Long:  "Command line interface for running memo-based service exchanges over a ledger.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
