package cmd

import (
	"os"

	"github.com/mezonai/simplechain/logx"
	"github.com/spf13/cobra"
)

var (
	configPath        string
	runtimeConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "simplechain",
	Short: "Tamper-evident append-only ledger",
	Long:  "Command line interface for creating, extending and auditing a local hash-linked block chain.",
	// errors are logged by Execute
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/node.yml", "Path to node configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&runtimeConfigPath, "runtime-config", "config/config.ini", "Path to runtime configuration file (INI)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed: ", err)
		os.Exit(1)
	}
}
