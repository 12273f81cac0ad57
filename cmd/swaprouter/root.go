package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "swaprouter",
	Short: "Quote and execute token swaps across on-chain and cross-chain providers",
	Long: `swaprouter races every enabled swap provider for the best route and
executes the selected trade through your wallet.

Examples:
  swaprouter quote 100 USDC@ETH to USDT@ETH
  swaprouter swap 0.5 ETH@ETH to USDC@SOLANA --receiver <solana-addr>
  swaprouter serve
  swaprouter watch 1000 USDC@ETH to USDC@BASE`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override app.log_level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
}

// errReported marks failures that were already shown to the user.
var errReported = errors.New("already reported")

func printError(err error) {
	if errors.Is(err, errReported) {
		return
	}
	color.Red("\nError: %v\n", err)
}
