// Package main is the entry point for the swap router.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
