package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"version":   version,
				"commit":    commit,
				"buildDate": buildDate,
				"go":        runtime.Version(),
			})
		}
		fmt.Printf("swaprouter %s\n  commit: %s\n  built:  %s\n  go:     %s\n", version, commit, buildDate, runtime.Version())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
