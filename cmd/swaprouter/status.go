package main

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fd1az/swap-router/business/routing/infra/oneclick"
	"github.com/fd1az/swap-router/internal/config"
)

const statusPollInterval = 5 * time.Second

var (
	statusFollow  bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status <deposit-address>",
	Short: "Show the settlement status of a cross-chain swap",
	Long: `Status asks 1Click for the state of a swap identified by its deposit address,
as printed by the swap command after submission.`,
	Example: `  swaprouter status 0x2f3c...
  swaprouter status 0x2f3c... --follow --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "Poll until the swap settles or is refunded")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 15*time.Minute, "Give up following after this long")
}

// settled lists the states 1Click never leaves.
var settled = map[string]bool{
	"SUCCESS":  true,
	"REFUNDED": true,
	"FAILED":   true,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Enabled(config.ProviderOneClick) {
		return fmt.Errorf("the %s provider is not enabled", config.ProviderOneClick)
	}
	log := newLogger(cfg, logWriter())

	oc := oneclick.NewProvider(oneclick.Config{
		BaseURL:           cfg.OneClick.BaseURL,
		JWT:               cfg.OneClick.JWT,
		RequestsPerMinute: cfg.OneClick.RequestsPerMinute,
		Deadline:          cfg.OneClick.Deadline,
		TokenCacheTTL:     cfg.OneClick.TokenCacheTTL,
	}, func() string { return "" }, log)
	defer oc.Close()

	depositAddress := args[0]
	if !statusFollow {
		status, err := oc.Status(ctx, depositAddress)
		if err != nil {
			return err
		}
		printStatus(depositAddress, status)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	return followStatus(ctx, oc, depositAddress)
}

func followStatus(ctx context.Context, oc *oneclick.Provider, depositAddress string) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		status, err := oc.Status(ctx, depositAddress)
		if err != nil {
			return err
		}
		s.Suffix = " " + status
		if settled[status] {
			s.Stop()
			printStatus(depositAddress, status)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("swap still %s: %w", status, ctx.Err())
		case <-ticker.C:
		}
	}
}

func printStatus(depositAddress, status string) {
	paint := color.YellowString
	switch status {
	case "SUCCESS":
		paint = color.GreenString
	case "REFUNDED", "FAILED":
		paint = color.RedString
	}
	fmt.Printf("%s  %s\n", depositAddress, paint(status))
}
