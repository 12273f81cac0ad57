package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
)

var quoteReceiver string

var quoteCmd = &cobra.Command{
	Use:   "quote " + swapArgsUsage,
	Short: "Race every enabled provider once and print the ranked routes",
	Example: `  swaprouter quote 100 USDC@ETH to USDT@ETH
  swaprouter quote 1 ETH@ETH to USDC@SOLANA --receiver <solana-addr> --json`,
	Args: cobra.MinimumNArgs(3),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().StringVar(&quoteReceiver, "receiver", "", "Receiver address on the destination chain")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sess, err := startSession(ctx, sessionOptions{logWriter: logWriter()})
	if err != nil {
		return err
	}
	defer sess.Close()

	req, err := parseSwapArgs(args, sess.Registry(), quoteReceiver)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = fmt.Sprintf(" Racing providers for %s %s → %s...", req.Amount, req.FromAsset, req.ToAsset)
		s.Start()
	}

	quoteCtx, cancel := context.WithTimeout(ctx, sess.cfg.Routing.ProviderTimeout+time.Second)
	defer cancel()
	candidates, err := sess.Service().Quote(quoteCtx, req)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(wsfeed.CandidatesView(candidates))
	}
	printCandidates(os.Stdout, candidates)
	return nil
}

func printCandidates(w io.Writer, candidates []domain.Candidate) {
	if len(candidates) == 0 {
		color.New(color.FgYellow).Fprintln(w, "\nNo provider returned a route.")
		return
	}

	fmt.Fprintln(w)
	for i, c := range candidates {
		name := domain.BackendProviderName(c.Provider)
		if c.Err != nil || c.Trade == nil {
			msg := "no route"
			if c.Err != nil {
				msg = c.Err.Message
			}
			fmt.Fprintf(w, "  %d. %-14s %s\n", i+1, name, color.RedString(msg))
			continue
		}

		line := fmt.Sprintf("  %d. %-14s %s", i+1, name, color.GreenString(c.Trade.To.String()))
		if !c.Trade.Fee.IsZero() {
			line += color.HiBlackString("  fee %s", c.Trade.Fee)
		}
		if c.Trade.EstimatedDuration > 0 {
			line += color.HiBlackString("  ~%s", c.Trade.EstimatedDuration)
		}
		if c.Tags.IsBest {
			line += color.CyanString("  best")
		}
		if c.Tags.IsCheap {
			line += color.CyanString("  cheap")
		}
		if c.NeedsApproval {
			line += color.YellowString("  approval")
		}
		fmt.Fprintln(w, line)
	}

	if best, ok := app.BestAvailable(candidates); ok {
		fmt.Fprintf(w, "\n  Rate via %s: 1 %s = %s %s\n",
			domain.BackendProviderName(best.Provider),
			best.Trade.From.Asset().Symbol(),
			best.Trade.Rate().StringFixed(6),
			best.Trade.To.Asset().Symbol())
	}
	fmt.Fprintln(w)
}
