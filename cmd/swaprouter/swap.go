package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fd1az/swap-router/business/routing/app"
	routingDI "github.com/fd1az/swap-router/business/routing/di"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
)

var (
	swapReceiver string
	swapProvider string
	noConfirm    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap " + swapArgsUsage,
	Short: "Find the best route and execute it through the connected wallet",
	Long: `Swap races every enabled provider, selects the best trade and executes it.
Tokens that need an allowance are approved for the exact amount first.
Cross-chain trades need --receiver when the destination chain uses a
different address format than the wallet.`,
	Example: `  swaprouter swap 100 USDC@ETH to USDT@ETH
  swaprouter swap 250 USDC@ETH to USDC@SOLANA --receiver <solana-addr> --provider ONE_CLICK
  swaprouter swap 0.1 ETH@ETH to USDC@ETH --yes`,
	Args: cobra.MinimumNArgs(3),
	RunE: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().StringVar(&swapReceiver, "receiver", "", "Receiver address on the destination chain")
	swapCmd.Flags().StringVar(&swapProvider, "provider", "", "Use this provider instead of the best one (e.g. UNISWAP_V3, LIFI)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation and accept rate changes")
}

func runSwap(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sess, err := startSession(ctx, sessionOptions{logWriter: logWriter(), autoConfirm: noConfirm})
	if err != nil {
		return err
	}
	defer sess.Close()

	req, err := parseSwapArgs(args, sess.Registry(), swapReceiver)
	if err != nil {
		return err
	}
	svc := sess.Service()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Finding the best route..."
	s.Start()

	roundCtx, cancel := context.WithTimeout(ctx, sess.cfg.Routing.Debounce+sess.cfg.Routing.ProviderTimeout+5*time.Second)
	err = awaitRound(roundCtx, svc, req)
	cancel()
	s.Stop()
	if err != nil {
		return fmt.Errorf("no route found in time: %w", err)
	}

	if swapProvider != "" {
		if err := svc.SelectTrade(domain.ProviderType(strings.ToUpper(swapProvider))); err != nil {
			return fmt.Errorf("provider %s has no route: %w", swapProvider, err)
		}
	}

	st := svc.Orchestrator().Selected()
	if !st.Ready() {
		if st.Err != nil {
			return st.Err
		}
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext(string(st.Status)))
	}
	printTrade(st)

	if !noConfirm && !routingDI.GetPrompt(sess.mono.Services()).Confirm("Execute this swap?") {
		fmt.Println("\nSwap cancelled.")
		return nil
	}

	err = svc.Execute(ctx, app.Callbacks{
		OnHash: func(hash string) {
			fmt.Printf("  Transaction sent: %s\n", color.CyanString(hash))
		},
		OnApprove: func() {
			color.Green("  ✓ Token approved")
		},
		OnSwap: func(offChainID string) {
			color.Green("\n✓ Swap submitted")
			if offChainID != "" {
				fmt.Println("\nYou can monitor the swap status using:")
				color.Cyan("  swaprouter status %s\n", offChainID)
			}
		},
	})
	if err != nil {
		// The error sink has already printed the classified failure.
		return errReported
	}
	return nil
}

func printTrade(st domain.SelectedTrade) {
	t := st.Trade
	color.Cyan("\n%s\n", strings.Repeat("─", 48))
	fmt.Printf("  Provider:    %s\n", domain.BackendProviderName(st.Provider))
	fmt.Printf("  You pay:     %s\n", t.From)
	fmt.Printf("  You receive: %s\n", color.GreenString(t.To.String()))
	if !t.Fee.IsZero() {
		fmt.Printf("  Fee:         %s\n", t.Fee)
	}
	fmt.Printf("  Rate:        %s\n", t.Rate().StringFixed(6))
	if len(t.Route) > 0 {
		fmt.Printf("  Route:       %s\n", strings.Join(t.Route, " → "))
	}
	if t.EstimatedDuration > 0 {
		fmt.Printf("  Duration:    ~%s\n", t.EstimatedDuration)
	}
	if st.NeedApprove {
		color.Yellow("  Token approval required before the swap")
	}
	color.Cyan("%s\n", strings.Repeat("─", 48))
}
