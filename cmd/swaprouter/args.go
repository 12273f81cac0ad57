package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
)

const swapArgsUsage = "<amount> <SYMBOL@CHAIN> to <SYMBOL@CHAIN>"

// parseSwapArgs reads "100 USDC@ETH to USDT@ETH"; the "to" is optional.
func parseSwapArgs(args []string, registry *asset.Registry, receiver string) (domain.SwapRequest, error) {
	parts := swapParts(args)
	if len(parts) != 3 {
		return domain.SwapRequest{}, fmt.Errorf("expected %s", swapArgsUsage)
	}

	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return domain.SwapRequest{}, fmt.Errorf("invalid amount %q: %w", parts[0], err)
	}
	if !amount.IsPositive() {
		return domain.SwapRequest{}, fmt.Errorf("amount must be positive")
	}

	from, err := registry.Resolve(parts[1])
	if err != nil {
		return domain.SwapRequest{}, err
	}
	to, err := registry.Resolve(parts[2])
	if err != nil {
		return domain.SwapRequest{}, err
	}

	return domain.SwapRequest{
		FromAsset:       from,
		ToAsset:         to,
		Amount:          amount,
		ReceiverAddress: receiver,
	}, nil
}

func swapParts(args []string) []string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		for _, f := range strings.Fields(a) {
			if !strings.EqualFold(f, "to") {
				parts = append(parts, f)
			}
		}
	}
	return parts
}
