package main

import (
	"testing"

	"github.com/fd1az/swap-router/internal/asset"
)

func TestParseSwapArgs(t *testing.T) {
	registry := asset.DefaultRegistry()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "with to", args: []string{"100", "USDC@ETH", "to", "USDT@ETH"}},
		{name: "without to", args: []string{"100", "usdc@eth", "usdt@eth"}},
		{name: "single argument", args: []string{"100 USDC@ETH to USDT@ETH"}},
		{name: "missing asset", args: []string{"100", "USDC@ETH"}, wantErr: true},
		{name: "bad amount", args: []string{"ten", "USDC@ETH", "USDT@ETH"}, wantErr: true},
		{name: "zero amount", args: []string{"0", "USDC@ETH", "USDT@ETH"}, wantErr: true},
		{name: "unknown asset", args: []string{"1", "DOGE@ETH", "USDT@ETH"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseSwapArgs(tt.args, registry, "0xreceiver")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", req)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.FromAsset != asset.USDC || req.ToAsset != asset.USDT {
				t.Errorf("unexpected assets %v -> %v", req.FromAsset, req.ToAsset)
			}
			if req.Amount.String() != "100" {
				t.Errorf("expected amount 100, got %s", req.Amount)
			}
			if req.ReceiverAddress != "0xreceiver" {
				t.Errorf("receiver not set: %q", req.ReceiverAddress)
			}
		})
	}
}

func TestInputCommand(t *testing.T) {
	c, err := inputCommand([]string{"12.5", "USDC@ETH", "to", "USDC@SOLANA"}, "So1ana")
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != "input" || c.Amount != "12.5" || c.From != "USDC@ETH" || c.To != "USDC@SOLANA" || c.Receiver != "So1ana" {
		t.Errorf("unexpected command %+v", c)
	}

	if _, err := inputCommand([]string{"12.5"}, ""); err == nil {
		t.Error("expected error for incomplete swap")
	}
}
