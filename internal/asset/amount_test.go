package asset_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/fd1az/swap-router/internal/asset"
	"github.com/shopspring/decimal"
)

func TestAmount_Basic(t *testing.T) {
	// 1 ETH = 1e18 wei
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))

	if oneETH.IsZero() {
		t.Error("expected non-zero amount")
	}
	if !oneETH.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", oneETH.ToDecimal().String())
	}
	if oneETH.String() != "1 ETH" {
		t.Errorf("expected '1 ETH', got '%s'", oneETH.String())
	}
}

func TestAmount_AddSub(t *testing.T) {
	one := asset.MustParseString(asset.USDC, "1")
	two := asset.MustParseString(asset.USDC, "2")

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", sum.ToDecimal())
	}

	if _, err := one.Sub(two); err == nil {
		t.Error("expected error for negative result")
	}
}

func TestAmount_CannotMixChains(t *testing.T) {
	usdcEth := asset.MustParseString(asset.USDC, "1")
	usdcPolygon := asset.MustParseString(asset.USDCPolygon, "1")

	if _, err := usdcEth.Add(usdcPolygon); err == nil {
		t.Error("same symbol on different chains must not be added")
	}
	if usdcEth.Equals(usdcPolygon) {
		t.Error("same symbol on different chains must not be equal")
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		asset   *asset.Asset
		input   string
		raw     string
		wantErr bool
	}{
		{name: "eth_fraction", asset: asset.ETH, input: "1.5", raw: "1500000000000000000"},
		{name: "usdc_whole", asset: asset.USDC, input: "100", raw: "100000000"},
		{name: "near_24_decimals", asset: asset.NEAR, input: "0.000001", raw: "1000000000000000000"},
		{name: "too_many_decimals", asset: asset.USDC, input: "1.1234567", wantErr: true},
		{name: "negative", asset: asset.USDC, input: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := asset.ParseString(tt.asset, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if amount.Raw().String() != tt.raw {
				t.Errorf("expected raw %s, got %s", tt.raw, amount.Raw())
			}
		})
	}
}

func TestFromDecimalTruncated(t *testing.T) {
	amount, err := asset.FromDecimalTruncated(asset.USDC, decimal.RequireFromString("199.12345678"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Raw().String() != "199123456" {
		t.Errorf("expected truncation to 6 decimals, got %s", amount.Raw())
	}
}

func TestTokensRate(t *testing.T) {
	from := asset.MustParseString(asset.USDC, "100")
	to := asset.MustParseString(asset.USDCPolygon, "99.5")

	rate := asset.TokensRate(from, to)
	if !rate.Equal(decimal.RequireFromString("0.995")) {
		t.Errorf("expected 0.995, got %s", rate)
	}
	if !asset.TokensRate(asset.Zero(asset.USDC), to).IsZero() {
		t.Error("expected zero rate for zero input")
	}
}

func TestPercentDiff(t *testing.T) {
	got := asset.PercentDiff(decimal.NewFromInt(100), decimal.NewFromInt(95))
	if !got.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("expected -5, got %s", got)
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	usdc, err := r.Resolve("usdc@polygon")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !usdc.Equals(asset.USDCPolygon) {
		t.Errorf("expected polygon USDC, got %s", usdc.ID())
	}

	if _, err := r.Resolve("USDC"); err == nil {
		t.Error("expected error without chain")
	}
	if _, err := r.Resolve("DOGE@ETH"); err == nil {
		t.Error("expected error for unknown symbol")
	}
	if err := r.Register(asset.ETH); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	refs := r.Refs()
	if len(refs) != 15 || refs[0] != "ETH@ARBITRUM" {
		t.Errorf("unexpected refs %v", refs)
	}
}

func TestAssetID_NormalizesEVMAddress(t *testing.T) {
	lower := asset.NewTokenAssetID(asset.BlockchainEthereum, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	if !lower.Equals(asset.USDC.ID()) {
		t.Errorf("expected checksummed address, got %s", lower.Address())
	}
}

func TestAmount_LessBps(t *testing.T) {
	out := asset.MustParseString(asset.USDC, "100")

	tests := []struct {
		bps  int64
		want string
	}{
		{bps: 0, want: "100"},
		{bps: 50, want: "99.5"},
		{bps: 100, want: "99"},
		{bps: 10_000, want: "0"},
	}
	for _, tt := range tests {
		got := out.LessBps(tt.bps)
		if !got.ToDecimal().Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("LessBps(%d) = %s, want %s", tt.bps, got, tt.want)
		}
	}
	if out.ToDecimal().String() != "100" {
		t.Error("LessBps must not modify the receiver")
	}
}

func TestAmount_MismatchNamesChains(t *testing.T) {
	_, err := asset.MustParseString(asset.USDC, "1").Cmp(asset.MustParseString(asset.USDCPolygon, "1"))
	if err == nil || !strings.Contains(err.Error(), "USDC@ETH vs USDC@POLYGON") {
		t.Errorf("unexpected error %v", err)
	}
}
