package lifi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

const (
	sender         = "0x1111111111111111111111111111111111111111"
	solanaReceiver = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

const quoteBody = `{
	"id": "quote-1",
	"tool": "mayan",
	"estimate": {
		"fromAmount": "100000000",
		"toAmount": "99100000",
		"toAmountMin": "98109000",
		"approvalAddress": "0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE",
		"executionDuration": 45.5,
		"feeCosts": [
			{"name": "relayer", "amount": "250000", "included": true,
			 "token": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "chainId": 1151111081099710, "symbol": "USDC", "decimals": 6}},
			{"name": "gas", "amount": "1000", "included": false,
			 "token": {"address": "0x0000000000000000000000000000000000000000", "chainId": 1, "symbol": "ETH", "decimals": 18}}
		]
	},
	"includedSteps": [{"tool": "mayan"}, {"tool": "jupiter"}],
	"transactionRequest": {
		"to": "0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE",
		"data": "0xdeadbeef",
		"value": "0x0",
		"gasLimit": "0x493e0"
	}
}`

func newProvider(t *testing.T, wallet string, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewProvider(Config{
		BaseURL:    server.URL,
		Integrator: "swap-router",
		Timeout:    time.Second,
		Slippage:   decimal.RequireFromString("0.01"),
	}, func() string { return wallet }, &mockLogger{})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func toSolana(receiver string) domain.SwapRequest {
	return domain.SwapRequest{
		FromAsset:       asset.USDC,
		ToAsset:         asset.USDCSolana,
		Amount:          decimal.NewFromInt(100),
		ReceiverAddress: receiver,
	}
}

func TestCalculate_ParsesQuote(t *testing.T) {
	p := newProvider(t, sender, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fromChain") != "1" || q.Get("toChain") != "1151111081099710" {
			t.Errorf("unexpected chains %s", r.URL.RawQuery)
		}
		if q.Get("fromAddress") != sender || q.Get("toAddress") != solanaReceiver {
			t.Errorf("unexpected addresses %s", r.URL.RawQuery)
		}
		if q.Get("slippage") != "0.01" || q.Get("integrator") != "swap-router" {
			t.Errorf("unexpected slippage/integrator %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, quoteBody)
	})

	trade, err := p.Calculate(context.Background(), toSolana(solanaReceiver))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if trade.Type != domain.SwapTypeCrossChain || trade.Provider != domain.ProviderLiFi {
		t.Errorf("unexpected provider/type %s/%s", trade.Provider, trade.Type)
	}
	if trade.To.Raw().Int64() != 99_100_000 {
		t.Errorf("unexpected output %s", trade.To)
	}
	if trade.Fee.Raw().Int64() != 250_000 {
		t.Errorf("expected only destination-denominated fees, got %s", trade.Fee)
	}
	if trade.EstimatedDuration != 45500*time.Millisecond {
		t.Errorf("unexpected duration %s", trade.EstimatedDuration)
	}
	if len(trade.Route) != 2 || trade.Route[1] != "jupiter" {
		t.Errorf("unexpected route %v", trade.Route)
	}
	if trade.Spender != "0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE" {
		t.Errorf("unexpected spender %q", trade.Spender)
	}
	if trade.Tx == nil || trade.Tx.Gas != 300000 || trade.Tx.Value.Sign() != 0 {
		t.Errorf("unexpected tx %+v", trade.Tx)
	}
	if trade.Has(domain.CapOffChainID) {
		t.Error("lifi trades settle on-chain")
	}
}

func TestCalculate_Preconditions(t *testing.T) {
	tests := []struct {
		name   string
		wallet string
		req    domain.SwapRequest
		want   error
	}{
		{name: "no wallet", wallet: "", req: toSolana(solanaReceiver), want: domain.ErrWalletNotConnected},
		{name: "receiver required", wallet: sender, req: toSolana(""), want: domain.ErrUnsupportedReceiverAddress},
		{name: "invalid receiver", wallet: sender, req: toSolana(sender), want: domain.ErrUnsupportedReceiverAddress},
		{name: "near unsupported", wallet: sender, req: domain.SwapRequest{
			FromAsset: asset.USDC, ToAsset: asset.USDCNear, Amount: decimal.NewFromInt(1), ReceiverAddress: "alice.near",
		}, want: domain.ErrCrossChainUnavailable},
		{name: "non-evm source", wallet: sender, req: domain.SwapRequest{
			FromAsset: asset.USDCSolana, ToAsset: asset.USDC, Amount: decimal.NewFromInt(1), ReceiverAddress: sender,
		}, want: domain.ErrCrossChainUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, tt.wallet, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})

			_, err := p.Calculate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCalculate_SameFamilyDefaultsReceiverToSender(t *testing.T) {
	p := newProvider(t, sender, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("toAddress"); got != sender {
			t.Errorf("expected sender as receiver, got %q", got)
		}
		fmt.Fprint(w, quoteBody)
	})

	_, err := p.Calculate(context.Background(), domain.SwapRequest{
		FromAsset: asset.USDC, ToAsset: asset.USDCArbitrum, Amount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "no quote", status: 404, body: `{"code":1002,"message":"No available quotes for the requested transfer"}`, want: domain.ErrNoAvailableRoutes},
		{name: "slippage", status: 400, body: `{"code":1007,"message":"slippage"}`, want: domain.ErrLowSlippage},
		{name: "unknown token", status: 404, body: `{"code":1003,"message":"Unknown token"}`, want: domain.ErrNotSupportedTokens},
		{name: "bad receiver", status: 400, body: `{"code":1011,"message":"Invalid toAddress"}`, want: domain.ErrUnsupportedReceiverAddress},
		{name: "amount", status: 400, body: `{"code":1011,"message":"The from amount is too low"}`, want: domain.ErrTooLowAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := mapError(tt.status, []byte(tt.body)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	var ae *apiError
	if err := mapError(500, []byte("upstream down")); !errors.As(err, &ae) || ae.Message != "upstream down" {
		t.Errorf("expected raw apiError, got %v", err)
	}
	if err := mapError(200, nil); err != nil {
		t.Errorf("expected nil for success, got %v", err)
	}
}
