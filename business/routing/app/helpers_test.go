package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/pubsub"
	"github.com/shopspring/decimal"
)

// mockLogger implements logger.LoggerInterface for testing.
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
	providerA domain.ProviderType = "P1"
	providerB domain.ProviderType = "P2"
	providerC domain.ProviderType = "P3"
)

// fakeProvider records its requests and delegates to calc.
type fakeProvider struct {
	typ      domain.ProviderType
	swapType domain.SwapType
	calc     func(ctx context.Context, req domain.SwapRequest, call int) (*domain.Trade, error)

	calls    atomic.Int32
	mu       sync.Mutex
	requests []domain.SwapRequest
}

func (f *fakeProvider) Type() domain.ProviderType { return f.typ }
func (f *fakeProvider) SwapType() domain.SwapType { return f.swapType }

func (f *fakeProvider) Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error) {
	call := int(f.calls.Add(1))
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.calc(ctx, req, call)
}

func (f *fakeProvider) lastRequest() domain.SwapRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func quoting(typ domain.ProviderType, st domain.SwapType, out string) *fakeProvider {
	return &fakeProvider{
		typ:      typ,
		swapType: st,
		calc: func(_ context.Context, req domain.SwapRequest, _ int) (*domain.Trade, error) {
			return tradeFor(typ, req, out), nil
		},
	}
}

func failing(typ domain.ProviderType, st domain.SwapType, err error) *fakeProvider {
	return &fakeProvider{
		typ:      typ,
		swapType: st,
		calc: func(context.Context, domain.SwapRequest, int) (*domain.Trade, error) {
			return nil, err
		},
	}
}

func tradeFor(typ domain.ProviderType, req domain.SwapRequest, out string) *domain.Trade {
	return &domain.Trade{
		Provider: typ,
		Type:     req.Type(),
		From:     asset.MustParseString(req.FromAsset, req.Amount.String()),
		To:       asset.MustParseString(req.ToAsset, out),
	}
}

func onChainRequest(amount string) domain.SwapRequest {
	return domain.SwapRequest{
		FromAsset: asset.USDC,
		ToAsset:   asset.USDT,
		Amount:    decimal.RequireFromString(amount),
	}
}

func crossChainRequest(amount string) domain.SwapRequest {
	return domain.SwapRequest{
		FromAsset:       asset.USDC,
		ToAsset:         asset.USDCSolana,
		Amount:          decimal.RequireFromString(amount),
		ReceiverAddress: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
	}
}

func candidate(typ domain.ProviderType, priority int, out string, fee string) domain.Candidate {
	req := onChainRequest("100")
	trade := tradeFor(typ, req, out)
	if fee != "" {
		trade.Fee = asset.MustParseString(asset.USDT, fee)
	}
	return domain.Candidate{Outcome: domain.Outcome{
		Provider: typ,
		SwapType: domain.SwapTypeInstantTrade,
		Kind:     domain.OutcomeTrade,
		Trade:    trade,
		Priority: priority,
	}}
}

func errorCandidate(typ domain.ProviderType, priority int, code apperror.Code) domain.Candidate {
	return domain.Candidate{Outcome: domain.Outcome{
		Provider: typ,
		SwapType: domain.SwapTypeInstantTrade,
		Kind:     domain.OutcomeError,
		Err:      apperror.New(code),
		Priority: priority,
	}}
}

// waitFor blocks until topic publishes a value matching pred.
func waitFor[T any](t *testing.T, topic *pubsub.Topic[T], pred func(T) bool) T {
	t.Helper()
	sub := topic.Subscribe(64)
	defer sub.Unsubscribe()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case v, ok := <-sub.C():
			if !ok {
				t.Fatal("topic closed")
			}
			if pred(v) {
				return v
			}
		case <-timeout:
			t.Fatal("timed out waiting for topic value")
		}
	}
}

func roundDone(p domain.Progress) bool {
	return p.Total > 0 && p.Calculated == p.Total
}

type fakeApprovals struct {
	need bool
	err  error
}

func (f *fakeApprovals) NeedsApproval(context.Context, *domain.Trade, string) (bool, error) {
	return f.need, f.err
}
