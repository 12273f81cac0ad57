package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/shopspring/decimal"
)

func collect(ch <-chan domain.Outcome) []domain.Outcome {
	var out []domain.Outcome
	for o := range ch {
		out = append(out, o)
	}
	return out
}

func newEngine(t *testing.T, timeout time.Duration, approvals ApprovalChecker, providers ...Provider) *RaceEngine {
	t.Helper()
	e, err := NewRaceEngine(providers, approvals, timeout, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestRace_OneOutcomePerProvider(t *testing.T) {
	panicking := &fakeProvider{
		typ:      providerC,
		swapType: domain.SwapTypeInstantTrade,
		calc: func(context.Context, domain.SwapRequest, int) (*domain.Trade, error) {
			panic("boom")
		},
	}
	engine := newEngine(t, time.Second, nil,
		quoting(providerA, domain.SwapTypeInstantTrade, "200"),
		failing(providerB, domain.SwapTypeInstantTrade, errors.New("No available routes")),
		panicking,
		quoting("CROSS", domain.SwapTypeCrossChain, "1"),
	)

	req := onChainRequest("100")
	round := domain.Round{ID: 7, Request: req, Type: req.Type()}
	outcomes := collect(engine.Race(context.Background(), round, domain.NewDisabledProviders(), ""))

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	byProvider := map[domain.ProviderType]domain.Outcome{}
	for i, o := range outcomes {
		if o.RoundID != 7 {
			t.Errorf("expected round id 7, got %d", o.RoundID)
		}
		if o.Progress.Total != 3 || o.Progress.Calculated != i+1 {
			t.Errorf("outcome %d: progress %+v", i, o.Progress)
		}
		byProvider[o.Provider] = o
	}

	if !byProvider[providerA].Succeeded() {
		t.Errorf("expected %s to succeed", providerA)
	}
	if got := byProvider[providerB].Err; got == nil || got.Code != apperror.CodeNoAvailableRoutes {
		t.Errorf("expected NO_AVAILABLE_ROUTES for %s, got %v", providerB, got)
	}
	if got := byProvider[providerC].Err; got == nil || got.Code != apperror.CodePairUnavailable {
		t.Errorf("expected panic to classify as PAIR_UNAVAILABLE, got %v", got)
	}
	if byProvider[providerB].Priority != 1 {
		t.Errorf("expected registration order as priority, got %d", byProvider[providerB].Priority)
	}
}

func TestRace_TimeoutBecomesErrorOutcome(t *testing.T) {
	stuck := &fakeProvider{
		typ:      providerA,
		swapType: domain.SwapTypeInstantTrade,
		calc: func(context.Context, domain.SwapRequest, int) (*domain.Trade, error) {
			select {} // ignores ctx
		},
	}
	engine := newEngine(t, 20*time.Millisecond, nil, stuck)

	req := onChainRequest("1")
	outcomes := collect(engine.Race(context.Background(), domain.Round{ID: 1, Request: req, Type: req.Type()}, domain.NewDisabledProviders(), ""))

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Err == nil || outcomes[0].Err.Code != apperror.CodeProviderTimeout {
		t.Errorf("expected PROVIDER_TIMEOUT, got %v", outcomes[0].Err)
	}
	if !outcomes[0].Progress.Done() {
		t.Error("expected progress to reach total")
	}
}

func TestRace_ExcludesDisabledProviders(t *testing.T) {
	a := quoting(providerA, domain.SwapTypeCrossChain, "1")
	b := quoting(providerB, domain.SwapTypeCrossChain, "1")
	engine := newEngine(t, time.Second, nil, a, b)

	disabled := domain.NewDisabledProviders().With(domain.SwapTypeCrossChain, providerB)
	req := crossChainRequest("10")
	outcomes := collect(engine.Race(context.Background(), domain.Round{ID: 1, Request: req, Type: req.Type()}, disabled, ""))

	if len(outcomes) != 1 || outcomes[0].Provider != providerA {
		t.Fatalf("expected only %s, got %+v", providerA, outcomes)
	}
	if b.calls.Load() != 0 {
		t.Errorf("expected disabled provider not to be called, got %d calls", b.calls.Load())
	}
	if got := engine.Enabled(domain.SwapTypeCrossChain, disabled); len(got) != 1 {
		t.Errorf("expected 1 enabled provider, got %d", len(got))
	}
}

func TestRace_NoProvidersClosesImmediately(t *testing.T) {
	engine := newEngine(t, time.Second, nil)
	req := onChainRequest("1")
	if got := collect(engine.Race(context.Background(), domain.Round{ID: 1, Request: req, Type: req.Type()}, domain.NewDisabledProviders(), "")); len(got) != 0 {
		t.Errorf("expected no outcomes, got %d", len(got))
	}
}

func TestRace_ApprovalCheck(t *testing.T) {
	withSpender := &fakeProvider{
		typ:      providerA,
		swapType: domain.SwapTypeInstantTrade,
		calc: func(_ context.Context, req domain.SwapRequest, _ int) (*domain.Trade, error) {
			trade := tradeFor(providerA, req, "99")
			trade.Spender = "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"
			return trade, nil
		},
	}
	req := onChainRequest("100")
	round := domain.Round{ID: 1, Request: req, Type: req.Type()}

	tests := []struct {
		name      string
		approvals ApprovalChecker
		owner     string
		want      bool
	}{
		{"needs approval", &fakeApprovals{need: true}, "0xowner", true},
		{"check fails", &fakeApprovals{need: true, err: errors.New("rpc down")}, "0xowner", false},
		{"no wallet", &fakeApprovals{need: true}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t, time.Second, tt.approvals, withSpender)
			outcomes := collect(engine.Race(context.Background(), round, domain.NewDisabledProviders(), tt.owner))
			if outcomes[0].NeedsApproval != tt.want {
				t.Errorf("NeedsApproval = %v, want %v", outcomes[0].NeedsApproval, tt.want)
			}
		})
	}

	native := domain.SwapRequest{FromAsset: asset.ETH, ToAsset: asset.USDC, Amount: decimal.NewFromInt(1)}
	engine := newEngine(t, time.Second, &fakeApprovals{need: true}, withSpender)
	outcomes := collect(engine.Race(context.Background(), domain.Round{ID: 2, Request: native, Type: native.Type()}, domain.NewDisabledProviders(), "0xowner"))
	if outcomes[0].NeedsApproval {
		t.Error("expected native source asset never to need approval")
	}
}
