package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     apperror.Code
		critical bool
	}{
		{"not supported tokens", fmt.Errorf("zerox: %w", domain.ErrNotSupportedTokens), apperror.CodeNotSupportedTokens, false},
		{"receiver", domain.ErrUnsupportedReceiverAddress, apperror.CodeUnsupportedReceiverAddress, false},
		{"cross-chain unavailable", domain.ErrCrossChainUnavailable, apperror.CodeCrossChainUnavailable, false},
		{"low slippage", domain.ErrLowSlippage, apperror.CodeLowSlippage, false},
		{"too low amount", fmt.Errorf("lifi: %w", domain.ErrTooLowAmount), apperror.CodeTooLowAmount, false},
		{"no routes fragment", errors.New("No available routes for USDC"), apperror.CodeNoAvailableRoutes, false},
		{"no providers fragment", errors.New("There are no providers for trade"), apperror.CodeNoProvidersForTrade, false},
		{"representation fragment", errors.New("Representation of TRX is not supported"), apperror.CodeUnsupportedRepresentation, false},
		{"timeout", fmt.Errorf("quote: %w", context.DeadlineExceeded), apperror.CodeProviderTimeout, false},
		{"not whitelisted", fmt.Errorf("oneclick: %w", domain.ErrNotWhitelistedProvider), apperror.CodeNotWhitelistedProvider, true},
		{"deflation", domain.ErrUnsupportedDeflationToken, apperror.CodeUnsupportedDeflationToken, true},
		{"reverted fragment", errors.New("execution reverted: STF"), apperror.CodeExecutionReverted, true},
		{"rates changed", &domain.RateChangedError{Provider: domain.ProviderOneClick}, apperror.CodeRatesChanged, false},
		{"unknown", errors.New("socket hang up"), apperror.CodePairUnavailable, false},
		{
			"fragment behind app error",
			apperror.New(apperror.CodeQuoteFailed, apperror.WithCause(errors.New("no available routes"))),
			apperror.CodeNoAvailableRoutes,
			false,
		},
		{
			"taxonomy app error kept",
			apperror.New(apperror.CodeProviderTimeout, apperror.WithContext("lifi")),
			apperror.CodeProviderTimeout,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.want {
				t.Errorf("code = %s, want %s", got.Code, tt.want)
			}
			if got.Message != apperror.Message(tt.want) {
				t.Errorf("message = %q, want taxonomy message %q", got.Message, apperror.Message(tt.want))
			}
			if IsCritical(got) != tt.critical {
				t.Errorf("critical = %v, want %v", IsCritical(got), tt.critical)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("expected nil for nil error")
	}
	if IsCritical(nil) {
		t.Error("nil is never critical")
	}
}

func TestClassify_KeepsCause(t *testing.T) {
	raw := errors.New("socket hang up")
	got := Classify(raw)
	if !errors.Is(got, raw) {
		t.Error("expected raw error to remain reachable as cause")
	}
}
