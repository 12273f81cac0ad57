package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_UsesTaxonomyMessage(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		message string
	}{
		{
			name:    "low_slippage",
			code:    CodeLowSlippage,
			message: "Slippage is too low for transaction.",
		},
		{
			name:    "execution_reverted_reads_as_pair_unavailable",
			code:    CodeExecutionReverted,
			message: "The selected pair is currently unavailable.",
		},
		{
			name:    "unknown_code_falls_back_to_code",
			code:    Code("SOMETHING_ELSE"),
			message: "SOMETHING_ELSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, err.Message)
			}
		})
	}
}

func TestIsCriticalCode(t *testing.T) {
	criticalCodes := []Code{CodeNotWhitelistedProvider, CodeUnsupportedDeflationToken, CodeExecutionReverted}
	for _, c := range criticalCodes {
		if !IsCriticalCode(c) {
			t.Errorf("expected %s to be critical", c)
		}
	}

	recoverable := []Code{CodeLowSlippage, CodeTooLowAmount, CodePairUnavailable, CodeRatesChanged, CodeProviderTimeout}
	for _, c := range recoverable {
		if IsCriticalCode(c) {
			t.Errorf("expected %s to be recoverable", c)
		}
	}
}

func TestAs_SeesThroughWrapping(t *testing.T) {
	orig := New(CodeNoAvailableRoutes, WithContext("lifi"))
	wrapped := fmt.Errorf("round 3: %w", orig)

	got, ok := As(wrapped)
	if !ok || got != orig {
		t.Fatalf("expected the original error, got %v", got)
	}
	if GetCode(wrapped) != CodeNoAvailableRoutes {
		t.Errorf("GetCode should see through wrapping")
	}
	if !errors.Is(wrapped, New(CodeNoAvailableRoutes)) {
		t.Errorf("errors.Is should compare by code")
	}
	if got.Error() != "NO_AVAILABLE_ROUTES: "+Message(CodeNoAvailableRoutes)+" (context: lifi)" {
		t.Errorf("unexpected text %q", got.Error())
	}
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := New(CodeQuoteFailed, WithCause(cause), WithContext("zerox"))

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if GetCode(cause) != CodeUnknownError {
		t.Error("plain errors should report UNKNOWN_ERROR")
	}
}

func TestAppError_LogArgs(t *testing.T) {
	err := New(CodeExecutionReverted, WithCause(errors.New("revert")), WithContext("uniswap"))

	fields := map[string]any{}
	args := err.LogArgs()
	for i := 0; i+1 < len(args); i += 2 {
		fields[args[i].(string)] = args[i+1]
	}

	if fields["code"] != CodeExecutionReverted || fields["context"] != "uniswap" || fields["cause"] != "revert" {
		t.Errorf("unexpected fields %v", fields)
	}
	if _, ok := fields["stack"]; !ok {
		t.Error("expected stack in log args")
	}
	if !err.Critical() {
		t.Error("execution reverted should be critical")
	}
}
