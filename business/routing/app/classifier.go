package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
)

var sentinelCodes = []struct {
	err  error
	code apperror.Code
}{
	{domain.ErrNotWhitelistedProvider, apperror.CodeNotWhitelistedProvider},
	{domain.ErrUnsupportedDeflationToken, apperror.CodeUnsupportedDeflationToken},
	{domain.ErrExecutionReverted, apperror.CodeExecutionReverted},
	{domain.ErrNotSupportedTokens, apperror.CodeNotSupportedTokens},
	{domain.ErrUnsupportedReceiverAddress, apperror.CodeUnsupportedReceiverAddress},
	{domain.ErrCrossChainUnavailable, apperror.CodeCrossChainUnavailable},
	{domain.ErrLowSlippage, apperror.CodeLowSlippage},
	{domain.ErrTooLowAmount, apperror.CodeTooLowAmount},
	{domain.ErrNoAvailableRoutes, apperror.CodeNoAvailableRoutes},
}

// Matched case-insensitively against raw provider messages.
var messageFragments = []struct {
	fragment string
	code     apperror.Code
}{
	{"no available routes", apperror.CodeNoAvailableRoutes},
	{"there are no providers for trade", apperror.CodeNoProvidersForTrade},
	{"representation of ", apperror.CodeUnsupportedRepresentation},
	{"execution reverted", apperror.CodeExecutionReverted},
}

var taxonomy = map[apperror.Code]bool{
	apperror.CodeNotSupportedTokens:         true,
	apperror.CodeUnsupportedReceiverAddress: true,
	apperror.CodeCrossChainUnavailable:      true,
	apperror.CodeLowSlippage:                true,
	apperror.CodeTooLowAmount:               true,
	apperror.CodeNoAvailableRoutes:          true,
	apperror.CodeNoProvidersForTrade:        true,
	apperror.CodeUnsupportedRepresentation:  true,
	apperror.CodeProviderTimeout:            true,
	apperror.CodeNotWhitelistedProvider:     true,
	apperror.CodeUnsupportedDeflationToken:  true,
	apperror.CodeExecutionReverted:          true,
	apperror.CodePairUnavailable:            true,
	apperror.CodeRatesChanged:               true,
}

// Classify maps any provider or execution error onto the fixed taxonomy.
// The returned error always carries the taxonomy message; err is kept as cause.
func Classify(err error) *apperror.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && taxonomy[appErr.Code] {
		if appErr.Message == apperror.Message(appErr.Code) {
			return appErr
		}
		return apperror.New(appErr.Code, apperror.WithCause(err), apperror.WithContext(appErr.Context))
	}

	return apperror.New(classifyCode(err), apperror.WithCause(err))
}

func classifyCode(err error) apperror.Code {
	if errors.Is(err, domain.ErrRatesChanged) {
		return apperror.CodeRatesChanged
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.CodeProviderTimeout
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		for _, f := range messageFragments {
			if strings.Contains(msg, f.fragment) {
				return f.code
			}
		}
	}
	return apperror.CodePairUnavailable
}

// IsCritical reports whether err disables its provider for the session.
func IsCritical(err error) bool {
	if err == nil {
		return false
	}
	return apperror.IsCriticalCode(apperror.GetCode(err))
}

// panicError turns a recovered provider panic into an error.
func panicError(provider domain.ProviderType, r any) error {
	return fmt.Errorf("provider %s panicked: %v", provider, r)
}
