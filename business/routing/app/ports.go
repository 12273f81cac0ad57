// Package app contains the application services and port definitions for the routing context.
package app

import (
	"context"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
)

// Provider quotes a swap request. Implementations are black boxes: they return
// a trade or an error and may ignore ctx cancellation.
type Provider interface {
	Type() domain.ProviderType
	SwapType() domain.SwapType
	Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error)
}

// ApprovalChecker reports whether owner must approve the trade's spender first.
type ApprovalChecker interface {
	NeedsApproval(ctx context.Context, trade *domain.Trade, owner string) (bool, error)
}

// TransactionSubmitter executes approvals and swaps.
type TransactionSubmitter interface {
	// Approve grants the trade's spender allowance for the source amount.
	Approve(ctx context.Context, trade *domain.Trade, onHash func(hash string)) error

	// Submit executes the swap. A *domain.RateChangedError means the provider
	// re-quoted and the caller may resubmit with the updated trade.
	Submit(ctx context.Context, trade *domain.Trade, onHash func(hash string)) (*domain.Receipt, error)
}

// ConfirmationPrompt asks the user to accept a new rate. It may block indefinitely.
type ConfirmationPrompt interface {
	AskRateChanged(ctx context.Context, oldAmount, newAmount asset.Amount, symbol string) (bool, error)
}

// ErrorSink receives every classified execution failure.
type ErrorSink interface {
	Report(ctx context.Context, provider domain.ProviderType, err *apperror.AppError)
}

// WalletConnector exposes the connected account.
type WalletConnector interface {
	// Address returns the connected address, empty when disconnected.
	Address() string
	// Network returns the chain the wallet is connected to.
	Network() asset.Blockchain
	// Balance returns the wallet balance of a.
	Balance(ctx context.Context, a *asset.Asset) (asset.Amount, error)
}
