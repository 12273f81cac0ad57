package domain

import "errors"

// Provider adapters wrap these with %w so failures classify without string matching.
var (
	ErrNotSupportedTokens         = errors.New("swap between these tokens is not supported")
	ErrUnsupportedReceiverAddress = errors.New("receiver address is not supported")
	ErrCrossChainUnavailable      = errors.New("cross-chain swaps are unavailable")
	ErrLowSlippage                = errors.New("slippage is too low")
	ErrTooLowAmount               = errors.New("amount is too low")
	ErrNoAvailableRoutes          = errors.New("no available routes")
	ErrNotWhitelistedProvider     = errors.New("provider is not whitelisted")
	ErrUnsupportedDeflationToken  = errors.New("deflationary token is not supported")
	ErrExecutionReverted          = errors.New("execution reverted")
	ErrRatesChanged               = errors.New("rates changed")
	ErrWalletNotConnected         = errors.New("wallet is not connected")
)
