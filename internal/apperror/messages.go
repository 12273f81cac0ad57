package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Swap routing
	CodeNotSupportedTokens:         "Currently, swaps between these tokens are not supported.",
	CodeUnsupportedReceiverAddress: "This provider doesn't support the receiver address.",
	CodeCrossChainUnavailable:      "Cross-chain swaps are temporarily unavailable.",
	CodeLowSlippage:                "Slippage is too low for transaction.",
	CodeTooLowAmount:               "The swap can't be executed with the entered amount of tokens. Please change it to the greater amount.",
	CodeNoAvailableRoutes:          "No available routes.",
	CodeNoProvidersForTrade:        "There are no providers for trade.",
	CodeUnsupportedRepresentation:  "The swap between this pair of blockchains is currently unavailable.",
	CodeProviderTimeout:            "Provider did not respond in time.",
	CodeNotWhitelistedProvider:     "This provider is not whitelisted for the selected tokens.",
	CodeUnsupportedDeflationToken:  "Tokens with transfer fees are not supported by this provider.",
	CodeExecutionReverted:          "The selected pair is currently unavailable.",
	CodePairUnavailable:            "The selected pair is currently unavailable.",
	CodeRatesChanged:               "Rates have changed.",

	// Ethereum / wallet RPC
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeWalletNotConnected:       "Wallet is not connected",
	CodeTransactionFailed:        "Transaction failed",

	// WebSocket
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Providers
	CodeQuoteFailed:     "Failed to get quote",
	CodeInvalidQuote:    "Invalid quote data",
	CodeUnknownProvider: "Unknown provider",

	// Circuit breaker
	CodeCircuitOpen: "Circuit breaker is open",
}

// Message returns the fixed user-facing message for code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return string(code)
}
