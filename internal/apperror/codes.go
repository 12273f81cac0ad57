package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Swap routing taxonomy. Every provider or execution failure ends in one of these.
const (
	// Recoverable provider errors
	CodeNotSupportedTokens         Code = "NOT_SUPPORTED_TOKENS"
	CodeUnsupportedReceiverAddress Code = "UNSUPPORTED_RECEIVER_ADDRESS"
	CodeCrossChainUnavailable      Code = "CROSS_CHAIN_UNAVAILABLE"
	CodeLowSlippage                Code = "LOW_SLIPPAGE"
	CodeTooLowAmount               Code = "TOO_LOW_AMOUNT"
	CodeNoAvailableRoutes          Code = "NO_AVAILABLE_ROUTES"
	CodeNoProvidersForTrade        Code = "NO_PROVIDERS_FOR_TRADE"
	CodeUnsupportedRepresentation  Code = "UNSUPPORTED_REPRESENTATION"
	CodeProviderTimeout            Code = "PROVIDER_TIMEOUT"

	// Critical errors disable the provider for the session
	CodeNotWhitelistedProvider    Code = "NOT_WHITELISTED_PROVIDER"
	CodeUnsupportedDeflationToken Code = "UNSUPPORTED_DEFLATION_TOKEN"
	CodeExecutionReverted         Code = "EXECUTION_REVERTED"

	// Fallback for anything unrecognised
	CodePairUnavailable Code = "PAIR_UNAVAILABLE"

	// Quoted output changed between calculation and submission
	CodeRatesChanged Code = "RATES_CHANGED"
)

// Infrastructure error codes
const (
	// Ethereum / wallet RPC
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeWalletNotConnected       Code = "WALLET_NOT_CONNECTED"
	CodeTransactionFailed        Code = "TRANSACTION_FAILED"

	// WebSocket
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Providers
	CodeQuoteFailed     Code = "QUOTE_FAILED"
	CodeInvalidQuote    Code = "INVALID_QUOTE"
	CodeUnknownProvider Code = "UNKNOWN_PROVIDER"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)

var critical = map[Code]bool{
	CodeNotWhitelistedProvider:    true,
	CodeUnsupportedDeflationToken: true,
	CodeExecutionReverted:         true,
}

// IsCriticalCode reports whether code disables the offending provider.
func IsCriticalCode(code Code) bool {
	return critical[code]
}
