package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidState  Code = "INVALID_STATE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
)

// Bridge status error codes
const (
	// Chain RPC
	CodeChainConnectionFailed Code = "CHAIN_CONNECTION_FAILED"
	CodeChainRPCError         Code = "CHAIN_RPC_ERROR"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"

	// Indicators
	CodeIndicatorFetchFailed    Code = "INDICATOR_FETCH_FAILED"
	CodeIndicatorBuildFailed    Code = "INDICATOR_BUILD_FAILED"
	CodeEventSubscriptionFailed Code = "EVENT_SUBSCRIPTION_FAILED"
	CodeUnknownLayer            Code = "UNKNOWN_LAYER"

	// Event indexer
	CodeIndexerRequestFailed Code = "INDEXER_REQUEST_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
