package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:  "Invalid input provided",
	CodeInvalidState:  "Invalid state for this operation",
	CodeNotFound:      "Resource not found",
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeChainConnectionFailed: "Failed to connect to chain RPC endpoint",
	CodeChainRPCError:         "Chain RPC call failed",
	CodeContractCallFailed:    "Smart contract call failed",

	CodeIndicatorFetchFailed:    "Failed to fetch indicator value",
	CodeIndicatorBuildFailed:    "Failed to build indicator",
	CodeEventSubscriptionFailed: "Failed to subscribe to contract events",
	CodeUnknownLayer:            "Unknown layer",

	CodeIndexerRequestFailed: "Event indexer request failed",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open, too many requests",
}
