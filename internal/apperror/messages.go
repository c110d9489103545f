package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Quoting
	CodeParseError:         "Malformed numeric input",
	CodeInvalidAmount:      "Amount must be positive",
	CodeEmptyPool:          "Pool has no liquidity",
	CodeInsufficientSupply: "Withdrawal exceeds LP supply",
	CodeInvalidPrice:       "Price must be positive",
	CodeDeadlineExpired:    "Expired",
	CodeDivisionByZero:     "Division by zero",
	CodeInvalidFee:         "Invalid fee fraction",
	CodeInvalidSlippage:    "Slippage tolerance must be in [0, 100)",
	CodeInconsistentPool:   "Pool reserves are inconsistent",
	CodePriceImpactBlocked: "Trade blocked due to extreme price impact",

	// Chain access
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to Ethereum events",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeABIEncodingFailed:        "Failed to encode contract call",
	CodeABIDecodingFailed:        "Failed to decode contract result",

	CodeCircuitOpen: "Circuit breaker is open",
}
