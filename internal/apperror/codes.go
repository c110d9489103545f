package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Quoting error codes. Every failure of the pure engines maps to exactly one of these.
const (
	CodeParseError         Code = "PARSE_ERROR"
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeEmptyPool          Code = "EMPTY_POOL"
	CodeInsufficientSupply Code = "INSUFFICIENT_SUPPLY"
	CodeInvalidPrice       Code = "INVALID_PRICE"
	CodeDeadlineExpired    Code = "DEADLINE_EXPIRED"
	CodeDivisionByZero     Code = "DIVISION_BY_ZERO"

	CodeInvalidFee         Code = "INVALID_FEE"
	CodeInvalidSlippage    Code = "INVALID_SLIPPAGE"
	CodeInconsistentPool   Code = "INCONSISTENT_POOL"
	CodePriceImpactBlocked Code = "PRICE_IMPACT_BLOCKED"
)

// Chain access error codes
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeABIEncodingFailed        Code = "ABI_ENCODING_FAILED"
	CodeABIDecodingFailed        Code = "ABI_DECODING_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
