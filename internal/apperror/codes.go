package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
)

// Chain and node errors
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeABIEncodingFailed        Code = "ABI_ENCODING_FAILED"
)

// Websocket errors
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Pair and AMM errors
const (
	CodeIdenticalAddresses       Code = "IDENTICAL_ADDRESSES"
	CodeZeroAddress              Code = "ZERO_ADDRESS"
	CodeInsufficientInputAmount  Code = "INSUFFICIENT_INPUT_AMOUNT"
	CodeInsufficientOutputAmount Code = "INSUFFICIENT_OUTPUT_AMOUNT"
	CodeInsufficientLiquidity    Code = "INSUFFICIENT_LIQUIDITY"
	CodeUnknownExchange          Code = "UNKNOWN_EXCHANGE"
)

// Cycle evaluation errors
const (
	CodeChainTooShort Code = "CHAIN_TOO_SHORT"
	CodeInvalidPath   Code = "INVALID_PATH"
	CodeNoReserve     Code = "NO_RESERVE"
	CodeNoSolution    Code = "NO_SOLUTION"
)

// Protocol and session errors
const (
	CodeMalformedRequest Code = "MALFORMED_REQUEST"
	CodeMissingQuery     Code = "MISSING_QUERY"
	CodeUnsupportedTopic Code = "UNSUPPORTED_TOPIC"
	CodeBuyNotSupported  Code = "BUY_NOT_SUPPORTED"
	CodeStoreNotFound    Code = "STORE_NOT_FOUND"
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	CodePublishFailed    Code = "PUBLISH_FAILED"
)
