package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeInternalError: "Internal error",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to Ethereum events",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeContractCallFailed:       "Contract call failed",
	CodeABIEncodingFailed:        "ABI encoding failed",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeIdenticalAddresses:       "Identical token addresses",
	CodeZeroAddress:              "Zero token address",
	CodeInsufficientInputAmount:  "Insufficient input amount",
	CodeInsufficientOutputAmount: "Insufficient output amount",
	CodeInsufficientLiquidity:    "Insufficient liquidity",
	CodeUnknownExchange:          "Unknown exchange",

	CodeChainTooShort: "Chain needs at least two tokens",
	CodeInvalidPath:   "Path references an unknown token",
	CodeNoReserve:     "No exchange has quoted this hop",
	CodeNoSolution:    "Optimizer bracket has no sign change",

	CodeMalformedRequest: "Malformed request",
	CodeMissingQuery:     "Request needs a query",
	CodeUnsupportedTopic: "Unsupported topic",
	CodeBuyNotSupported:  "buy is not supported",
	CodeStoreNotFound:    "Price store not found",
	CodeSessionNotFound:  "Session not found",
	CodePublishFailed:    "Failed to publish message",
}
