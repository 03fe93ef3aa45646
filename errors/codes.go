package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Node and run errors
const (
	// ErrCodeConfigValidation indicates a node configuration was rejected.
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	// ErrCodeUnknownNodeType indicates the registry has no definition for a node type.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"
	// ErrCodeMissingOperation indicates a definition exists but has no operation.
	ErrCodeMissingOperation ErrorCode = "MISSING_OPERATION"
	// ErrCodeExecutionTimeout indicates a node operation exceeded its timeout.
	ErrCodeExecutionTimeout ErrorCode = "EXECUTION_TIMEOUT"
	// ErrCodeNodeRuntime indicates the node operation itself failed.
	ErrCodeNodeRuntime ErrorCode = "NODE_RUNTIME"
	// ErrCodeDidNotConverge indicates the scheduler exhausted its iteration bound.
	ErrCodeDidNotConverge ErrorCode = "RUN_DID_NOT_CONVERGE"
	// ErrCodeInvalidGraph indicates edges reference nodes that do not exist.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
	// ErrCodeCancelled indicates the run context ended while a node was running.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorage indicates a storage adapter failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeExecutionTimeout: true,
	ErrCodeStorage:          true,
	ErrCodeRateLimited:      true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
