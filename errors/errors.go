package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NodeID returns the node id recorded in the error details, if any.
func (e *AppError) NodeID() string {
	id, _ := e.Details["node_id"].(string)
	return id
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

func nodeDetails(nodeID, nodeType string) map[string]any {
	return map[string]any{"node_id": nodeID, "node_type": nodeType}
}

// --- Node taxonomy ---

// ConfigValidation creates an error for a rejected node configuration.
// Validation results are normally returned as data; this form is used when
// an invalid configuration is only discovered while the node runs.
func ConfigValidation(nodeID, nodeType string, problems ...string) *AppError {
	msg := "invalid node configuration"
	if len(problems) > 0 {
		msg = fmt.Sprintf("invalid node configuration: %s", problems[0])
	}
	e := &AppError{
		Code: ErrCodeConfigValidation, Message: msg,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    nodeDetails(nodeID, nodeType),
	}
	if len(problems) > 0 {
		e.Details["problems"] = problems
	}
	return e
}

// UnknownNodeType creates an error for a node type missing from the registry.
func UnknownNodeType(nodeID, nodeType string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownNodeType, Message: fmt.Sprintf("unknown node type %q", nodeType),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    nodeDetails(nodeID, nodeType),
	}
}

// MissingOperation creates an error for a registered type without an operation.
func MissingOperation(nodeID, nodeType string) *AppError {
	return &AppError{
		Code: ErrCodeMissingOperation, Message: fmt.Sprintf("node type %q has no operation", nodeType),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    nodeDetails(nodeID, nodeType),
	}
}

// ExecutionTimeout creates an error for a node that exceeded its timeout.
func ExecutionTimeout(nodeID, nodeType string, timeout time.Duration) *AppError {
	e := &AppError{
		Code: ErrCodeExecutionTimeout, Message: fmt.Sprintf("node %s timed out after %s", nodeID, timeout),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details:    nodeDetails(nodeID, nodeType),
	}
	e.Details["timeout_ms"] = timeout.Milliseconds()
	return e
}

// NodeRuntime creates an error for a failure raised by the node operation.
func NodeRuntime(nodeID, nodeType string, cause error) *AppError {
	msg := "node operation failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code: ErrCodeNodeRuntime, Message: fmt.Sprintf("node %s (%s): %s", nodeID, nodeType, msg),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    nodeDetails(nodeID, nodeType), Cause: cause,
	}
}

// Cancelled creates an error for a node interrupted by the end of the run
// context. The context error stays reachable through errors.Is.
func Cancelled(nodeID, nodeType string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("node %s (%s): %v", nodeID, nodeType, cause),
		HTTPStatus: http.StatusRequestTimeout,
		Details:    nodeDetails(nodeID, nodeType), Cause: cause,
	}
}

// DidNotConverge creates an error for a run whose scheduler bound was exhausted.
func DidNotConverge(reason string, pending []string) *AppError {
	return &AppError{
		Code: ErrCodeDidNotConverge, Message: fmt.Sprintf("run did not converge: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"pending": pending},
	}
}

// InvalidGraph creates an error for an edge that references a missing node.
func InvalidGraph(edgeID, missing string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidGraph, Message: fmt.Sprintf("edge %q references unknown node %q", edgeID, missing),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"edge_id": edgeID, "node_id": missing},
	}
}

// --- Generic constructors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// RateLimited creates a new AppError for a client over its request budget.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Rate limit exceeded. Please slow down.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// Storage creates a new AppError for a failed storage adapter call.
func Storage(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("storage %s failed", operation),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
