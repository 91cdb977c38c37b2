package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Precondition error codes. These are detected before any adapter is
// invoked; no side effect has been attempted when one is raised.
const (
	ErrWalletNotConnected ErrorCode = "WALLET_NOT_CONNECTED"
	ErrMissingRecipient   ErrorCode = "MISSING_RECIPIENT"
	ErrMissingAmount      ErrorCode = "MISSING_AMOUNT"
	ErrInvalidAmount      ErrorCode = "INVALID_AMOUNT"
)

// Adapter error codes. Raised by bridge or wallet collaborators and caught
// at the executor boundary.
const (
	ErrUserRejected      ErrorCode = "USER_REJECTED"
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrWrongNetwork      ErrorCode = "WRONG_NETWORK"
	ErrBridgeUnavailable ErrorCode = "BRIDGE_UNAVAILABLE"
	ErrBridgeRejected    ErrorCode = "BRIDGE_REJECTED"
	ErrTimeout           ErrorCode = "TIMEOUT"
)

// Notification error codes. Never escalated to run failure.
const (
	ErrNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
)

// Graph and run error codes.
const (
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrInvalidNodeType        ErrorCode = "INVALID_NODE_TYPE"
	ErrInvalidBranch          ErrorCode = "INVALID_BRANCH"
	ErrGraphInvariantViolated ErrorCode = "GRAPH_INVARIANT_VIOLATED"
	ErrRunActive              ErrorCode = "RUN_ACTIVE"
	ErrNoBatchExecutor        ErrorCode = "NO_BATCH_EXECUTOR"
	ErrInternalError          ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Guidance  string    `json:"guidance,omitempty"`
	Retryable bool      `json:"retryable"`
	NodeID    string    `json:"node_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithGuidance attaches user-facing guidance text.
func (e *Error) WithGuidance(guidance string) *Error {
	e.Guidance = guidance
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithNodeID attributes the error to a graph node.
func (e *Error) WithNodeID(nodeID string) *Error {
	e.NodeID = nodeID
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsPrecondition reports whether the code belongs to the precondition
// family, meaning no adapter call was attempted.
func IsPrecondition(code ErrorCode) bool {
	switch code {
	case ErrWalletNotConnected, ErrMissingRecipient, ErrMissingAmount, ErrInvalidAmount:
		return true
	}
	return false
}
