package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	ErrCodeConfig           ErrorCode = "config"
	ErrCodeProviderNotFound ErrorCode = "provider_not_found"
	ErrCodeAuthentication   ErrorCode = "authentication"
	ErrCodeTransport        ErrorCode = "transport"
	ErrCodeBackend          ErrorCode = "backend"
)

// Sentinel errors for use with errors.Is. A *ProviderError matches the
// sentinel that shares its code.
var (
	ErrConfig           = &ProviderError{Code: ErrCodeConfig, Message: "configuration error"}
	ErrProviderNotFound = &ProviderError{Code: ErrCodeProviderNotFound, Message: "provider not found"}
	ErrAuth             = &ProviderError{Code: ErrCodeAuthentication, Message: "authentication failed"}
	ErrTransport        = &ProviderError{Code: ErrCodeTransport, Message: "transport failure"}
	ErrBackend          = &ProviderError{Code: ErrCodeBackend, Message: "backend failure"}
)

// ProviderError represents a standardized error from the registry or a backend
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Message     string    // Human-readable message
	StatusCode  int       // HTTP status code (0 if not applicable)
	Provider    string    // Which provider generated this error
	Operation   string    // What operation failed (e.g., "complete", "stream", "resolve")
	OriginalErr error     // Wrapped original error
	RetryAfter  int       // Seconds to wait before retry, when the backend said so
	RequestID   string    // Request ID sent with the failing call, if any

	// Available lists the registered names at the time a lookup failed.
	// Only set for ErrCodeProviderNotFound.
	Available []string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		fmt.Fprintf(&b, "[%s] ", e.Provider)
	}
	b.WriteString(e.Message)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status=%d, code=%s)", e.StatusCode, e.Code)
	} else {
		fmt.Fprintf(&b, " (code=%s)", e.Code)
	}
	if e.OriginalErr != nil {
		fmt.Fprintf(&b, ": %v", e.OriginalErr)
	}
	return b.String()
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is a *ProviderError with the same code.
func (e *ProviderError) Is(target error) bool {
	var t *ProviderError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// IsRetryable returns true if the error is potentially recoverable with retry.
// Transport failures are retryable; backend failures only when the backend
// signalled throttling or a transient server fault.
func (e *ProviderError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeTransport:
		return true
	case ErrCodeBackend:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	}
	return false
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// WithRequestID sets the request ID field and returns the error for chaining
func (e *ProviderError) WithRequestID(requestID string) *ProviderError {
	e.RequestID = requestID
	return e
}

// WithRetryAfter sets the retry after field and returns the error for chaining
func (e *ProviderError) WithRetryAfter(retryAfter int) *ProviderError {
	e.RetryAfter = retryAfter
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewConfigError creates an error for a missing or malformed configuration field
func NewConfigError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeConfig, message)
}

// NewNotFoundError creates an error for a name with no registered factory
func NewNotFoundError(name string, available []string) *ProviderError {
	return &ProviderError{
		Code:      ErrCodeProviderNotFound,
		Message:   fmt.Sprintf("provider %q not found", name),
		Operation: "resolve",
		Available: available,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeAuthentication, message)
}

// NewTransportError creates an error for a network or IO failure
func NewTransportError(provider string, err error) *ProviderError {
	return &ProviderError{
		Code:        ErrCodeTransport,
		Message:     "request failed",
		Provider:    provider,
		OriginalErr: err,
	}
}

// NewBackendError creates an error for a failure status or unparseable payload
func NewBackendError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeBackend, message)
}

// ClassifyHTTPStatus determines the error code for a non-success HTTP status
func ClassifyHTTPStatus(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	default:
		return ErrCodeBackend
	}
}

// CodeOf returns the code of the first *ProviderError in err's chain, or ""
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsRetryable reports whether err carries a retryable *ProviderError
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

// WithOperation records op on the first *ProviderError in err's chain that
// has none yet, and returns err.
func WithOperation(err error, op string) error {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Operation == "" {
		pe.Operation = op
	}
	return err
}
