package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an AppError. Gateway failures use the upstream codes,
// everything else maps onto an HTTP status of the console API.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Upstream (agent API) failures.
	ErrCodeTransport         ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeBadGateway        ErrorCode = "BAD_GATEWAY"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Context    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a detail that is rendered in the API error body.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsUpstream reports whether the error originates from the agent API rather
// than from the console itself.
func (e *AppError) IsUpstream() bool {
	switch e.Code {
	case ErrCodeTransport, ErrCodeMalformedResponse, ErrCodeBadGateway:
		return true
	}
	return false
}

func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Context:    make(map[string]interface{}),
	}
}

func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
		Context:    make(map[string]interface{}),
	}
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// NewTransportError reports an agent API call that never produced a response:
// dial failures, timeouts, cancelled requests.
func NewTransportError(endpoint string, cause error) *AppError {
	return WrapError(cause, ErrCodeTransport, "upstream unreachable", http.StatusBadGateway).
		WithContext("endpoint", endpoint)
}

// NewMalformedResponseError reports a response body that could not be decoded.
func NewMalformedResponseError(endpoint string, cause error) *AppError {
	return WrapError(cause, ErrCodeMalformedResponse, "upstream returned a malformed response", http.StatusBadGateway).
		WithContext("endpoint", endpoint)
}

// NewBadGatewayError reports a non-2xx upstream status. detail is the
// upstream's own error text when it sent one.
func NewBadGatewayError(endpoint string, status int, detail string) *AppError {
	msg := fmt.Sprintf("upstream responded with status %d", status)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return NewAppError(ErrCodeBadGateway, msg, http.StatusBadGateway).
		WithContext("endpoint", endpoint).
		WithContext("upstream_status", status)
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts the first AppError from the error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
