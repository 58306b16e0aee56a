package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered in the "code" field of the error envelope.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeMethodNotAllow  = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeRequestFailed   = "REQUEST_FAILED"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError is the error shape the HTTP layer renders. Err carries the
// internal cause; it is logged but never sent to the caller.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, details)
}

// NewUnauthorized is for credential failures whose message is already generic.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewUnauthorizedFor renders the generic unauthorized response while keeping cause for logs.
func NewUnauthorizedFor(cause error) error {
	return &DomainError{Code: CodeUnauthorized, Message: "unauthorized", HTTPStatus: http.StatusUnauthorized, Err: cause}
}

// NewForbiddenFor renders the generic forbidden response while keeping cause for logs.
func NewForbiddenFor(cause error) error {
	return &DomainError{Code: CodeForbidden, Message: "forbidden", HTTPStatus: http.StatusForbidden, Err: cause}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Err: err}
}

// CodeForStatus names a bare HTTP status, for errors raised by the router
// itself rather than by a handler.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllow
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeRequestFailed
}

// ToDomainError finds the DomainError in err's chain. Anything else becomes
// an opaque internal error.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}
