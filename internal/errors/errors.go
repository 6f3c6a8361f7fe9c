// Package errors provides coded domain errors for stampbot.
//
// Components return typed errors and callers branch on the code:
//
//	if errors.Is(err, errors.ErrMalformedDocument) {
//	    ...
//	}
//
// The chat transport turns any error into text with UserMessage, the HTTP API
// maps the code to a status with HTTPStatus.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeInvalidInputType     Code = "INVALID_INPUT_TYPE"
	CodeMissingConfiguration Code = "MISSING_CONFIGURATION"
	CodeDownloadFailure      Code = "DOWNLOAD_FAILURE"
	CodeMalformedDocument    Code = "MALFORMED_DOCUMENT"
	CodeUnsupportedPage      Code = "UNSUPPORTED_PAGE"
	CodeRenderFailure        Code = "RENDER_FAILURE"
	CodeValidation           Code = "VALIDATION"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodeQueueFull            Code = "QUEUE_FULL"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInternal             Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInputType:
		return http.StatusUnsupportedMediaType
	case CodeValidation, CodeMissingConfiguration:
		return http.StatusBadRequest
	case CodeMalformedDocument, CodeUnsupportedPage:
		return http.StatusUnprocessableEntity
	case CodeDownloadFailure:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeQueueFull:
		return http.StatusServiceUnavailable
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidInputType     = &Error{Code: CodeInvalidInputType, Message: "invalid input type"}
	ErrMissingConfiguration = &Error{Code: CodeMissingConfiguration, Message: "missing configuration"}
	ErrDownloadFailure      = &Error{Code: CodeDownloadFailure, Message: "download failure"}
	ErrMalformedDocument    = &Error{Code: CodeMalformedDocument, Message: "malformed document"}
	ErrUnsupportedPage      = &Error{Code: CodeUnsupportedPage, Message: "unsupported page"}
	ErrRenderFailure        = &Error{Code: CodeRenderFailure, Message: "render failure"}
	ErrValidation           = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited          = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrQueueFull            = &Error{Code: CodeQueueFull, Message: "queue full"}
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal             = &Error{Code: CodeInternal, Message: "internal error"}
)

// InvalidInputType creates an invalid input type error.
func InvalidInputType(msg string) *Error {
	return &Error{Code: CodeInvalidInputType, Message: msg}
}

// MissingConfiguration creates a missing configuration error.
func MissingConfiguration(msg string) *Error {
	return &Error{Code: CodeMissingConfiguration, Message: msg}
}

// DownloadFailuref creates a download failure error with formatted message.
func DownloadFailuref(format string, args ...any) *Error {
	return &Error{Code: CodeDownloadFailure, Message: fmt.Sprintf(format, args...)}
}

// MalformedDocument creates a malformed document error.
func MalformedDocument(msg string) *Error {
	return &Error{Code: CodeMalformedDocument, Message: msg}
}

// UnsupportedPagef creates an unsupported page error with formatted message.
func UnsupportedPagef(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedPage, Message: fmt.Sprintf(format, args...)}
}

// RenderFailuref creates a render failure error with formatted message.
func RenderFailuref(format string, args ...any) *Error {
	return &Error{Code: CodeRenderFailure, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// QueueFull creates a queue full error.
func QueueFull(msg string) *Error {
	return &Error{Code: CodeQueueFull, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// UserMessage renders err as text suitable for the person who triggered it.
// Internal causes are not exposed.
func UserMessage(err error) string {
	var domainErr *Error
	if !errors.As(err, &domainErr) {
		return "Something went wrong while processing your request."
	}

	switch domainErr.Code {
	case CodeInvalidInputType:
		return "Please send a valid PDF file."
	case CodeMissingConfiguration:
		return "Use /set_watermark before uploading PDFs."
	case CodeDownloadFailure:
		return "Could not download your file from Telegram. Please try again."
	case CodeMalformedDocument:
		return "The PDF could not be read: " + domainErr.Message
	case CodeUnsupportedPage:
		return "The PDF could not be watermarked: " + domainErr.Message
	case CodeRenderFailure:
		return "The watermark could not be rendered: " + domainErr.Message
	case CodeValidation:
		return "Invalid settings: " + domainErr.Message
	case CodeRateLimited:
		return "You are sending files too quickly. Please wait a moment."
	case CodeQueueFull:
		return "The queue is full right now. Please try again later."
	default:
		return "Something went wrong while processing your request."
	}
}
