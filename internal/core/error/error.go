package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RequestFailureMessage describes a failed call to the prediction endpoint.
	RequestFailureMessage = "prediction request failed"
	// InvalidInputMessage describes rejected operator input.
	InvalidInputMessage = "invalid input"
	// BusyMessage is returned while a submission is already in flight.
	BusyMessage = "a command is already being analyzed"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindInternal       Kind = "internal"
	KindRequestFailure Kind = "request_failure"
	KindInvalidInput   Kind = "invalid_input"
	KindBusy           Kind = "busy"
	KindRedis          Kind = "redis"
)

// AppError wraps an underlying error with a kind, an HTTP status and a safe message.
type AppError struct {
	Kind    Kind
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new internal AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NewKind creates an AppError of the given kind.
func NewKind(kind Kind, err error, status int, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// RequestFailure wraps a transport, status or decode failure of the prediction endpoint.
func RequestFailure(err error) error {
	if err == nil {
		return nil
	}
	return NewKind(KindRequestFailure, err, http.StatusBadGateway, RequestFailureMessage)
}

// InvalidInput reports operator input rejected before any side effect.
func InvalidInput(err error) error {
	return NewKind(KindInvalidInput, err, http.StatusBadRequest, InvalidInputMessage)
}

// Busy reports a submission rejected because another one is in flight.
func Busy() error {
	return NewKind(KindBusy, nil, http.StatusConflict, BusyMessage)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return t.Kind == e.Kind
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
