// Package errors defines the error kinds the hub reports to its callers and
// how each maps onto an HTTP status and a stable error code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is. Every AppError built by this package wraps one.
var (
	ErrInternal       = errors.New("internal error")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("conflict")
	ErrGone           = errors.New("gone")
	ErrUnprocessable  = errors.New("unprocessable entity")
	ErrBadGateway     = errors.New("bad gateway")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Kind classifies an error independently of its message.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindGone
	KindUnprocessable
	KindBadGateway
	KindUnavailable
)

var kinds = [...]struct {
	code     string
	status   int
	sentinel error
}{
	KindInternal:      {"INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal},
	KindInvalidInput:  {"INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
	KindUnauthorized:  {"UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
	KindForbidden:     {"FORBIDDEN", http.StatusForbidden, ErrForbidden},
	KindNotFound:      {"NOT_FOUND", http.StatusNotFound, ErrNotFound},
	KindConflict:      {"CONFLICT", http.StatusConflict, ErrConflict},
	KindGone:          {"GONE", http.StatusGone, ErrGone},
	KindUnprocessable: {"UNPROCESSABLE", http.StatusUnprocessableEntity, ErrUnprocessable},
	KindBadGateway:    {"BAD_GATEWAY", http.StatusBadGateway, ErrBadGateway},
	KindUnavailable:   {"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
}

// Code is the stable machine-readable code sent to clients.
func (k Kind) Code() string { return kinds[k].code }

// Status is the HTTP status the kind is reported with.
func (k Kind) Status() int { return kinds[k].status }

// KindForStatus maps an HTTP error status back onto a kind. Any other 5xx is
// reported as a bad gateway; unknown 4xx statuses are not mapped.
func KindForStatus(status int) (Kind, bool) {
	for k, info := range kinds {
		if k != int(KindInternal) && info.status == status {
			return Kind(k), true
		}
	}
	if status >= http.StatusInternalServerError {
		return KindBadGateway, true
	}
	return KindInternal, false
}

// AppError is an error with a client-facing code and message. Err is never
// shown to clients.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError of the given kind.
func New(kind Kind, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{
		Code:    kind.Code(),
		Message: msg,
		Status:  kind.Status(),
		Err:     kinds[kind].sentinel,
	}
}

// Wrap is New with cause kept in the chain next to the kind's sentinel.
func Wrap(kind Kind, cause error, message string) *AppError {
	e := New(kind, message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %w", e.Err, cause)
	}
	return e
}

func NotFound(resource, id string) *AppError {
	return New(KindNotFound, "%s %s not found", resource, id)
}

func InvalidInput(message string) *AppError { return New(KindInvalidInput, message) }

func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }

func Forbidden(message string) *AppError { return New(KindForbidden, message) }

func Conflict(message string) *AppError { return New(KindConflict, message) }

func Gone(message string) *AppError { return New(KindGone, message) }

func Unprocessable(message string) *AppError { return New(KindUnprocessable, message) }

func ServiceUnavailable(message string) *AppError { return New(KindUnavailable, message) }

// BadGateway reports a failed call to a collaborator.
func BadGateway(message string, err error) *AppError {
	return Wrap(KindBadGateway, err, message)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	e := New(KindInternal, "an internal error occurred")
	if err != nil {
		e.Err = err
	}
	return e
}

// KindOf classifies err. Errors this package did not build are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if k, ok := KindForStatus(appErr.Status); ok {
			return k
		}
	}
	for k := len(kinds) - 1; k > 0; k-- {
		if errors.Is(err, kinds[k].sentinel) {
			return Kind(k)
		}
	}
	return KindInternal
}

// HTTPStatus returns the status err should be reported with.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return KindOf(err).Status()
}
