package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("sponsor", "s-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("title is required"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("session expired"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("not an admin"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("coupon code taken"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"gone", Gone("draft expired"), "GONE", http.StatusGone, ErrGone},
		{"unprocessable", Unprocessable("discount out of range"), "UNPROCESSABLE", http.StatusUnprocessableEntity, ErrUnprocessable},
		{"unavailable", ServiceUnavailable("backend down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"bad gateway", BadGateway("backend failed", nil), "BAD_GATEWAY", http.StatusBadGateway, ErrBadGateway},
		{"internal", Internal(errors.New("nil map")), "INTERNAL_ERROR", http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, tt.err, tt.sentinel)
			}
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "sponsor s-1 not found", NotFound("sponsor", "s-1").Message)
}

func TestNew_FormatsOnlyWithArgs(t *testing.T) {
	assert.Equal(t, "width must be 100%", New(KindInvalidInput, "width must be 100%").Message)
	assert.Equal(t, "max 3 items", New(KindInvalidInput, "max %d items", 3).Message)
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: draft d-1 not found: resource not found", NotFound("draft", "d-1").Error())
	assert.Equal(t, "CONFLICT: stale", (&AppError{Code: "CONFLICT", Message: "stale"}).Error())
}

func TestWrap_KeepsCauseAndKind(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	err := Wrap(KindUnavailable, cause, "cache unavailable")

	assert.ErrorIs(t, err, ErrServiceUnavail)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cache unavailable", err.Message)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}

func TestBadGateway_WrapsCause(t *testing.T) {
	cause := errors.New("status 500")

	err := BadGateway("axis-api: boom", cause)

	assert.ErrorIs(t, err, ErrBadGateway)
	assert.ErrorIs(t, err, cause)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")

	err := Internal(cause)

	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, Internal(nil), ErrInternal)
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
		ok     bool
	}{
		{http.StatusBadRequest, KindInvalidInput, true},
		{http.StatusUnauthorized, KindUnauthorized, true},
		{http.StatusNotFound, KindNotFound, true},
		{http.StatusConflict, KindConflict, true},
		{http.StatusBadGateway, KindBadGateway, true},
		{http.StatusServiceUnavailable, KindUnavailable, true},
		{http.StatusInternalServerError, KindBadGateway, true},
		{http.StatusGatewayTimeout, KindBadGateway, true},
		{http.StatusTooManyRequests, KindInternal, false},
		{http.StatusTeapot, KindInternal, false},
	}
	for _, tt := range tests {
		got, ok := KindForStatus(tt.status)
		assert.Equal(t, tt.ok, ok, "status %d", tt.status)
		assert.Equal(t, tt.want, got, "status %d", tt.status)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("load: %w", ErrNotFound)))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("save: %w", Conflict("stale"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrapped app error", fmt.Errorf("get sponsor: %w", NotFound("sponsor", "x")), http.StatusNotFound},
		{"bare sentinel", ErrUnauthorized, http.StatusUnauthorized},
		{"wrapped sentinel", fmt.Errorf("ensure loaded: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{"downstream status kept", &AppError{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_As(t *testing.T) {
	err := fmt.Errorf("update sponsor: %w", InvalidInput("bad color"))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "bad color", appErr.Message)
}
