package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/domain"
)

func TestAuthService_SignInGoogle(t *testing.T) {
	backend := new(mockBackend)
	svc := NewAuthService(backend, newTestLogger())
	backend.On("SignInGoogle", mock.Anything, "id-token").
		Return(&domain.SignInResult{AxisToken: "axis", UserID: "u1"}, nil)

	res, err := svc.SignInGoogle(context.Background(), "  id-token ")
	require.NoError(t, err)
	assert.Equal(t, "axis", res.AxisToken)
}

func TestAuthService_SignInGoogle_EmptyToken(t *testing.T) {
	backend := new(mockBackend)
	svc := NewAuthService(backend, newTestLogger())

	_, err := svc.SignInGoogle(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	backend.AssertNotCalled(t, "SignInGoogle", mock.Anything, mock.Anything)
}

func TestAuthService_SignInGoogle_BackendRejects(t *testing.T) {
	backend := new(mockBackend)
	svc := NewAuthService(backend, newTestLogger())
	backend.On("SignInGoogle", mock.Anything, "bad").Return(nil, apperrors.Unauthorized("invalid token"))

	_, err := svc.SignInGoogle(context.Background(), "bad")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
