package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// AuthService exchanges third-party identity tokens for backend sessions.
type AuthService struct {
	backend AuthBackend
	logger  *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(backend AuthBackend, logger *slog.Logger) *AuthService {
	return &AuthService{backend: backend, logger: logger}
}

// SignInGoogle exchanges a Google identity token.
func (s *AuthService) SignInGoogle(ctx context.Context, idToken string) (*domain.SignInResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.InvalidInput("token is required")
	}

	res, err := s.backend.SignInGoogle(ctx, idToken)
	if err != nil {
		s.logger.WarnContext(ctx, "google sign-in failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("sign in with google: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", res.UserID))
	return res, nil
}
