package middleware

import (
	"context"
	"net/http"
	"strings"
)

// Cookie names shared with the admin UI.
const (
	SessionCookie       = "axisToken"
	AuthenticatedCookie = "isAuthenticated"
)

type contextKeyType string

const bearerTokenKey contextKeyType = "bearer_token"

// Session requires an authenticated admin session. The session token comes from
// the HTTP-only axisToken cookie (paired with isAuthenticated=true) or, for
// non-browser callers, an Authorization: Bearer header. The token is stored in
// the request context for downstream calls.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithBearerToken(r.Context(), token)))
	})
}

func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	tokenCookie, err := r.Cookie(SessionCookie)
	if err != nil || tokenCookie.Value == "" {
		return ""
	}
	flag, err := r.Cookie(AuthenticatedCookie)
	if err != nil || flag.Value != "true" {
		return ""
	}
	return tokenCookie.Value
}

// WithBearerToken returns a context carrying the session bearer token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

// BearerTokenFromContext extracts the session bearer token from the context.
func BearerTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(bearerTokenKey).(string); ok {
		return token
	}
	return ""
}
