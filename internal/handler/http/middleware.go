package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"
	"github.com/jdufresne12/web-portal/pkg/httputil"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
// Excludes multipart/form-data requests (used for draft uploads).
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "multipart/form-data") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json or multipart/form-data"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// writeServiceError writes err in the response envelope. Per-field validation
// failures become 400 with field reasons. A session the backend rejected
// drops the isAuthenticated flag so the admin UI returns to sign-in.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, cookies cookieJar, logger *slog.Logger) {
	var fieldErr httputil.FieldErrors
	if errors.As(err, &fieldErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	if errors.Is(err, apperrors.ErrUnauthorized) {
		cookies.expireAuthenticated(w)
	}
	httputil.WriteError(w, r, err, logger)
}

func writeInvalid(w http.ResponseWriter, code, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message},
	})
}
