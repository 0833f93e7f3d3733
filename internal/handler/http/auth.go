package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jdufresne12/web-portal/pkg/httputil"
	"github.com/jdufresne12/web-portal/pkg/middleware"
	"github.com/jdufresne12/web-portal/pkg/validator"

	"github.com/jdufresne12/web-portal/internal/service"
)

// sessionMaxAge is how long the admin UI keeps a session.
const sessionMaxAge = 7 * 24 * time.Hour

// cookieJar writes the two session cookies the admin UI reads.
type cookieJar struct {
	secure bool
}

func (c cookieJar) cookie(name, value string, httpOnly bool, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c cookieJar) start(w http.ResponseWriter, token string) {
	maxAge := int(sessionMaxAge.Seconds())
	http.SetCookie(w, c.cookie(middleware.SessionCookie, token, true, maxAge))
	http.SetCookie(w, c.cookie(middleware.AuthenticatedCookie, "true", false, maxAge))
}

func (c cookieJar) end(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.SessionCookie, "", true, -1))
	c.expireAuthenticated(w)
}

func (c cookieJar) expireAuthenticated(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.AuthenticatedCookie, "", false, -1))
}

// AuthHandler handles sign-in and sign-out.
type AuthHandler struct {
	service *service.AuthService
	cookies cookieJar
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookies cookieJar, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		cookies: cookies,
		logger:  logger,
	}
}

// GoogleSignInRequest is the JSON body for POST /api/v1/auth/google.
type GoogleSignInRequest struct {
	Token string `json:"token" validate:"required"`
}

// SignInResponse is the profile returned after a successful sign-in. The
// session token itself only travels in the HttpOnly cookie.
type SignInResponse struct {
	UserID     string `json:"userID"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	Picture    string `json:"picture"`
}

// SignInGoogle handles POST /api/v1/auth/google.
func (h *AuthHandler) SignInGoogle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	var req GoogleSignInRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.SignInGoogle(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}

	h.cookies.start(w, res.AxisToken)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SignInResponse{
		UserID:     res.UserID,
		Email:      res.Email,
		Name:       res.Name,
		GivenName:  res.GivenName,
		FamilyName: res.FamilyName,
		Picture:    res.Picture,
	}})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.cookies.end(w)
	w.WriteHeader(http.StatusNoContent)
}
