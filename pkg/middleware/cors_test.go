package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsServe(cfg CORSConfig, method, origin string, preflight bool) *httptest.ResponseRecorder {
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/sponsors", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_AllowOrigin(t *testing.T) {
	admin := "https://admin.axis.example"

	tests := []struct {
		name      string
		cfg       CORSConfig
		origin    string
		wantAllow string
		wantCreds string
	}{
		{
			name:      "listed origin",
			cfg:       CORSConfig{AllowedOrigins: []string{admin}, Environment: "production"},
			origin:    admin,
			wantAllow: admin,
		},
		{
			name:      "trailing slash in config",
			cfg:       CORSConfig{AllowedOrigins: []string{admin + "/"}, Environment: "production"},
			origin:    admin,
			wantAllow: admin,
		},
		{
			name:   "unlisted origin",
			cfg:    CORSConfig{AllowedOrigins: []string{admin}, Environment: "production"},
			origin: "https://evil.example",
		},
		{
			name: "no origin header",
			cfg:  CORSConfig{AllowedOrigins: []string{admin}, Environment: "production"},
		},
		{
			name:      "wildcard without credentials",
			cfg:       CORSConfig{AllowedOrigins: []string{"*"}},
			origin:    "https://any.example",
			wantAllow: "*",
		},
		{
			name:      "wildcard with credentials echoes origin",
			cfg:       CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			origin:    "https://any.example",
			wantAllow: "https://any.example",
			wantCreds: "true",
		},
		{
			name:      "development allows any origin",
			cfg:       CORSConfig{AllowedOrigins: []string{admin}, AllowCredentials: true, Environment: "development"},
			origin:    "http://localhost:5173",
			wantAllow: "http://localhost:5173",
			wantCreds: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := corsServe(tt.cfg, http.MethodGet, tt.origin, false)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, rec.Header().Values("Vary"), "Origin")
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://admin.axis.example"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		Environment:    "production",
	}

	rec := corsServe(cfg, http.MethodOptions, "https://admin.axis.example", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_PreflightFromUnlistedOrigin(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://admin.axis.example"}, Environment: "production"}

	rec := corsServe(cfg, http.MethodOptions, "https://evil.example", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_CustomMethodsAndMaxAge(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		MaxAge:         60,
	}

	rec := corsServe(cfg, http.MethodOptions, "https://any.example", true)

	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rec := corsServe(CORSConfig{AllowedOrigins: []string{"*"}}, http.MethodOptions, "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
}
