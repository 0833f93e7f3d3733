package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdufresne12/web-portal/pkg/health"
	"github.com/jdufresne12/web-portal/pkg/middleware"

	"github.com/jdufresne12/web-portal/internal/service"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "sponsors-hub"

// RouterConfig carries the services and options the router mounts.
type RouterConfig struct {
	Sponsors *service.SponsorService
	Drafts   *service.DraftService
	Auth     *service.AuthService
	Health   *health.Handler
	CORS     middleware.CORSConfig

	// LoginLimiter throttles sign-in attempts. Nil disables throttling.
	LoginLimiter func(http.Handler) http.Handler

	// SecureCookies marks session cookies Secure (production).
	SecureCookies bool

	Logger *slog.Logger
}

// NewRouter creates a chi router with all sponsors hub routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	cookies := cookieJar{secure: cfg.SecureCookies}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	sponsorHandler := NewSponsorHandler(cfg.Sponsors, cookies, logger)
	draftHandler := NewDraftHandler(cfg.Drafts, cookies, logger)
	authHandler := NewAuthHandler(cfg.Auth, cookies, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.LoginLimiter != nil {
					r.Use(cfg.LoginLimiter)
				}
				r.Post("/google", authHandler.SignInGoogle)
			})
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session)

			r.Route("/sponsors", func(r chi.Router) {
				r.Get("/", sponsorHandler.ListSponsors)
				r.Post("/", sponsorHandler.CreateSponsor)
				r.Get("/stats", sponsorHandler.GetStats)
				r.Post("/refresh", sponsorHandler.Refresh)
				r.Get("/{id}", sponsorHandler.GetSponsor)
				r.Put("/{id}", sponsorHandler.UpdateSponsor)
				r.Delete("/{id}", sponsorHandler.DeleteSponsor)
			})

			r.Get("/user-levels", sponsorHandler.ListUserLevels)
			r.Get("/mutation-reports", sponsorHandler.ListReports)

			r.Route("/media", func(r chi.Router) {
				r.With(middleware.CacheControl(time.Hour)).Get("/profiles", draftHandler.GetProfile)
				r.Post("/drafts", draftHandler.CreateDraft)
				r.Get("/drafts/{id}", draftHandler.PreviewDraft)
				r.Delete("/drafts/{id}", draftHandler.ReleaseDraft)
			})
		})
	})

	return r
}
