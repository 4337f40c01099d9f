// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"org-access-api/backend/internal/audit"
	"org-access-api/backend/internal/cache"
	healthhandler "org-access-api/backend/internal/health/handler"
	identityhandler "org-access-api/backend/internal/identity/handler"
	organizationhandler "org-access-api/backend/internal/organization/handler"
	"org-access-api/backend/internal/platform/httpx"
	"org-access-api/backend/internal/server/middleware"
	userhandler "org-access-api/backend/internal/user/handler"
)

// Deps holds what the HTTP router needs. Audit, LoginCounter, and the telemetry providers are
// optional; the handlers and Tokens are required.
type Deps struct {
	Auth   *identityhandler.Handler
	Users  *userhandler.Handler
	Orgs   *organizationhandler.Handler
	Health *healthhandler.Handler

	Tokens middleware.TokenVerifier
	Audit  audit.AuditLogger

	// LoginCounter backs the per-IP login limiter; nil disables it.
	LoginCounter   cache.Counter
	LoginRateLimit int
	// TrustedProxies are the peers whose forwarding headers the login limiter believes.
	TrustedProxies []netip.Prefix

	CORSOrigins []string
	Log         *zap.Logger

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator
}

// Banner is the body of GET /.
const Banner = "org-access-api"

type notFoundBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// NewRouter returns the HTTP handler for the whole API.
//
// Route → handler mapping:
//   - /auth/register, /auth/login        → internal/identity/handler
//   - /api/users, /api/users/{id}        → internal/user/handler
//   - /api/organisations[/{orgId}[/users]] → internal/organization/handler
//   - /healthz, /readyz                  → internal/health/handler
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CaptureClientIP)
	r.Use(middleware.AccessLog(log))
	if d.TracerProvider != nil && d.MeterProvider != nil {
		r.Use(middleware.Telemetry(d.TracerProvider, d.MeterProvider, d.Propagator))
	}
	r.Use(middleware.CORS(d.CORSOrigins))

	var auditMW func(http.Handler) http.Handler
	if d.Audit != nil {
		auditMW = middleware.Audit(d.Audit)
	}
	var limiter func(http.Handler) http.Handler
	if d.LoginCounter != nil {
		limiter = middleware.RateLimitLogin(d.LoginCounter, d.LoginRateLimit, d.TrustedProxies)
	}
	requireAuth := middleware.RequireAuth(d.Tokens)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, notFoundBody{Status: "error", Error: "Route not found"})
	})
	if d.Health != nil {
		healthhandler.RegisterRoutes(r, d.Health)
	}
	r.Mount("/auth", identityhandler.Routes(d.Auth, auditMW, limiter))
	r.Mount("/api/users", userhandler.Routes(d.Users, requireAuth, auditMW))
	r.Mount("/api/organisations", organizationhandler.Routes(d.Orgs, requireAuth, auditMW))
	return r
}
