// Package handler reports service health over HTTP and the standard gRPC health protocol.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"org-access-api/backend/internal/platform/httpx"
)

const checkTimeout = 2 * time.Second

// Pinger checks a backing store (e.g. *sqlx.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks the policy engine (e.g. the OPA decider).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the readiness checks. Nil dependencies are skipped.
type Checker struct {
	db     Pinger
	policy PolicyChecker
}

// NewChecker returns a Checker. Either argument may be nil.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy}
}

// Check returns nil when every configured dependency is healthy.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	var errs []error
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker *Checker
	Log     *zap.Logger
}

// NewHandler returns a Handler. A nil logger is replaced with a no-op logger.
func NewHandler(checker *Checker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Checker: checker, Log: logger}
}

type statusBody struct {
	Status string `json:"status"`
}

// ServeLive handles GET /healthz with {"status":"ok"}. It reports only that the process is serving.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, statusBody{Status: "ok"})
}

// ServeReady handles GET /readyz: 200 {"status":"ready"} when dependencies are healthy,
// 503 with the error envelope otherwise.
func (h *Handler) ServeReady(w http.ResponseWriter, r *http.Request) {
	if h.Checker != nil {
		if err := h.Checker.Check(r.Context()); err != nil {
			h.Log.Warn("readiness check failed", zap.Error(err))
			httpx.Error(w, http.StatusServiceUnavailable, "Service unavailable")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, statusBody{Status: "ready"})
}
