// Package handler serves the organisation endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/organization/service"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/platform/httpx"
	"org-access-api/backend/internal/server/middleware"
)

// OrganizationService is the part of the organisation service the handler calls.
type OrganizationService interface {
	ListAccessible(ctx context.Context, actorID string) ([]*domain.Org, error)
	Get(ctx context.Context, orgID string) (*domain.Org, error)
	Create(ctx context.Context, actorID, name, description string) (*domain.Org, error)
	AddMember(ctx context.Context, actorID, orgID, userID string) error
}

// Handler serves /api/organisations routes. Every route requires an authenticated user.
type Handler struct {
	Orgs OrganizationService
	Log  *zap.Logger
}

// NewHandler returns a Handler. A nil logger is replaced with a no-op logger.
func NewHandler(orgs OrganizationService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Orgs: orgs, Log: logger}
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
}

type listData struct {
	Organisations []domain.View `json:"organisations"`
}

// ServeList handles GET /api/organisations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserID(r.Context())
	orgs, err := h.Orgs.ListAccessible(r.Context(), actorID)
	if err != nil {
		httpx.Internal(w, r, h.Log, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Organisations created by user & user is a member, retrieved",
		listData{Organisations: domain.Views(orgs)})
}

// ServeGet handles GET /api/organisations/{orgId}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orgs.Get(r.Context(), chi.URLParam(r, "orgId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Organisation successfully retrieved", o.View())
}

// ServeCreate handles POST /api/organisations.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.Log, err)
		return
	}
	actorID, _ := middleware.UserID(r.Context())
	o, err := h.Orgs.Create(r.Context(), actorID, req.Name, req.Description)
	if err != nil {
		httpx.WriteError(w, r, h.Log, err)
		return
	}
	h.Log.Info("organisation created", zap.String("org_id", o.ID), zap.String("user_id", actorID))
	httpx.Success(w, http.StatusCreated, "Organisation created successfully", o.View())
}

// ServeAddMember handles POST /api/organisations/{orgId}/users.
func (h *Handler) ServeAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.Log, err)
		return
	}
	actorID, _ := middleware.UserID(r.Context())
	orgID := chi.URLParam(r, "orgId")
	if err := h.Orgs.AddMember(r.Context(), actorID, orgID, req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info("organisation member added",
		zap.String("org_id", orgID),
		zap.String("member_id", req.UserID),
		zap.String("actor_id", actorID),
	)
	httpx.Success(w, http.StatusOK, "User added to organisation successfully", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "Organisation not found")
	case errors.Is(err, service.ErrUserIDRequired):
		httpx.Fail(w, http.StatusBadRequest, "User ID is required")
	default:
		httpx.WriteError(w, r, h.Log, err)
	}
}
