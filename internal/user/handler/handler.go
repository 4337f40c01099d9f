// Package handler serves the user listing and profile endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/platform/httpx"
	"org-access-api/backend/internal/platform/rbac"
	"org-access-api/backend/internal/server/middleware"
	"org-access-api/backend/internal/user/domain"
)

// UserService is the part of the user service the handler calls.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	GetProfile(ctx context.Context, actorID, targetID string) (*domain.User, rbac.Decision, error)
}

// Handler serves /api/users routes.
type Handler struct {
	Users UserService
	Log   *zap.Logger
}

// NewHandler returns a Handler. A nil logger is replaced with a no-op logger.
func NewHandler(users UserService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Users: users, Log: logger}
}

var grantMessages = map[rbac.Reason]string{
	rbac.ReasonSelf:     "Successfully fetched your details",
	rbac.ReasonOwner:    "Successfully fetched details of user in your organisation",
	rbac.ReasonCoMember: "Successfully fetched details of user in the same organisation as you",
}

// ServeList handles GET /api/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		httpx.Internal(w, r, h.Log, err)
		return
	}
	views := make([]domain.View, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	httpx.Success(w, http.StatusOK, "Users retrieved successfully", views)
}

// ServeGet handles GET /api/users/{id}. The success message names the rule that granted access.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserID(r.Context())
	targetID := chi.URLParam(r, "id")

	user, decision, err := h.Users.GetProfile(r.Context(), actorID, targetID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, apperr.ErrForbidden):
		h.Log.Info("user profile denied",
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
		)
		httpx.Fail(w, http.StatusForbidden, "You are not authorized to view this user's details")
		return
	case err != nil:
		httpx.Internal(w, r, h.Log, err)
		return
	}
	msg, ok := grantMessages[decision.Reason]
	if !ok {
		msg = "User retrieved successfully"
	}
	httpx.Success(w, http.StatusOK, msg, user.View())
}
