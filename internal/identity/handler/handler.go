// Package handler serves the registration and login endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	identitydomain "org-access-api/backend/internal/identity/domain"
	"org-access-api/backend/internal/identity/service"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/platform/httpx"
	userdomain "org-access-api/backend/internal/user/domain"
)

// AuthService is the part of the identity service the handler calls.
type AuthService interface {
	Register(ctx context.Context, p identitydomain.Profile) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// Handler serves /auth routes.
type Handler struct {
	Auth AuthService
	Log  *zap.Logger
}

// NewHandler returns a Handler. A nil logger is replaced with a no-op logger.
func NewHandler(auth AuthService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Auth: auth, Log: logger}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authData struct {
	AccessToken string          `json:"accessToken"`
	User        userdomain.View `json:"user"`
}

// ServeRegister handles POST /auth/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.Log, err)
		return
	}
	res, err := h.Auth.Register(r.Context(), identitydomain.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		httpx.WriteError(w, r, h.Log, err)
		return
	}
	h.Log.Info("user registered", zap.String("user_id", res.User.ID))
	httpx.Success(w, http.StatusCreated, "Registration successful", authData{
		AccessToken: res.AccessToken,
		User:        res.User.View(),
	})
}

// ServeLogin handles POST /auth/login. Every failure that is not an internal error gets
// the same 401 body, including a malformed request body.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.AuthFailed(w)
		return
	}
	res, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrAuthFailed) {
			httpx.AuthFailed(w)
			return
		}
		httpx.Internal(w, r, h.Log, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Login successful", authData{
		AccessToken: res.AccessToken,
		User:        res.User.View(),
	})
}
