package service

import (
	"context"
	"fmt"

	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/platform/rbac"
	"org-access-api/backend/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the user service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// Authorizer decides whether one user may read another's profile.
type Authorizer interface {
	CanViewUser(ctx context.Context, actorID, targetID string) (rbac.Decision, error)
}

// UserService serves user reads.
type UserService struct {
	users  UserRepo
	access Authorizer
}

// NewUserService returns a UserService.
func NewUserService(users UserRepo, access Authorizer) *UserService {
	return &UserService{users: users, access: access}
}

// List returns every user. No access check is applied.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// GetProfile returns targetID's user record if actorID may view it, with the decision that
// allowed it. The target's existence is resolved first: apperr.ErrNotFound if absent, then
// apperr.ErrForbidden if the actor may not view it.
func (s *UserService) GetProfile(ctx context.Context, actorID, targetID string) (*domain.User, rbac.Decision, error) {
	denied := rbac.Decision{Reason: rbac.ReasonDenied}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, denied, fmt.Errorf("get user: %w", err)
	}
	if target == nil {
		return nil, denied, apperr.ErrNotFound
	}
	d, err := s.access.CanViewUser(ctx, actorID, targetID)
	if err != nil {
		return nil, denied, err
	}
	if !d.Allowed {
		return nil, d, apperr.ErrForbidden
	}
	return target, d, nil
}
