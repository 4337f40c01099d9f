package repository

import (
	"context"

	"org-access-api/backend/internal/organization/domain"
)

// Repository defines persistence for organisations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
	// ListAccessible returns organisations userID owns or is a member of, each at most once.
	ListAccessible(ctx context.Context, userID string) ([]*domain.Org, error)
	// AddMember appends userID to the organisation's members in a single statement.
	// Returns false if the organisation does not exist.
	AddMember(ctx context.Context, orgID, userID string) (bool, error)
}
