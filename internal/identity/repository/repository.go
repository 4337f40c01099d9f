package repository

import (
	"context"

	"org-access-api/backend/internal/identity/domain"
)

// Repository persists registrations.
type Repository interface {
	// Register stores the user and their default organisation as one unit: either both
	// records exist afterwards or neither does.
	Register(ctx context.Context, reg *domain.Registration) error
}
