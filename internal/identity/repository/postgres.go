package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"org-access-api/backend/internal/identity/domain"
	orgrepo "org-access-api/backend/internal/organization/repository"
	userrepo "org-access-api/backend/internal/user/repository"
)

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a registration repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register inserts the user and the default organisation in a single transaction.
// Store errors (including apperr.ErrConflict) are returned wrapped.
func (r *PostgresRepository) Register(ctx context.Context, reg *domain.Registration) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = userrepo.NewPostgresRepository(tx).Create(ctx, reg.User); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if err = orgrepo.NewPostgresRepository(tx).Create(ctx, reg.Organisation); err != nil {
		return fmt.Errorf("create default organisation: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}
