package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"org-access-api/backend/internal/db"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/user/domain"
)

const userColumns = `user_id, first_name, last_name, email, password_hash, COALESCE(phone, '') AS phone, created_at`

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns a user repository that uses the given db (or transaction) for persistence.
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// List returns every user in creation order.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := sqlx.SelectContext(ctx, r.db, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, user_id`); err != nil {
		return nil, err
	}
	return users, nil
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
// A duplicate user_id or email is reported as apperr.ErrConflict wrapping the constraint name.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	phone := sql.NullString{String: u.Phone, Valid: u.Phone != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, first_name, last_name, email, password_hash, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, phone, u.CreatedAt,
	)
	if constraint, ok := db.UniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, constraint)
	}
	return err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	if err := sqlx.GetContext(ctx, r.db, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
