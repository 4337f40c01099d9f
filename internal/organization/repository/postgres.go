package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"org-access-api/backend/internal/db"
	"org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/apperr"
)

const orgColumns = `org_id, name, description, created_by, members, created_at`

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns an organisation repository that uses the given db (or transaction) for persistence.
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organisation for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	var o domain.Org
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orgColumns+` FROM organisations WHERE org_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the organisation. The organisation must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	members := o.Members
	if members == nil {
		members = pq.StringArray{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organisations (org_id, name, description, created_by, members, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, o.Description, o.CreatedBy, members, o.CreatedAt,
	)
	if constraint, ok := db.UniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, constraint)
	}
	return err
}

// ListAccessible returns organisations created by userID or listing userID as a member.
func (r *PostgresRepository) ListAccessible(ctx context.Context, userID string) ([]*domain.Org, error) {
	var orgs []*domain.Org
	err := sqlx.SelectContext(ctx, r.db, &orgs,
		`SELECT `+orgColumns+` FROM organisations
		 WHERE created_by = $1 OR $1 = ANY(members)
		 ORDER BY created_at, org_id`, userID)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// AddMember appends userID with array_append so concurrent calls on the same organisation
// cannot overwrite each other. Duplicates are kept.
func (r *PostgresRepository) AddMember(ctx context.Context, orgID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organisations SET members = array_append(members, $2) WHERE org_id = $1`,
		orgID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
