package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"org-access-api/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns an audit writer backed by the audit_logs table.
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := sqlx.NamedExecContext(ctx, r.db,
		`INSERT INTO audit_logs (id, org_id, user_id, action, resource, ip, metadata, created_at)
		 VALUES (:id, :org_id, :user_id, :action, :resource, :ip, :metadata, :created_at)`,
		a,
	)
	return err
}
