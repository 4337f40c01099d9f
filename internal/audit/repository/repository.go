package repository

import (
	"context"

	"org-access-api/backend/internal/audit/domain"
)

// Writer appends request audit entries. Entries are never read back by the API; operators
// query audit_logs directly.
type Writer interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}
