package domain

import "time"

// AuditLog is one recorded request: who did what to which resource, and from where.
// OrgID is the organisation addressed by the request, or a sentinel when there is none.
type AuditLog struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	UserID    string    `db:"user_id"`
	Action    string    `db:"action"`
	Resource  string    `db:"resource"`
	IP        string    `db:"ip"`
	Metadata  string    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}
