package domain

import "time"

// Event types emitted by the services.
const (
	EventUserRegistered      = "user.registered"
	EventUserLoggedIn        = "user.logged_in"
	EventOrganisationCreated = "organisation.created"
	EventMemberAdded         = "organisation.member_added"
)

// Event is a domain event published best-effort after a successful mutation.
// Metadata is an optional JSON document.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	OrgID     string    `json:"orgId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
	Source    string    `json:"source"`
	Metadata  []byte    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
