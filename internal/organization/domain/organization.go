package domain

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"org-access-api/backend/internal/platform/apperr"
)

// Org is an organisation (tenant). CreatedBy is a back-reference to the owner; the owner is
// not implicitly part of Members. Members may hold the same user id more than once.
type Org struct {
	ID          string         `db:"org_id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	CreatedBy   string         `db:"created_by"`
	Members     pq.StringArray `db:"members"`
	CreatedAt   time.Time      `db:"created_at"`
}

// View is the public projection of an organisation. CreatedBy and Members are never exposed.
type View struct {
	OrgID       string `json:"orgId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// View returns the public projection of o.
func (o *Org) View() View {
	return View{OrgID: o.ID, Name: o.Name, Description: o.Description}
}

// Views projects a list of organisations. Never returns nil so JSON renders [].
func Views(orgs []*Org) []View {
	out := make([]View, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, o.View())
	}
	return out
}

// DefaultName is the name of the organisation created for a user at registration.
func DefaultName(firstName string) string {
	return strings.TrimSpace(firstName) + "'s Organisation"
}

// Validate validates the organisation for persistence. Returns a *apperr.ValidationError or nil.
func (o *Org) Validate() error {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(o.Name) == "" {
		ve.Add("name", "Organisation name is required")
	}
	if strings.TrimSpace(o.CreatedBy) == "" {
		ve.Add("createdBy", "Owner is required")
	}
	if o.Members == nil {
		o.Members = pq.StringArray{}
	}
	return ve.OrNil()
}
