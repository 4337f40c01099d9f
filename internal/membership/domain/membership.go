// Package domain models how a user relates to an organisation. Ownership (CreatedBy) and
// membership (Members) are separate relations: owning an organisation does not make a user
// one of its members.
package domain

import (
	orgdomain "org-access-api/backend/internal/organization/domain"
)

// Role is a user's relation to one organisation.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleNone   Role = ""
)

// IsOwner reports whether userID created org.
func IsOwner(org *orgdomain.Org, userID string) bool {
	return org != nil && userID != "" && org.CreatedBy == userID
}

// IsMember reports whether userID appears in org's member list.
func IsMember(org *orgdomain.Org, userID string) bool {
	if org == nil || userID == "" {
		return false
	}
	for _, m := range org.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the strongest relation of userID to org. An owner that was also added as a
// member is reported as RoleOwner.
func RoleOf(org *orgdomain.Org, userID string) Role {
	switch {
	case IsOwner(org, userID):
		return RoleOwner
	case IsMember(org, userID):
		return RoleMember
	default:
		return RoleNone
	}
}

// CanSee reports whether userID is owner or member of org.
func CanSee(org *orgdomain.Org, userID string) bool {
	return RoleOf(org, userID) != RoleNone
}
