package domain

import (
	orgdomain "org-access-api/backend/internal/organization/domain"
	userdomain "org-access-api/backend/internal/user/domain"
)

// Registration is the pair of records created when a user signs up: the user and the
// default organisation they own.
type Registration struct {
	User         *userdomain.User
	Organisation *orgdomain.Org
}

// Profile is the caller-supplied part of a registration. Password is plaintext and must
// never be logged or stored.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}
