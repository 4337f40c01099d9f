package domain

import (
	"regexp"
	"strings"
	"time"

	"org-access-api/backend/internal/platform/apperr"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is the core user entity. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `db:"user_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Phone        string    `db:"phone"` // optional
	CreatedAt    time.Time `db:"created_at"`
}

// View is the public projection of a user. It has no password field.
type View struct {
	UserID    string  `json:"userId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"` // null when unset
}

// View returns the public projection of u.
func (u *User) View() View {
	v := View{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
	if u.Phone != "" {
		phone := u.Phone
		v.Phone = &phone
	}
	return v
}

// Validate checks the fields that persistence requires. It returns a *apperr.ValidationError
// listing every failed field, or nil. PasswordHash is not checked here; the plaintext
// password is validated by the identity service before hashing.
func (u *User) Validate() error {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(u.FirstName) == "" {
		ve.Add("firstName", "First Name is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		ve.Add("lastName", "Last Name is required")
	}
	switch {
	case strings.TrimSpace(u.Email) == "":
		ve.Add("email", "Email is required")
	case !emailPattern.MatchString(u.Email):
		ve.Add("email", "Email is invalid")
	}
	return ve.OrNil()
}
