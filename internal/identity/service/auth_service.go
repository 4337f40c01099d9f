package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	identitydomain "org-access-api/backend/internal/identity/domain"
	orgdomain "org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/security"
	"org-access-api/backend/internal/telemetry"
	telemetrydomain "org-access-api/backend/internal/telemetry/domain"
	userdomain "org-access-api/backend/internal/user/domain"
)

// AuthResult holds the outcome of Register or Login. Organisation is set by Register only.
type AuthResult struct {
	User         *userdomain.User
	Organisation *orgdomain.Org
	AccessToken  string
	ExpiresAt    time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// RegistrationRepo stores a user together with their default organisation.
type RegistrationRepo interface {
	Register(ctx context.Context, reg *identitydomain.Registration) error
}

// AuthService implements registration, password login, and token verification.
type AuthService struct {
	users         UserRepo
	registrations RegistrationRepo
	hasher        *security.Hasher
	tokens        *security.TokenProvider
	events        telemetry.EventEmitter
	now           func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. events may be nil.
func NewAuthService(
	users UserRepo,
	registrations RegistrationRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	events telemetry.EventEmitter,
) *AuthService {
	return &AuthService{
		users:         users,
		registrations: registrations,
		hasher:        hasher,
		tokens:        tokens,
		events:        events,
		now:           time.Now,
	}
}

// Register validates the profile, creates the user and a default organisation owned by them
// ("<firstName>'s Organisation", no members), and returns an access token for the new user.
// Validation and uniqueness failures are returned as *apperr.ValidationError.
func (s *AuthService) Register(ctx context.Context, p identitydomain.Profile) (*AuthResult, error) {
	now := s.now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Email:     normalizeEmail(p.Email),
		Phone:     strings.TrimSpace(p.Phone),
		CreatedAt: now,
	}
	ve := &apperr.ValidationError{}
	if err := user.Validate(); err != nil {
		uve, ok := apperr.AsValidation(err)
		if !ok {
			return nil, err
		}
		ve.Errors = append(ve.Errors, uve.Errors...)
	}
	if p.Password == "" {
		ve.Add("password", "Password is required")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Invalid("email", "email must be unique")
	}

	hashed, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hashed

	org := &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      orgdomain.DefaultName(user.FirstName),
		CreatedBy: user.ID,
		Members:   pq.StringArray{},
		CreatedAt: now,
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}

	if err := s.registrations.Register(ctx, &identitydomain.Registration{User: user, Organisation: org}); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, conflictToValidation(err)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	token, expiresAt, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	telemetry.EmitAsync(s.events, telemetry.NewEvent(telemetrydomain.EventUserRegistered, org.ID, user.ID, user.ID))
	return &AuthResult{User: user, Organisation: org, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Login authenticates with email and password. Every failure cause (missing field, unknown
// email, wrong password) returns apperr.ErrAuthFailed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.ErrAuthFailed
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		s.hasher.CompareDummy([]byte(password))
		return nil, apperr.ErrAuthFailed
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, apperr.ErrAuthFailed
	}
	token, expiresAt, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	telemetry.EmitAsync(s.events, telemetry.NewEvent(telemetrydomain.EventUserLoggedIn, "", user.ID, user.ID))
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Verify returns the user id bound to an access token. Errors are security.ErrTokenExpired or
// security.ErrInvalidToken.
func (s *AuthService) Verify(token string) (string, error) {
	return s.tokens.ValidateAccess(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// conflictToValidation maps a store uniqueness violation to the field it concerns.
func conflictToValidation(err error) *apperr.ValidationError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return apperr.Invalid("email", "email must be unique")
	case strings.Contains(msg, "organisations"):
		return apperr.Invalid("orgId", "orgId must be unique")
	default:
		return apperr.Invalid("userId", "userId must be unique")
	}
}
