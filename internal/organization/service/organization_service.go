package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/telemetry"
	telemetrydomain "org-access-api/backend/internal/telemetry/domain"
)

// ErrUserIDRequired is returned by AddMember when no user id is given.
var ErrUserIDRequired = fmt.Errorf("%w: user id is required", apperr.ErrBadRequest)

// OrgRepo is the minimal organisation repository needed by the organisation service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
	AddMember(ctx context.Context, orgID, userID string) (bool, error)
}

// AccessLister lists the organisations a user owns or belongs to.
type AccessLister interface {
	ListAccessibleOrganisations(ctx context.Context, actorID string) ([]*domain.Org, error)
}

// OrganizationService serves organisation reads and writes.
type OrganizationService struct {
	orgs   OrgRepo
	access AccessLister
	events telemetry.EventEmitter
	now    func() time.Time
}

// NewOrganizationService returns an OrganizationService. events may be nil.
func NewOrganizationService(orgs OrgRepo, access AccessLister, events telemetry.EventEmitter) *OrganizationService {
	return &OrganizationService{orgs: orgs, access: access, events: events, now: time.Now}
}

// ListAccessible returns the organisations actorID owns or is a member of.
func (s *OrganizationService) ListAccessible(ctx context.Context, actorID string) ([]*domain.Org, error) {
	return s.access.ListAccessibleOrganisations(ctx, actorID)
}

// Get returns the organisation or apperr.ErrNotFound. Any authenticated caller may read any organisation.
func (s *OrganizationService) Get(ctx context.Context, orgID string) (*domain.Org, error) {
	o, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("get organisation: %w", err)
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

// Create stores a new organisation owned by actorID with no members.
func (s *OrganizationService) Create(ctx context.Context, actorID, name, description string) (*domain.Org, error) {
	o := &domain.Org{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedBy:   actorID,
		Members:     pq.StringArray{},
		CreatedAt:   s.now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, o); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Invalid("orgId", "orgId must be unique")
		}
		return nil, fmt.Errorf("create organisation: %w", err)
	}
	telemetry.EmitAsync(s.events, telemetry.NewEvent(telemetrydomain.EventOrganisationCreated, o.ID, "", actorID))
	return o, nil
}

// AddMember appends userID to the organisation's members. The user is not checked for existence,
// repeated adds are kept, and the caller need not own the organisation.
func (s *OrganizationService) AddMember(ctx context.Context, actorID, orgID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	ok, err := s.orgs.AddMember(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	telemetry.EmitAsync(s.events, telemetry.NewEvent(telemetrydomain.EventMemberAdded, orgID, userID, actorID))
	return nil
}
