// Package rbac decides which organisations and user profiles an acting user may read.
// Decisions use only two relations: ownership (Org.CreatedBy) and membership (Org.Members).
package rbac

import (
	"context"
	"fmt"

	membership "org-access-api/backend/internal/membership/domain"
	orgdomain "org-access-api/backend/internal/organization/domain"
)

// Reason names the rule that produced a Decision.
type Reason string

const (
	// ReasonSelf: the actor is the target.
	ReasonSelf Reason = "self"
	// ReasonOwner: the actor owns an organisation whose members include the target.
	ReasonOwner Reason = "owner"
	// ReasonCoMember: some organisation lists both actor and target as members. Ownership is not required.
	ReasonCoMember Reason = "co_member"
	// ReasonDenied: no rule matched.
	ReasonDenied Reason = "denied"
)

// Decision is the outcome of a user visibility check. OrgID is the organisation that granted
// access for ReasonOwner and ReasonCoMember.
type Decision struct {
	Allowed bool
	Reason  Reason
	OrgID   string
}

// OrgSource loads the organisations a user owns or belongs to.
type OrgSource interface {
	ListAccessible(ctx context.Context, userID string) ([]*orgdomain.Org, error)
}

// Decider applies the user visibility rules to the actor's organisations.
type Decider interface {
	DecideUserVisibility(ctx context.Context, actorID, targetID string, orgs []*orgdomain.Org) (Decision, error)
}

// NativeDecider implements Decider in Go.
type NativeDecider struct{}

// DecideUserVisibility implements Decider.
func (NativeDecider) DecideUserVisibility(_ context.Context, actorID, targetID string, orgs []*orgdomain.Org) (Decision, error) {
	return DecideUserVisibility(actorID, targetID, orgs), nil
}

// DecideUserVisibility applies, in order, first match wins:
//  1. actor == target
//  2. actor owns an org whose members contain target
//  3. an org's members contain both actor and target
//  4. deny
//
// orgs must include every organisation the actor owns or is a member of; others are ignored.
func DecideUserVisibility(actorID, targetID string, orgs []*orgdomain.Org) Decision {
	if actorID == "" || targetID == "" {
		return Decision{Reason: ReasonDenied}
	}
	if actorID == targetID {
		return Decision{Allowed: true, Reason: ReasonSelf}
	}
	for _, o := range orgs {
		if membership.IsOwner(o, actorID) && membership.IsMember(o, targetID) {
			return Decision{Allowed: true, Reason: ReasonOwner, OrgID: o.ID}
		}
	}
	for _, o := range orgs {
		if membership.IsMember(o, actorID) && membership.IsMember(o, targetID) {
			return Decision{Allowed: true, Reason: ReasonCoMember, OrgID: o.ID}
		}
	}
	return Decision{Reason: ReasonDenied}
}

// Evaluator answers access questions for an acting user against the organisation store.
type Evaluator struct {
	orgs    OrgSource
	decider Decider
}

// NewEvaluator returns an Evaluator. decider may be nil; then NativeDecider is used.
func NewEvaluator(orgs OrgSource, decider Decider) *Evaluator {
	if decider == nil {
		decider = NativeDecider{}
	}
	return &Evaluator{orgs: orgs, decider: decider}
}

// ListAccessibleOrganisations returns every organisation the actor owns or is a member of, in
// store order. Returns an empty, non-nil slice when there are none.
func (e *Evaluator) ListAccessibleOrganisations(ctx context.Context, actorID string) ([]*orgdomain.Org, error) {
	orgs, err := e.orgs.ListAccessible(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list accessible organisations: %w", err)
	}
	out := make([]*orgdomain.Org, 0, len(orgs))
	for _, o := range orgs {
		if membership.CanSee(o, actorID) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CanViewUser reports whether actorID may read targetID's profile. Self access does not touch the store.
func (e *Evaluator) CanViewUser(ctx context.Context, actorID, targetID string) (Decision, error) {
	if actorID != "" && actorID == targetID {
		return Decision{Allowed: true, Reason: ReasonSelf}, nil
	}
	orgs, err := e.ListAccessibleOrganisations(ctx, actorID)
	if err != nil {
		return Decision{Reason: ReasonDenied}, err
	}
	d, err := e.decider.DecideUserVisibility(ctx, actorID, targetID, orgs)
	if err != nil {
		return Decision{Reason: ReasonDenied}, fmt.Errorf("decide user visibility: %w", err)
	}
	return d, nil
}
