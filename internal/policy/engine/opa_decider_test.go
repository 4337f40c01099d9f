package engine

import (
	"context"
	"testing"

	"github.com/lib/pq"

	orgdomain "org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/rbac"
)

func TestOPADecider_HealthCheck(t *testing.T) {
	ctx := context.Background()
	d, err := NewOPADecider(ctx, "")
	if err != nil {
		t.Fatalf("NewOPADecider: %v", err)
	}
	if err := d.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestNewOPADecider_InvalidModule(t *testing.T) {
	if _, err := NewOPADecider(context.Background(), "package broken\n\nx := {"); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestNewOPADeciderFromFile_Missing(t *testing.T) {
	if _, err := NewOPADeciderFromFile(context.Background(), "/nonexistent/policy.rego"); err == nil {
		t.Fatal("expected read error")
	}
}

func org(id, owner string, members ...string) *orgdomain.Org {
	return &orgdomain.Org{ID: id, CreatedBy: owner, Members: pq.StringArray(members)}
}

// The Rego policy must agree with the native rules for every case.
func TestOPADecider_MatchesNative(t *testing.T) {
	ctx := context.Background()
	d, err := NewOPADecider(ctx, "")
	if err != nil {
		t.Fatalf("NewOPADecider: %v", err)
	}

	testCases := []struct {
		name   string
		actor  string
		target string
		orgs   []*orgdomain.Org
		want   rbac.Decision
	}{
		{"self", "u1", "u1", nil, rbac.Decision{Allowed: true, Reason: rbac.ReasonSelf}},
		{"empty actor", "", "u2", []*orgdomain.Org{org("A", "", "u2")}, rbac.Decision{Reason: rbac.ReasonDenied}},
		{"empty ids are not self", "", "", nil, rbac.Decision{Reason: rbac.ReasonDenied}},
		{"owner sees member", "u1", "u2", []*orgdomain.Org{org("A", "u1", "u2")}, rbac.Decision{Allowed: true, Reason: rbac.ReasonOwner, OrgID: "A"}},
		{"member does not see owner", "u2", "u1", []*orgdomain.Org{org("A", "u1", "u2")}, rbac.Decision{Reason: rbac.ReasonDenied}},
		{"co-members", "u2", "u1", []*orgdomain.Org{org("A", "u1", "u2"), org("B", "u3", "u1", "u2")}, rbac.Decision{Allowed: true, Reason: rbac.ReasonCoMember, OrgID: "B"}},
		{"owner before co-member", "u1", "u2", []*orgdomain.Org{org("S", "u9", "u1", "u2"), org("O", "u1", "u2")}, rbac.Decision{Allowed: true, Reason: rbac.ReasonOwner, OrgID: "O"}},
		{"first owning org wins", "u1", "u2", []*orgdomain.Org{org("A", "u1", "u2"), org("B", "u1", "u2")}, rbac.Decision{Allowed: true, Reason: rbac.ReasonOwner, OrgID: "A"}},
		{"no relation", "u1", "u2", []*orgdomain.Org{org("A", "u1"), org("B", "u9", "u1")}, rbac.Decision{Reason: rbac.ReasonDenied}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.DecideUserVisibility(ctx, tc.actor, tc.target, tc.orgs)
			if err != nil {
				t.Fatalf("DecideUserVisibility: %v", err)
			}
			if got != tc.want {
				t.Errorf("opa decision = %+v, want %+v", got, tc.want)
			}
			if native := rbac.DecideUserVisibility(tc.actor, tc.target, tc.orgs); native != got {
				t.Errorf("native decision = %+v, opa = %+v", native, got)
			}
		})
	}
}

func TestOPADecider_CustomPolicy(t *testing.T) {
	ctx := context.Background()
	deny := `package orgapi.user_visibility

decision := {"allowed": false, "reason": "denied", "org_id": ""}
`
	d, err := NewOPADecider(ctx, deny)
	if err != nil {
		t.Fatalf("NewOPADecider: %v", err)
	}
	got, err := d.DecideUserVisibility(ctx, "u1", "u2", []*orgdomain.Org{org("A", "u1", "u2")})
	if err != nil {
		t.Fatalf("DecideUserVisibility: %v", err)
	}
	if got.Allowed {
		t.Errorf("decision = %+v, want denied by custom policy", got)
	}
	if err := d.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck should fail when the policy denies self access")
	}
}

func TestOPADecider_WithEvaluator(t *testing.T) {
	ctx := context.Background()
	d, err := NewOPADecider(ctx, "")
	if err != nil {
		t.Fatalf("NewOPADecider: %v", err)
	}
	src := staticOrgs{org("A", "u1", "u2")}
	e := rbac.NewEvaluator(src, d)
	got, err := e.CanViewUser(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("CanViewUser: %v", err)
	}
	if !got.Allowed || got.Reason != rbac.ReasonOwner {
		t.Errorf("CanViewUser = %+v, want owner access", got)
	}
}

type staticOrgs []*orgdomain.Org

func (s staticOrgs) ListAccessible(ctx context.Context, userID string) ([]*orgdomain.Org, error) {
	return s, nil
}
