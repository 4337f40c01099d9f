package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	orgdomain "org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/rbac"
)

const decisionQuery = "data.orgapi.user_visibility.decision"

// DefaultRegoPolicy matches rbac.DecideUserVisibility. The else chain keeps the rule order.
const DefaultRegoPolicy = `package orgapi.user_visibility

default decision := {"allowed": false, "reason": "denied", "org_id": ""}

ids_present if {
	input.actor != ""
	input.target != ""
}

owner_orgs := [o.id |
	some o in input.orgs
	o.created_by == input.actor
	input.target in o.members
]

shared_orgs := [o.id |
	some o in input.orgs
	input.actor in o.members
	input.target in o.members
]

decision := {"allowed": true, "reason": "self", "org_id": ""} if {
	ids_present
	input.actor == input.target
} else := {"allowed": true, "reason": "owner", "org_id": owner_orgs[0]} if {
	ids_present
	count(owner_orgs) > 0
} else := {"allowed": true, "reason": "co_member", "org_id": shared_orgs[0]} if {
	ids_present
	count(shared_orgs) > 0
}
`

// OPADecider implements rbac.Decider by evaluating a Rego module in process.
type OPADecider struct {
	query rego.PreparedEvalQuery
}

var _ rbac.Decider = (*OPADecider)(nil)

// NewOPADecider compiles module (DefaultRegoPolicy when empty) and prepares the decision query.
func NewOPADecider(ctx context.Context, module string) (*OPADecider, error) {
	if module == "" {
		module = DefaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"user_visibility.rego": module})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(decisionQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query: %w", err)
	}
	return &OPADecider{query: q}, nil
}

// NewOPADeciderFromFile reads a Rego module from path. An empty path uses DefaultRegoPolicy.
func NewOPADeciderFromFile(ctx context.Context, path string) (*OPADecider, error) {
	if path == "" {
		return NewOPADecider(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return NewOPADecider(ctx, string(b))
}

// DecideUserVisibility implements rbac.Decider.
func (d *OPADecider) DecideUserVisibility(ctx context.Context, actorID, targetID string, orgs []*orgdomain.Org) (rbac.Decision, error) {
	rs, err := d.query.Eval(ctx, rego.EvalInput(buildInput(actorID, targetID, orgs)))
	if err != nil {
		return rbac.Decision{Reason: rbac.ReasonDenied}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return rbac.Decision{Reason: rbac.ReasonDenied}, fmt.Errorf("policy query returned no result")
	}
	out, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return rbac.Decision{Reason: rbac.ReasonDenied}, fmt.Errorf("policy decision has type %T", rs[0].Expressions[0].Value)
	}
	dec := rbac.Decision{Reason: rbac.ReasonDenied}
	if v, ok := out["allowed"].(bool); ok {
		dec.Allowed = v
	}
	if v, ok := out["reason"].(string); ok && v != "" {
		dec.Reason = rbac.Reason(v)
	}
	if v, ok := out["org_id"].(string); ok {
		dec.OrgID = v
	}
	if !dec.Allowed {
		dec.Reason = rbac.ReasonDenied
		dec.OrgID = ""
	}
	return dec, nil
}

// HealthCheck evaluates a self-access input against the prepared query. Returns nil on success.
func (d *OPADecider) HealthCheck(ctx context.Context) error {
	dec, err := d.DecideUserVisibility(ctx, "healthcheck", "healthcheck", nil)
	if err != nil {
		return err
	}
	if !dec.Allowed {
		return fmt.Errorf("policy denied self access")
	}
	return nil
}

func buildInput(actorID, targetID string, orgs []*orgdomain.Org) map[string]interface{} {
	orgList := make([]interface{}, 0, len(orgs))
	for _, o := range orgs {
		if o == nil {
			continue
		}
		members := make([]interface{}, 0, len(o.Members))
		for _, m := range o.Members {
			members = append(members, m)
		}
		orgList = append(orgList, map[string]interface{}{
			"id":         o.ID,
			"created_by": o.CreatedBy,
			"members":    members,
		})
	}
	return map[string]interface{}{
		"actor":  actorID,
		"target": targetID,
		"orgs":   orgList,
	}
}
