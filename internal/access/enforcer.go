package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/starford/planinsta/internal/apperr"
)

const planObject = "plan"

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Enforcer maps tiers to capabilities. Paid inherits everything free has.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
}

// NewEnforcer builds the in-memory policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("access: parse model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("access: create enforcer: %w", err)
	}

	policies := [][]string{
		{string(TierFree), planObject, string(CapView)},
		{string(TierPaid), planObject, string(CapViewFull)},
		{string(TierPaid), planObject, string(CapEdit)},
		{string(TierPaid), planObject, string(CapAlter)},
		{string(TierPaid), planObject, string(CapTranslate)},
		{string(TierPaid), planObject, string(CapExport)},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("access: add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(string(TierPaid), string(TierFree)); err != nil {
		return nil, fmt.Errorf("access: add tier inheritance: %w", err)
	}
	return &Enforcer{enforcer: e}, nil
}

// Allowed reports whether tier grants capability.
func (e *Enforcer) Allowed(tier Tier, c Capability) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(string(tier), planObject, string(c))
	if err != nil {
		return false, fmt.Errorf("access: enforce: %w", err)
	}
	return ok, nil
}

// Check returns an error wrapping apperr.ErrLocked when the tier carried by
// ctx does not grant capability.
func (e *Enforcer) Check(ctx context.Context, c Capability) error {
	tier := TierFrom(ctx)
	ok, err := e.Allowed(tier, c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s requires the paid tier", apperr.ErrLocked, c)
	}
	return nil
}
