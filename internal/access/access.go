// Package access decides which plan capabilities a caller's tier unlocks.
// Tiers travel in signed tokens and are attached to the request context by
// the HTTP layer; the plan service checks capabilities before any mutation.
package access

import (
	"context"
	"fmt"
	"strings"
)

// Tier is an access level.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierFree, TierPaid:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

// Capability is an action on a plan that may be gated.
type Capability string

const (
	CapView      Capability = "view"
	CapViewFull  Capability = "view_full"
	CapEdit      Capability = "edit"
	CapAlter     Capability = "alter"
	CapTranslate Capability = "translate"
	CapExport    Capability = "export"
)

type ctxKey struct{}

// WithTier returns a context carrying the caller's tier.
func WithTier(ctx context.Context, t Tier) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// TierFrom returns the tier carried by ctx, or TierFree when none is set.
func TierFrom(ctx context.Context) Tier {
	if t, ok := ctx.Value(ctxKey{}).(Tier); ok {
		return t
	}
	return TierFree
}
