package principal

import (
	"context"
	"slices"
)

// RoleSuperAdmin is the most privileged role tier. Role tiers are ordered
// with lower values more privileged.
const RoleSuperAdmin = 0

// Principal is a verified identity resolved from a credential, independent
// of any tenant context. It is immutable for the lifetime of one resolution
// and is never persisted beyond cache and session TTLs.
type Principal struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Role      int      `json:"role"`
	TenantIDs []string `json:"tenant_ids,omitempty"`
}

// IsSuperAdmin reports whether the principal holds the super-admin tier.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// CanAccessTenant reports whether tenantID is in the principal's explicit
// grant list. Super-admins are validated against the tenant directory
// instead; this check is for regular users.
func (p *Principal) CanAccessTenant(tenantID string) bool {
	if p == nil || tenantID == "" {
		return false
	}
	return slices.Contains(p.TenantIDs, tenantID)
}

// TenantSummary is a read-only tenant projection used for switch target
// validation and UI hand-off.
type TenantSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	Locale  string `json:"locale,omitempty"`
	Region  string `json:"region,omitempty"`
	Slug    string `json:"slug"`
	Enabled bool   `json:"enabled"`
}

// IdentityProvider verifies a credential and yields the principal it
// belongs to. Implemented by the surrounding application; this module never
// sees raw credential verification.
type IdentityProvider interface {
	VerifyCredential(ctx context.Context, credential string) (*Principal, error)
}

// TenantDirectory maps principals to the tenants they may access.
type TenantDirectory interface {
	ListAccessibleTenants(ctx context.Context, p *Principal) ([]TenantSummary, error)
	IsTenantEnabled(ctx context.Context, tenantID string) (bool, error)
}
