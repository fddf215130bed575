package auth

import (
	"context"

	"github.com/straye-as/commission-api/internal/domain"
)

// Authentication methods
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

// Principal is the authenticated caller of a request
type Principal struct {
	// UserID is zero for API key callers
	UserID      int64
	Permissions []string
	Method      string
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext extracts the principal from the context
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// HasPermission reports whether the principal holds permission.
// API key callers are system callers and hold every permission.
func (p *Principal) HasPermission(permission string) bool {
	if p.Method == MethodAPIKey {
		return true
	}
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal may call destructive endpoints
func (p *Principal) IsAdmin() bool {
	return p.HasPermission(domain.PermissionAdmin)
}
