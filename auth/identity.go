package auth

import (
	"context"
	"slices"
	"time"
)

// Authentication methods recorded on an Identity.
const (
	MethodJWT       = "jwt"
	MethodAPIKey    = "api_key"
	MethodAnonymous = "anonymous"
)

// Identity is the authenticated caller of one API request.
type Identity struct {
	Principal string
	Roles     []string
	Method    string

	// KeyID is the API key id, or the JWT "jti" when present.
	KeyID     string
	ExpiresAt time.Time
}

// Anonymous is the identity attached when auth is disabled.
func Anonymous() *Identity {
	return &Identity{Principal: MethodAnonymous, Method: MethodAnonymous}
}

// HasRole reports whether id carries role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// IsAnonymous reports whether id came from disabled auth.
func (id *Identity) IsAnonymous() bool {
	return id.Method == MethodAnonymous
}

type identityKey struct{}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached by Middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
