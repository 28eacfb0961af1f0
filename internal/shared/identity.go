package shared

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Identity is the verified caller as asserted by the access token
type Identity struct {
	MemberID uuid.UUID
	Role     string
}

// Verified reports whether the identity carries a member id and a role
func (i Identity) Verified() bool {
	return i.MemberID != uuid.Nil && i.Role != ""
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type identityKey struct{}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, if any
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
