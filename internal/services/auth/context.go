package auth

import "context"

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

const RoleModerator = "moderator"

type Identity struct {
	ProfileID int64
	Role      string
}

func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
