package http

import "context"

type ctxKey int

const (
	profileIDKey ctxKey = iota
	requestIDKey
	identityKey
)

// Identity is what the storefront knows about the signed-in user from the
// forwarded bearer token.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

func getProfileID(ctx context.Context) string {
	id, _ := ctx.Value(profileIDKey).(string)
	return id
}

func getRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func getIdentity(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
