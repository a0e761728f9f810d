package middleware

import "context"

// Mechanism says how a request's identity was established.
type Mechanism string

const (
	MechanismToken   Mechanism = "token"
	MechanismSession Mechanism = "session"
)

// Identity is the request-scoped authenticated identity. Absence means
// the request is anonymous, which many paths tolerate; enforcement is
// each handler's responsibility.
type Identity struct {
	UserID    string
	Email     string
	Mechanism Mechanism
}

// unexported, collision-proof context keys
type identityContextKeyType struct{}
type requestIDContextKeyType struct{}

var (
	identityKey  = identityContextKeyType{}
	requestIDKey = requestIDContextKeyType{}
)

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// RequestIDFromContext extracts the request correlation id.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
