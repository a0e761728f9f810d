package resolver

import (
	"context"

	"auth-gateway/internal/auth"
)

// Resolver determines which internal user a federated identity belongs
// to, provisioning the user on first successful verification (JIT). It
// is the only place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (userID string, err error)
}
