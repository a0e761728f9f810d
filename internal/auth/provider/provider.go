package provider

import (
	"context"
	"fmt"

	"auth-gateway/internal/auth"
)

// Kind enumerates the supported federated identity providers. The set is
// closed: adding a provider means adding a constant, an implementation,
// and a case in Set.ForKind.
type Kind string

const (
	KindGoogle   Kind = "google"
	KindApple    Kind = "apple"
	KindFacebook Kind = "facebook"
)

// ParseKind maps a request path segment to a provider Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGoogle:
		return KindGoogle, nil
	case KindApple:
		return KindApple, nil
	case KindFacebook:
		return KindFacebook, nil
	default:
		return "", fmt.Errorf("provider: unsupported provider %q", s)
	}
}

// Verifier validates a third-party credential and extracts a stable
// subject identifier and email. Implementations return identity facts
// only and must not perform user creation, linking, or session
// management. Verification runs once per login event, never on the
// per-request hot path.
type Verifier interface {
	Kind() Kind
	Verify(ctx context.Context, credential string) (*auth.Identity, error)
}

// VerificationError wraps a provider failure: signature mismatch, key
// fetch failure, or claim mismatch (audience/issuer).
type VerificationError struct {
	Provider Kind
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("provider %s: verification failed: %v", e.Provider, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Set holds one verifier per supported provider.
type Set struct {
	Google   Verifier
	Apple    Verifier
	Facebook Verifier
}

// ForKind selects the verifier for a kind. The switch is exhaustive over
// the closed Kind set.
func (s *Set) ForKind(k Kind) (Verifier, error) {
	switch k {
	case KindGoogle:
		return s.require(s.Google, k)
	case KindApple:
		return s.require(s.Apple, k)
	case KindFacebook:
		return s.require(s.Facebook, k)
	default:
		return nil, fmt.Errorf("provider: unsupported provider %q", k)
	}
}

func (s *Set) require(v Verifier, k Kind) (Verifier, error) {
	if v == nil {
		return nil, fmt.Errorf("provider: %s not configured", k)
	}
	return v, nil
}
