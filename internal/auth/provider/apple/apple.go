package apple

import (
	"context"
	"errors"
	"fmt"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const issuer = "https://appleid.apple.com"

// Provider verifies Apple identity tokens. Signature verification runs
// against Apple's published JWKS via OIDC discovery; claims are never
// trusted without it.
type Provider struct {
	verifier *oidc.IDTokenVerifier
}

func New(ctx context.Context, clientID string) (*Provider, error) {
	if clientID == "" {
		return nil, errors.New("apple provider missing client id")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init apple oidc provider: %w", err)
	}

	return &Provider{
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}, nil
}

func (p *Provider) Kind() provider.Kind {
	return provider.KindApple
}

func (p *Provider) Verify(ctx context.Context, credential string) (*auth.Identity, error) {
	idToken, err := p.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindApple, Err: err}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified any    `json:"email_verified"` // Apple sends bool or "true"
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindApple, Err: err}
	}

	if claims.Subject == "" {
		return nil, &provider.VerificationError{
			Provider: provider.KindApple,
			Err:      errors.New("identity token missing sub claim"),
		}
	}

	logger.Info("apple identity token verified", map[string]any{
		"issuer":      idToken.Issuer,
		"expiry_unix": idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       string(provider.KindApple),
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  emailVerified(claims.EmailVerified),
	}, nil
}

func emailVerified(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}
