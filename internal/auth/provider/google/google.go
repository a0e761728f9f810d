package google

import (
	"context"
	"errors"
	"fmt"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const issuer = "https://accounts.google.com"

// Provider verifies Google ID tokens against Google's published key set.
type Provider struct {
	verifier *oidc.IDTokenVerifier
}

func New(ctx context.Context, clientID string) (*Provider, error) {
	if clientID == "" {
		return nil, errors.New("google provider missing client id")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return &Provider{
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}, nil
}

func (p *Provider) Kind() provider.Kind {
	return provider.KindGoogle
}

// Verify checks the ID token's signature, issuer, audience, and expiry,
// then extracts the stable subject and email.
func (p *Provider) Verify(ctx context.Context, credential string) (*auth.Identity, error) {
	idToken, err := p.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindGoogle, Err: err}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindGoogle, Err: err}
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, &provider.VerificationError{
			Provider: provider.KindGoogle,
			Err:      errors.New("id_token missing required claims"),
		}
	}

	logger.Info("google oidc verified", map[string]any{
		"issuer":         idToken.Issuer,
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       string(provider.KindGoogle),
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
	}, nil
}
