package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/logger"

	"golang.org/x/oauth2"
)

const defaultGraphURL = "https://graph.facebook.com"

// Provider verifies Facebook access tokens by asking the Graph API who
// the token belongs to. The outbound call carries its own bounded
// timeout, composed under the caller's context.
type Provider struct {
	graphURL string
	timeout  time.Duration
}

func New(graphURL string) *Provider {
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	return &Provider{
		graphURL: graphURL,
		timeout:  5 * time.Second,
	}
}

func (p *Provider) Kind() provider.Kind {
	return provider.KindFacebook
}

func (p *Provider) Verify(ctx context.Context, credential string) (*auth.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: credential},
	))

	endpoint := fmt.Sprintf("%s/me?%s", p.graphURL, url.Values{
		"fields": {"id,email"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindFacebook, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindFacebook, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindFacebook, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("facebook graph rejected token", map[string]any{
			"status": resp.StatusCode,
		})
		return nil, &provider.VerificationError{
			Provider: provider.KindFacebook,
			Err:      fmt.Errorf("graph api status %d", resp.StatusCode),
		}
	}

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, &provider.VerificationError{Provider: provider.KindFacebook, Err: err}
	}

	if profile.ID == "" {
		return nil, &provider.VerificationError{
			Provider: provider.KindFacebook,
			Err:      errors.New("graph api response missing id"),
		}
	}

	return &auth.Identity{
		Provider:       string(provider.KindFacebook),
		ProviderUserID: profile.ID,
		Email:          profile.Email,
		// Facebook only returns emails it has confirmed.
		EmailVerified: profile.Email != "",
	}, nil
}
