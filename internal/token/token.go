package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// payload, expiry, and revocation. Callers must not be able to tell these
// apart, so the response never leaks which check failed.
var ErrInvalidToken = errors.New("token: invalid token")

const revokedKeyPrefix = "revoked:"

// Claims is the decoded claim set of a bearer token.
type Claims struct {
	Subject string
	JTI     string
	Email   string
	Scope   string
	Expiry  time.Time
}

// Service issues, decodes, and revokes HMAC-signed bearer tokens.
// Tokens are self-contained; only revocation needs the key-value store.
type Service struct {
	secret []byte
	client *goredis.Client
}

func NewService(secret []byte, client *goredis.Client) *Service {
	return &Service{secret: secret, client: client}
}

// Issue signs a token carrying the given subject for ttl. A fresh uuid
// jti is injected unless the caller supplies one; exp is always set by
// the service. The caller's claims map is not mutated.
func (s *Service) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	mapped := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		mapped[k] = v
	}

	if _, ok := mapped["jti"]; !ok {
		mapped["jti"] = uuid.NewString()
	}
	mapped["exp"] = jwt.NewNumericDate(time.Now().Add(ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mapped)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry, then checks the revocation list.
// Every failure mode returns ErrInvalidToken.
func (s *Service) Decode(ctx context.Context, raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mapped, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims, err := fromMapClaims(mapped)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, fmt.Errorf("token: revocation check: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Revoke writes the jti into the revocation list with a TTL equal to the
// token's remaining lifetime, so the entry self-expires exactly when the
// token would have anyway.
func (s *Service) Revoke(ctx context.Context, jti string, remaining time.Duration) error {
	if jti == "" {
		return errors.New("token: revoke: empty jti")
	}
	if remaining <= 0 {
		return nil // already expired, nothing to track
	}
	return s.client.Set(ctx, revokedKeyPrefix+jti, "1", remaining).Err()
}

// IsRevoked reports whether the jti is on the revocation list.
func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func fromMapClaims(m jwt.MapClaims) (*Claims, error) {
	sub, _ := m["sub"].(string)
	jti, _ := m["jti"].(string)
	if sub == "" || jti == "" {
		return nil, errors.New("missing sub or jti")
	}

	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("missing exp")
	}

	email, _ := m["email"].(string)
	scope, _ := m["scope"].(string)

	return &Claims{
		Subject: sub,
		JTI:     jti,
		Email:   email,
		Scope:   scope,
		Expiry:  exp.Time,
	}, nil
}
