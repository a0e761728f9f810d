package resolver

import (
	"context"
	"database/sql"
	"errors"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/db"

	"github.com/google/uuid"
)

// DBResolver resolves federated identities against the database.
// Resolution order: existing (provider, subject) link, then email-based
// linking to an existing user, then JIT creation of user + link.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	// 1. Existing federated account. Runs before any email requirement:
	// some providers (apple) omit the email claim on returning logins,
	// and an already-linked user needs no email to resolve.
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM federated_accounts
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		return userID.String(), nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	// Email is only needed from here on, to link or to provision.
	if identity.Email == "" {
		return "", errors.New("identity missing email")
	}

	// 2. Existing user with the same email: link the new provider
	err = r.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, identity.Email).Scan(&userID)

	if err == nil {
		if err := r.link(ctx, userID, identity); err != nil {
			return "", err
		}
		return userID.String(), nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	// 3. JIT provisioning: new user (no password hash) + link
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, email_verified)
		VALUES ($1, NULL, $2)
		RETURNING id
	`,
		identity.Email,
		identity.EmailVerified,
	).Scan(&userID)
	if err != nil {
		return "", err
	}

	if err := r.link(ctx, userID, identity); err != nil {
		return "", err
	}

	return userID.String(), nil
}

func (r *DBResolver) link(ctx context.Context, userID uuid.UUID, identity *auth.Identity) error {
	// (provider, provider_user_id) is globally unique; a concurrent login
	// racing us to the insert is fine to treat as already linked.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO federated_accounts (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_user_id) DO NOTHING
	`,
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)
	return err
}
