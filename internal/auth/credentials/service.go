package credentials

import (
	"context"
	"database/sql"
	"errors"

	"auth-gateway/internal/db"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("account already exists")
)

// User is the subset of the user record the auth flows need.
type User struct {
	ID    string
	Email string
}

// Service handles password-credential registration and authentication.
type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Register creates a user with a password hash. A user already holding
// credentials (or a federation-only account with the same email) is a
// conflict; registration never overwrites an existing account.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (*User, error) {

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE LOWER(email) = LOWER($1)
		)
	`, email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	var userID uuid.UUID
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, email_verified)
		VALUES ($1, $2, false)
		RETURNING id
	`, email, hash).Scan(&userID)
	if err != nil {
		return nil, err
	}

	return &User{ID: userID.String(), Email: email}, nil
}

// Authenticate verifies an email/password pair. Unknown email, wrong
// password, and federation-only account (null password hash) all return
// ErrInvalidCredentials so responses cannot distinguish them.
func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*User, error) {

	var (
		userID       uuid.UUID
		storedEmail  string
		passwordHash sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&userID, &storedEmail, &passwordHash)
	if err != nil {
		// hide whether user exists or not
		return nil, ErrInvalidCredentials
	}

	if !passwordHash.Valid {
		// federation-only account
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(passwordHash.String, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &User{ID: userID.String(), Email: storedEmail}, nil
}
