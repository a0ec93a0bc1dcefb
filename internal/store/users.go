package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoGoogleToken is returned when a user has not connected Google Calendar.
var ErrNoGoogleToken = errors.New("no google token stored for user")

// Repository persists users, refresh tokens, and per-user Google OAuth
// tokens in Postgres. Timetable data itself is never stored.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertUser ensures a user record exists for the email and returns its id.
func (r *Repository) UpsertUser(ctx context.Context, email string, name *string) (string, error) {
	if email == "" {
		return "", errors.New("email required")
	}
	id := uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = NOW()
		RETURNING id
	`, id, email, name)
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// SaveGoogleToken upserts the user's Google OAuth token. The refresh token is
// only overwritten when Google returned a new one.
func (r *Repository) SaveGoogleToken(ctx context.Context, userID string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO google_tokens (user_id, access_token, refresh_token, token_type, expiry)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), google_tokens.refresh_token),
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()
	`, userID, tok.AccessToken, tok.RefreshToken, tok.TokenType, tok.Expiry)
	return err
}

// GoogleToken returns the stored token for a user, or ErrNoGoogleToken.
func (r *Repository) GoogleToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, expiry
		FROM google_tokens WHERE user_id = $1
	`, userID)
	var tok oauth2.Token
	if err := row.Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &tok.Expiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoGoogleToken
		}
		return nil, err
	}
	return &tok, nil
}
