package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionDuration is the length of time a session remains valid.
const SessionDuration = 7 * 24 * time.Hour

// HasSecret reports whether the shared secret has been configured.
func (d *Database) HasSecret(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// SetSecret stores the bcrypt hash of the shared secret, replacing any
// previous one and invalidating all sessions.
func (d *Database) SetSecret(ctx context.Context, secret string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_secret", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO users (secret_hash) VALUES (?)", string(hash),
	); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	err = tx.Commit()
	return err
}

// ValidateSecret checks the shared secret and returns the user on success.
func (d *Database) ValidateSecret(ctx context.Context, secret string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_secret", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var createdAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id, secret_hash, created_at FROM users LIMIT 1",
	).Scan(&user.ID, &user.SecretHash, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("no secret configured: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)

	if err = bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(secret)); err != nil {
		return nil, errors.New("invalid secret")
	}
	return &user, nil
}

// CreateSession creates a new session for a user and returns its token.
func (d *Database) CreateSession(ctx context.Context, userID int64) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_session", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	_, err = d.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, token, time.Now().Add(SessionDuration).Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// GetSession returns the session for a token if it exists and is unexpired.
func (d *Database) GetSession(ctx context.Context, token string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s Session
	var expiresAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at FROM sessions WHERE token = ?",
		token,
	).Scan(&s.ID, &s.UserID, &s.Token, &expiresAt)
	if err != nil {
		return nil, err
	}

	s.ExpiresAt = time.Unix(expiresAt, 0)
	if time.Now().After(s.ExpiresAt) {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

// DeleteSession removes a session by token.
func (d *Database) DeleteSession(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes expired sessions and returns how many were
// deleted.
func (d *Database) CleanExpiredSessions(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clean_sessions", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
