package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/feecc/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	rules, err := encodeJSON(nonNilStrings(user.RuleSet))
	if err != nil {
		return err
	}
	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (username, rule_set, associated_employee, hashed_password) VALUES (?, ?, ?, ?)`,
		user.Username, rules, nullString(user.AssociatedEmployee), user.HashedPassword,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*secondary.UserRecord, error) {
	var (
		rules    string
		employee sql.NullString
	)
	user := &secondary.UserRecord{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT username, rule_set, associated_employee, hashed_password FROM users WHERE username = ?`, username,
	).Scan(&user.Username, &rules, &employee, &user.HashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.AssociatedEmployee = employee.String
	if user.RuleSet, err = decodeStrings(rules); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user and all of their tokens.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	q := conn(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM tokens WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result, "user", username)
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// TokenRepository implements secondary.TokenRepository with SQLite.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite bearer token repository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create persists a token hash.
func (r *TokenRepository) Create(ctx context.Context, token *secondary.TokenRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO tokens (token_hash, username, expires_at) VALUES (?, ?, ?)`,
		token.TokenHash, token.Username, formatTime(token.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// GetByHash retrieves an unexpired token by its hash.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string, now time.Time) (*secondary.TokenRecord, error) {
	var expiresAt string
	token := &secondary.TokenRecord{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT token_hash, username, expires_at FROM tokens WHERE token_hash = ? AND expires_at > ?`,
		hash, formatTime(now),
	).Scan(&token.TokenHash, &token.Username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if token.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return token, nil
}

// DeleteExpired removes tokens that expired before now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

var (
	_ secondary.UserRepository  = (*UserRepository)(nil)
	_ secondary.TokenRepository = (*TokenRepository)(nil)
)
