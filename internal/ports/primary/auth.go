package primary

import (
	"context"
	"time"
)

// AuthService defines the primary port for users and bearer tokens.
type AuthService interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (*Token, error)

	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*User, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	DeleteUser(ctx context.Context, username string) error

	// EnsureBootstrapAdmin creates a user with every capability when no users exist.
	// Returns true if the user was created.
	EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error)
}

// User represents an authenticated caller.
type User struct {
	Username           string   `json:"username"`
	RuleSet            []string `json:"rule_set"`
	AssociatedEmployee string   `json:"associated_employee,omitempty"`
}

// CreateUserRequest contains parameters for registering a user.
type CreateUserRequest struct {
	Username           string   `json:"username"`
	Password           string   `json:"password"`
	RuleSet            []string `json:"rule_set"`
	AssociatedEmployee string   `json:"associated_employee,omitempty"`
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
