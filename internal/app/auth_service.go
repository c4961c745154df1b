package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/access"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// AuthServiceImpl implements the AuthService interface.
type AuthServiceImpl struct {
	userRepo  secondary.UserRepository
	tokenRepo secondary.TokenRepository
	tokenTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService with injected dependencies.
func NewAuthService(userRepo secondary.UserRepository, tokenRepo secondary.TokenRepository, tokenTTL time.Duration, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokenTTL:  tokenTTL,
		logger:    loggerOrDiscard(logger),
		now:       time.Now,
	}
}

// Login exchanges credentials for a bearer token. Only the token's hash is stored.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*primary.Token, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if isNotFound(err) {
		return nil, apperr.Unauthorized("incorrect username or password")
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "auth.login", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("incorrect username or password")
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	now := s.now().UTC()
	expires := now.Add(s.tokenTTL)
	if err := s.tokenRepo.Create(ctx, &secondary.TokenRecord{TokenHash: hash, Username: username, ExpiresAt: expires}); err != nil {
		return nil, storeFailure(ctx, s.logger, "auth.login", username, err)
	}

	if n, err := s.tokenRepo.DeleteExpired(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "failed to purge expired tokens", "error", err)
	} else if n > 0 {
		s.logger.DebugContext(ctx, "purged expired tokens", "count", n)
	}

	return &primary.Token{AccessToken: plain, TokenType: "bearer", ExpiresAt: expires}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*primary.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("missing bearer token")
	}
	record, err := s.tokenRepo.GetByHash(ctx, hashToken(token), s.now().UTC())
	if isNotFound(err) {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "auth.authenticate", "", err)
	}

	user, err := s.userRepo.GetByUsername(ctx, record.Username)
	if isNotFound(err) {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "auth.authenticate", record.Username, err)
	}
	return recordToUser(user), nil
}

// CreateUser registers a user with a bcrypt-hashed password.
func (s *AuthServiceImpl) CreateUser(ctx context.Context, req primary.CreateUserRequest) (*primary.User, error) {
	guardCtx := access.RegisterContext{
		Username: req.Username,
		Password: req.Password,
		RuleSet:  req.RuleSet,
	}
	_, err := s.userRepo.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		guardCtx.UsernameTaken = true
	case !isNotFound(err):
		return nil, storeFailure(ctx, s.logger, "user.create", req.Username, err)
	}
	if err := access.CanRegister(guardCtx).Error(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	record := &secondary.UserRecord{
		Username:           req.Username,
		RuleSet:            req.RuleSet,
		AssociatedEmployee: req.AssociatedEmployee,
		HashedPassword:     string(hashed),
	}
	if err := s.userRepo.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "user.create", req.Username, err)
	}
	s.logger.InfoContext(ctx, "user created", "username", req.Username, "rule_set", req.RuleSet)
	return recordToUser(record), nil
}

// GetUser retrieves a user by username.
func (s *AuthServiceImpl) GetUser(ctx context.Context, username string) (*primary.User, error) {
	record, err := s.userRepo.GetByUsername(ctx, username)
	if isNotFound(err) {
		return nil, apperr.NotFound("user %s not found", username)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "user.get", username, err)
	}
	return recordToUser(record), nil
}

// DeleteUser removes a user and revokes their tokens.
func (s *AuthServiceImpl) DeleteUser(ctx context.Context, username string) error {
	err := s.userRepo.Delete(ctx, username)
	if isNotFound(err) {
		return apperr.NotFound("user %s not found", username)
	}
	if err != nil {
		return storeFailure(ctx, s.logger, "user.delete", username, err)
	}
	return nil
}

// EnsureBootstrapAdmin creates a user holding every capability when the
// store has no users yet.
func (s *AuthServiceImpl) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, storeFailure(ctx, s.logger, "user.bootstrap", username, err)
	}
	if n > 0 {
		return false, nil
	}

	rules := make([]string, len(access.AllCapabilities))
	for i, c := range access.AllCapabilities {
		rules[i] = string(c)
	}
	if _, err := s.CreateUser(ctx, primary.CreateUserRequest{Username: username, Password: password, RuleSet: rules}); err != nil {
		return false, err
	}
	return true, nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func recordToUser(r *secondary.UserRecord) *primary.User {
	rules := r.RuleSet
	if rules == nil {
		rules = []string{}
	}
	return &primary.User{Username: r.Username, RuleSet: rules, AssociatedEmployee: r.AssociatedEmployee}
}

// Ensure AuthServiceImpl implements the interface.
var _ primary.AuthService = (*AuthServiceImpl)(nil)
