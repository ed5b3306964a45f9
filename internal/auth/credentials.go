package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/cliffauth/internal/config"
	"github.com/mrlokans/cliffauth/internal/database/users"
	"github.com/mrlokans/cliffauth/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*entities.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	RecordLoginFailure(ctx context.Context, id string) error
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id, tokenHash string) error
	ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, at time.Time) (bool, error)
	RevokeSessions(ctx context.Context, id string, at time.Time) error
	SetRole(ctx context.Context, email string, role entities.UserRole) (*entities.User, error)
	List(ctx context.Context, limit, offset int) ([]entities.User, int64, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// CredentialStore owns user records: it validates input, hashes secrets
// before they reach the repository, and manages reset tokens.
type CredentialStore struct {
	repo     UserRepository
	hasher   PasswordHasher
	policy   PasswordPolicy
	resetTTL time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore creates a credential store over the given repository.
func NewCredentialStore(repo UserRepository, hasher PasswordHasher, cfg config.Auth) *CredentialStore {
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = config.DefaultResetTokenTTL
	}
	return &CredentialStore{
		repo:     repo,
		hasher:   hasher,
		policy:   PasswordPolicy{MinLength: cfg.MinPasswordLength},
		resetTTL: resetTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ResetTokenTTL returns how long a new reset token stays valid.
func (s *CredentialStore) ResetTokenTTL() time.Duration {
	return s.resetTTL
}

// CreateUser validates and registers a new user with the default role.
func (s *CredentialStore) CreateUser(ctx context.Context, name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = users.NormalizeEmail(email)

	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// Validate email format and length (RFC 5321 limit is 254)
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if err := s.policy.Check(password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, storeError("check existing user", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         entities.UserRoleUser,
	}

	// A concurrent signup can still win between the check and the insert;
	// the repository reports that as the same duplicate error.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeError("create user", err)
	}

	return user, nil
}

// FindByEmail looks up a user by email, ignoring case.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError("find user by email", err)
	}
	return user, nil
}

// FindByID looks up a user by identifier.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*entities.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("find user by id", err)
	}
	return user, nil
}

// VerifyCredentials returns the user matching email and password. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials, and unknown
// emails still pay for a hash comparison.
func (s *CredentialStore) VerifyCredentials(ctx context.Context, email, password string) (*entities.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.hasher.Verify(password, s.dummyDigest())
			return nil, ErrInvalidCredentials
		}
		return nil, storeError("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		if err := s.repo.RecordLoginFailure(ctx, user.ID); err != nil {
			log.Printf("[AUTH] Failed to record login failure for user %s: %v", user.ID, err)
		}
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		log.Printf("[AUTH] Failed to record login for user %s: %v", user.ID, err)
	}
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now

	return user, nil
}

// SetPasswordResetToken generates a reset token for the user, stores only
// its hash with an expiry, and returns the plaintext for delivery.
func (s *CredentialStore) SetPasswordResetToken(ctx context.Context, user *entities.User) (string, error) {
	plaintext, hash, err := GenerateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.resetTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return "", lookupError("save reset token", err)
	}

	user.PasswordResetTokenHash = &hash
	user.PasswordResetExpiresAt = &expiresAt

	return plaintext, nil
}

// ConsumeResetToken sets a new password for the holder of a valid reset
// token and clears the token. Unknown, expired and already-used tokens all
// return ErrInvalidOrExpiredToken.
func (s *CredentialStore) ConsumeResetToken(ctx context.Context, token, newPassword string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	if err := s.policy.Check(newPassword); err != nil {
		return nil, err
	}

	tokenHash := HashToken(token)
	user, err := s.repo.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, storeError("find reset token", err)
	}

	now := s.now()
	if user.PasswordResetExpiresAt == nil || !user.PasswordResetExpiresAt.After(now) {
		if err := s.repo.ClearResetToken(ctx, user.ID, tokenHash); err != nil {
			log.Printf("[AUTH] Failed to clear expired reset token for user %s: %v", user.ID, err)
		}
		return nil, ErrInvalidOrExpiredToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Token iat claims have second precision; truncating keeps tokens
	// issued right after the reset valid.
	revokedAt := now.Truncate(time.Second)
	consumed, err := s.repo.ConsumeResetToken(ctx, user.ID, tokenHash, passwordHash, revokedAt)
	if err != nil {
		return nil, storeError("consume reset token", err)
	}
	if !consumed {
		return nil, ErrInvalidOrExpiredToken
	}

	user.PasswordHash = passwordHash
	user.PasswordResetTokenHash = nil
	user.PasswordResetExpiresAt = nil
	user.SessionsRevokedAt = &revokedAt
	user.FailedLoginAttempts = 0

	return user, nil
}

// RevokeAllSessions invalidates every bearer token issued to the user so far.
func (s *CredentialStore) RevokeAllSessions(ctx context.Context, user *entities.User) error {
	revokedAt := s.now().Truncate(time.Second)
	if err := s.repo.RevokeSessions(ctx, user.ID, revokedAt); err != nil {
		return lookupError("revoke sessions", err)
	}
	user.SessionsRevokedAt = &revokedAt
	return nil
}

// SetRole changes the role of the user registered under email.
func (s *CredentialStore) SetRole(ctx context.Context, email string, role entities.UserRole) (*entities.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	user, err := s.repo.SetRole(ctx, email, role)
	if err != nil {
		return nil, lookupError("set role", err)
	}
	return user, nil
}

// ListUsers returns a page of users and the total count.
func (s *CredentialStore) ListUsers(ctx context.Context, limit, offset int) ([]entities.User, int64, error) {
	list, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, storeError("list users", err)
	}
	return list, total, nil
}

// PurgeExpiredResetTokens clears every reset token past its expiry.
func (s *CredentialStore) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	purged, err := s.repo.PurgeExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, storeError("purge reset tokens", err)
	}
	return purged, nil
}

// dummyDigest is compared against when the email is unknown, so that
// lookups for missing accounts take as long as a real mismatch.
func (s *CredentialStore) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("cliffauth-timing-equalizer")
		if err != nil {
			log.Printf("[AUTH] Failed to prepare dummy hash: %v", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func lookupError(op string, err error) error {
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	return storeError(op, err)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
