package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mrlokans/cliffauth/internal/entities"
	"github.com/mrlokans/cliffauth/internal/mailer"
)

// AuditLogger records authentication events. Implementations must not
// block the request.
type AuditLogger interface {
	LogAuth(userID string, action entities.AuditAction, ipAddr, userAgent string, success bool)
}

// Notifier is told about account changes that warrant a follow-up to the
// user. The password-changed notice never carries a secret, so it can be
// queued and retried.
type Notifier interface {
	PasswordChanged(ctx context.Context, user *entities.User) error
}

// RequestMeta describes the client behind an operation, for auditing.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// SignupInput holds the fields of a registration request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the fields of a login request.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	User  *entities.User
	Token string
}

// ForgotResult reports what ForgotPassword did. It is meant for Go callers
// and tests; the HTTP layer answers every request identically.
type ForgotResult struct {
	ResetLink string // empty for unknown emails
	Delivered bool
}

// ServiceOptions holds the optional collaborators of Service.
type ServiceOptions struct {
	Mailer       mailer.Sender
	Audit        AuditLogger
	Notifier     Notifier
	ResetURLBase string
}

// Service runs the authentication flows: signup, login, logout, password
// reset and request authorization.
type Service struct {
	store        *CredentialStore
	tokens       *TokenService
	mailer       mailer.Sender
	audit        AuditLogger
	notifier     Notifier
	resetURLBase string
}

// NewService creates the authentication service.
func NewService(store *CredentialStore, tokens *TokenService, opts ServiceOptions) *Service {
	s := &Service{
		store:        store,
		tokens:       tokens,
		mailer:       opts.Mailer,
		audit:        opts.Audit,
		notifier:     opts.Notifier,
		resetURLBase: strings.TrimRight(opts.ResetURLBase, "/"),
	}
	if s.mailer == nil {
		s.mailer = mailer.LogSender{}
	}
	if s.audit == nil {
		s.audit = nopAudit{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

// Store exposes the credential store for administrative tooling.
func (s *Service) Store() *CredentialStore {
	return s.store
}

// Signup registers a user and signs them in.
func (s *Service) Signup(ctx context.Context, in SignupInput, meta RequestMeta) (*AuthResult, error) {
	user, err := s.store.CreateUser(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		s.audit.LogAuth("", entities.AuditActionSignup, meta.IPAddress, meta.UserAgent, false)
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.audit.LogAuth(user.ID, entities.AuditActionSignup, meta.IPAddress, meta.UserAgent, true)
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token. Every credential failure
// is reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput, meta RequestMeta) (*AuthResult, error) {
	user, err := s.store.VerifyCredentials(ctx, in.Email, in.Password)
	if err != nil {
		s.audit.LogAuth("", entities.AuditActionLogin, meta.IPAddress, meta.UserAgent, false)
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.audit.LogAuth(user.ID, entities.AuditActionLogin, meta.IPAddress, meta.UserAgent, true)
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token. Repeating it, or presenting a token
// that has already expired, still succeeds. Tokens that are malformed or
// not signed by us yield ErrUnauthenticated.
func (s *Service) Logout(ctx context.Context, token string, meta RequestMeta) error {
	claims, err := s.tokens.Revoke(ctx, token)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	s.audit.LogAuth(claims.Subject, entities.AuditActionLogout, meta.IPAddress, meta.UserAgent, true)
	return nil
}

// LogoutAll ends every session of the user, including the current one.
func (s *Service) LogoutAll(ctx context.Context, user *entities.User, current string, meta RequestMeta) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if err := s.store.RevokeAllSessions(ctx, user); err != nil {
		return err
	}

	// The revocation cut-off has second precision; the presented token is
	// denylisted so it cannot outlive the call.
	if current != "" {
		if _, err := s.tokens.Revoke(ctx, current); err != nil && errors.Is(err, ErrStoreUnavailable) {
			return err
		}
	}

	s.audit.LogAuth(user.ID, entities.AuditActionLogoutAll, meta.IPAddress, meta.UserAgent, true)
	return nil
}

// ForgotPassword issues a reset token for the account and mails the link.
// The outcome is the same for unknown emails and for delivery failures,
// so callers cannot tell which addresses are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string, meta RequestMeta) (*ForgotResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.audit.LogAuth("", entities.AuditActionResetRequested, meta.IPAddress, meta.UserAgent, false)
			return &ForgotResult{}, nil
		}
		return nil, err
	}

	token, err := s.store.SetPasswordResetToken(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &ForgotResult{ResetLink: s.resetURLBase + "/" + token}
	msg := mailer.PasswordReset(user.Email, user.Name, result.ResetLink, s.store.ResetTokenTTL())
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("[AUTH] Failed to deliver password reset email for user %s: %v", user.ID, err)
	} else {
		result.Delivered = true
	}

	s.audit.LogAuth(user.ID, entities.AuditActionResetRequested, meta.IPAddress, meta.UserAgent, result.Delivered)
	return result, nil
}

// ResetPassword sets a new password using a reset token. All sessions
// issued before the reset stop being accepted.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string, meta RequestMeta) (*entities.User, error) {
	user, err := s.store.ConsumeResetToken(ctx, token, newPassword)
	if err != nil {
		s.audit.LogAuth("", entities.AuditActionPasswordReset, meta.IPAddress, meta.UserAgent, false)
		return nil, err
	}

	if err := s.notifier.PasswordChanged(ctx, user); err != nil {
		log.Printf("[AUTH] Failed to queue password changed notice for user %s: %v", user.ID, err)
	}

	s.audit.LogAuth(user.ID, entities.AuditActionPasswordReset, meta.IPAddress, meta.UserAgent, true)
	return user, nil
}

// Authorize resolves a bearer token to its user. Every rejection wraps
// ErrUnauthenticated around the specific cause, except store failures
// which are returned as ErrStoreUnavailable.
func (s *Service) Authorize(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.tokens.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, err
	}

	if user.SessionsRevokedAt != nil && claims.IssuedAt.Time.Before(*user.SessionsRevokedAt) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenRevoked)
	}

	return user, nil
}

// ListUsers returns a page of users to an admin actor.
func (s *Service) ListUsers(ctx context.Context, actor *entities.User, limit, offset int, meta RequestMeta) ([]entities.User, int64, error) {
	if err := RequireRole(actor, entities.UserRoleAdmin); err != nil {
		if errors.Is(err, ErrForbidden) {
			s.audit.LogAuth(actor.ID, entities.AuditActionRoleDenied, meta.IPAddress, meta.UserAgent, false)
		}
		return nil, 0, err
	}
	return s.store.ListUsers(ctx, limit, offset)
}

type nopAudit struct{}

func (nopAudit) LogAuth(string, entities.AuditAction, string, string, bool) {}

type nopNotifier struct{}

func (nopNotifier) PasswordChanged(context.Context, *entities.User) error { return nil }
