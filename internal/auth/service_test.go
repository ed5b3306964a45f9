package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cliffauth/internal/entities"
)

var testMeta = RequestMeta{IPAddress: "127.0.0.1", UserAgent: "test"}

func signupAda(t *testing.T, env *testEnv) *AuthResult {
	t.Helper()
	result, err := env.service.Signup(context.Background(), SignupInput{
		Name:     "Ada",
		Email:    "Ada@X.io",
		Password: "secret1",
	}, testMeta)
	require.NoError(t, err)
	return result
}

func TestService_Signup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signupAda(t, env)
	assert.Equal(t, "ada@x.io", result.User.Email)
	assert.Equal(t, entities.UserRoleUser, result.User.Role)
	assert.NotEmpty(t, result.Token)

	user, err := env.service.Authorize(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
	assert.True(t, env.audit.Has(entities.AuditActionSignup, true))

	_, err = env.service.Signup(ctx, SignupInput{Name: "Ada", Email: "ada@x.io", Password: "other12"}, testMeta)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.True(t, env.audit.Has(entities.AuditActionSignup, false))
}

func TestService_Signup_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	inputs := []SignupInput{
		{Email: "ada@x.io", Password: "secret1"},
		{Name: "Ada", Password: "secret1"},
		{Name: "Ada", Email: "ada@x.io"},
	}
	for _, in := range inputs {
		_, err := env.service.Signup(context.Background(), in, testMeta)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signed := signupAda(t, env)

	result, err := env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "secret1"}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, result.User.ID)
	assert.NotEqual(t, signed.Token, result.Token)

	_, err = env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "wrong"}, testMeta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, unknownErr := env.service.Login(ctx, LoginInput{Email: "nobody@x.io", Password: "secret1"}, testMeta)
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.Equal(t, err.Error(), unknownErr.Error(), "unknown email and wrong password are indistinguishable")
	assert.True(t, env.audit.Has(entities.AuditActionLogin, false))
}

func TestService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := signupAda(t, env)

	require.NoError(t, env.service.Logout(ctx, result.Token, testMeta))

	_, err := env.service.Authorize(ctx, result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Idempotent
	assert.NoError(t, env.service.Logout(ctx, result.Token, testMeta))
	assert.True(t, env.audit.Has(entities.AuditActionLogout, true))
}

func TestService_Logout_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.Logout(context.Background(), "garbage", testMeta)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = env.service.Logout(context.Background(), "", testMeta)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_Logout_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	result := signupAda(t, env)

	env.clock.Advance(8 * 24 * time.Hour)
	assert.NoError(t, env.service.Logout(context.Background(), result.Token, testMeta))
}

func TestService_LogoutAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := signupAda(t, env)
	second, err := env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "secret1"}, testMeta)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Second)
	require.NoError(t, env.service.LogoutAll(ctx, first.User, "", testMeta))

	for _, token := range []string{first.Token, second.Token} {
		_, err := env.service.Authorize(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}

	fresh, err := env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "secret1"}, testMeta)
	require.NoError(t, err)
	_, err = env.service.Authorize(ctx, fresh.Token)
	assert.NoError(t, err, "tokens issued after logout-all are accepted")

	assert.ErrorIs(t, env.service.LogoutAll(ctx, nil, "", testMeta), ErrUnauthenticated)
}

func TestService_Authorize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := signupAda(t, env)

	user, err := env.service.Authorize(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.io", user.Email)

	_, err = env.service.Authorize(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Well-signed token for a user that does not exist
	orphan, err := env.tokens.Issue("no-such-user")
	require.NoError(t, err)
	_, err = env.service.Authorize(ctx, orphan)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	env.clock.Advance(7*24*time.Hour + time.Second)
	_, err = env.service.Authorize(ctx, result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_ForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signed := signupAda(t, env)

	forgot, err := env.service.ForgotPassword(ctx, "ADA@x.io", testMeta)
	require.NoError(t, err)
	assert.True(t, forgot.Delivered)
	require.True(t, strings.HasPrefix(forgot.ResetLink, "http://localhost:8188/api/auth/reset-password/"))
	token := strings.TrimPrefix(forgot.ResetLink, "http://localhost:8188/api/auth/reset-password/")
	assert.Len(t, token, 64)

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@x.io", sent[0].To)
	assert.Contains(t, sent[0].Body, forgot.ResetLink)
	assert.Contains(t, sent[0].Body, "10 minutes")

	env.clock.Advance(2 * time.Second)
	user, err := env.service.ResetPassword(ctx, token, "n3wpass", testMeta)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, user.ID)
	assert.Equal(t, []string{user.ID}, env.notifier.changed)

	_, err = env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "secret1"}, testMeta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	fresh, err := env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "n3wpass"}, testMeta)
	require.NoError(t, err)

	// Sessions from before the reset are gone, new ones work
	_, err = env.service.Authorize(ctx, signed.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.service.Authorize(ctx, fresh.Token)
	assert.NoError(t, err)

	_, err = env.service.ResetPassword(ctx, token, "an0ther", testMeta)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.True(t, env.audit.Has(entities.AuditActionPasswordReset, false))
}

func TestService_ResetPassword_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signupAda(t, env)

	forgot, err := env.service.ForgotPassword(ctx, "ada@x.io", testMeta)
	require.NoError(t, err)
	token := forgot.ResetLink[strings.LastIndex(forgot.ResetLink, "/")+1:]

	env.clock.Advance(11 * time.Minute)
	_, err = env.service.ResetPassword(ctx, token, "n3wpass", testMeta)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = env.service.Login(ctx, LoginInput{Email: "ada@x.io", Password: "secret1"}, testMeta)
	assert.NoError(t, err)
	assert.Empty(t, env.notifier.changed)
}

func TestService_ForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.service.ForgotPassword(context.Background(), "nobody@x.io", testMeta)
	require.NoError(t, err)
	assert.Empty(t, result.ResetLink)
	assert.Empty(t, env.mailer.Sent())
}

func TestService_ForgotPassword_MissingEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.ForgotPassword(context.Background(), "  ", testMeta)
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestService_ForgotPassword_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	signupAda(t, env)
	env.mailer.err = errors.New("smtp down")

	result, err := env.service.ForgotPassword(context.Background(), "ada@x.io", testMeta)
	require.NoError(t, err, "delivery failures are not surfaced")
	assert.False(t, result.Delivered)
	assert.True(t, env.audit.Has(entities.AuditActionResetRequested, false))
}

func TestService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := signupAda(t, env)

	_, _, err := env.service.ListUsers(ctx, ada.User, 10, 0, testMeta)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, env.audit.Has(entities.AuditActionRoleDenied, false))

	admin, err := env.store.SetRole(ctx, "ada@x.io", entities.UserRoleAdmin)
	require.NoError(t, err)

	list, total, err := env.service.ListUsers(ctx, admin, 10, 0, testMeta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	_, _, err = env.service.ListUsers(ctx, nil, 10, 0, testMeta)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
