package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mrlokans/cliffauth/internal/config"
)

// Claims are the registered JWT claims carried by a bearer token: the user
// identifier in sub, a unique jti for revocation, plus iat, exp and iss.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenConfig configures token issuance.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// TokenService issues and validates HS256 bearer tokens.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	denylist Denylist
	now      func() time.Time
}

// NewTokenService creates a token service. A nil denylist disables
// per-token revocation.
func NewTokenService(cfg TokenConfig, denylist Denylist) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = config.DefaultTokenIssuer
	}
	if denylist == nil {
		denylist = NopDenylist{}
	}
	return &TokenService{
		secret:   cfg.Secret,
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		denylist: denylist,
		now:      time.Now,
	}, nil
}

// TTL returns the lifetime of newly issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for subject.
func (s *TokenService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, expiry and issuer, then consults
// the denylist. It returns one of ErrTokenMalformed, ErrTokenSignatureInvalid,
// ErrTokenExpired or ErrTokenRevoked on rejection. A denylist failure is
// reported as ErrStoreUnavailable and the token is not accepted.
func (s *TokenService) Validate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw,
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.Contains(ctx, claims.ID, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("check token denylist: %w: %w", ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke adds the token to the denylist until its natural expiry. Only the
// signature is checked, so revoking an expired or already revoked token
// succeeds. The verified claims are returned for auditing.
func (s *TokenService) Revoke(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if !expiresAt.After(s.now()) {
		return claims, nil
	}
	if err := s.denylist.Add(ctx, claims.ID, claims.Subject, expiresAt); err != nil {
		return nil, fmt.Errorf("revoke token: %w: %w", ErrStoreUnavailable, err)
	}
	return claims, nil
}

func (s *TokenService) parse(raw string, opts ...jwt.ParserOption) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
