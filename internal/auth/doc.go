// Package auth provides credential storage, bearer session tokens and the
// authentication flows built on them.
//
// The pieces compose bottom-up:
//   - PasswordHasher hashes and verifies passwords (bcrypt)
//   - CredentialStore owns user records and password reset tokens
//   - TokenService issues and validates HS256 JWTs, with an optional Denylist
//   - Service runs signup, login, logout, password reset and Authorize
//   - RequireRole gates operations on the user's role
//
// # Configuration
//
//	AUTH_JWT_SECRET=<random string>   # Generated per process if empty
//	AUTH_TOKEN_TTL=168h               # Bearer token lifetime
//	AUTH_BCRYPT_COST=12               # bcrypt cost factor
//	AUTH_MIN_PASSWORD_LENGTH=6
//	AUTH_RESET_TOKEN_TTL=10m          # Password reset token lifetime
//	AUTH_DENYLIST_ENABLED=true        # Remember logged-out tokens until expiry
//
// # Usage
//
//	store := auth.NewCredentialStore(users.NewRepository(db), auth.NewBcryptHasher(cfg.BcryptCost), cfg)
//	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: secret}, denylist)
//	service := auth.NewService(store, tokens, auth.ServiceOptions{Mailer: sender})
//	router.Use(auth.NewMiddleware(service).RequireAuth())
//
// Extract user in handlers:
//
//	user := auth.GetUser(c)
package auth
