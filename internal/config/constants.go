package config

import "time"

const (
	// DefaultDatabasePath is the default path for the credentials database
	DefaultDatabasePath = "./cliffauth.db"

	// DefaultTokenIssuer is the "iss" claim stamped on bearer tokens
	DefaultTokenIssuer = "cliffauth"

	// DefaultTokenTTL is how long a bearer token stays valid after issuance
	DefaultTokenTTL = 7 * 24 * time.Hour

	// DefaultResetTokenTTL is how long a password reset token stays valid
	DefaultResetTokenTTL = 10 * time.Minute
)
