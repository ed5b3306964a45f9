package http

import (
	"github.com/mrlokans/cliffauth/internal/auth"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	AuthService *auth.Service
	Database    Pinger

	// Admin audit listing (optional)
	Audit AuditReader

	// Send Strict-Transport-Security on every response
	HSTS bool

	// Application info
	Version string
}
