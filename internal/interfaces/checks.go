package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/cliffauth/internal/audit"
	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/database"
	auditrepo "github.com/mrlokans/cliffauth/internal/database/audit"
	"github.com/mrlokans/cliffauth/internal/database/users"
	"github.com/mrlokans/cliffauth/internal/http"
	"github.com/mrlokans/cliffauth/internal/mailer"
	"github.com/mrlokans/cliffauth/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// UserRepository implementations
var _ auth.UserRepository = (*users.Repository)(nil)

// EventStore implementations
var _ audit.EventStore = (*auditrepo.Repository)(nil)

// Pinger implementations
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Credentials and Sessions
// =============================================================================

var _ auth.PasswordHasher = (*auth.BcryptHasher)(nil)

var _ auth.Denylist = (*auth.ScsDenylist)(nil)
var _ auth.Denylist = auth.NopDenylist{}

var _ auth.AuditLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)

// =============================================================================
// Mail Delivery
// =============================================================================

var _ mailer.Sender = (*mailer.SMTPSender)(nil)
var _ mailer.Sender = mailer.LogSender{}

// =============================================================================
// Background Tasks
// =============================================================================

var _ auth.Notifier = (*tasks.Notifier)(nil)
var _ tasks.Enqueuer = (*tasks.Client)(nil)
var _ tasks.UserFinder = (*auth.CredentialStore)(nil)
var _ tasks.ResetTokenPurger = (*auth.CredentialStore)(nil)
var _ tasks.AuditEventCleaner = (*auditrepo.Repository)(nil)
