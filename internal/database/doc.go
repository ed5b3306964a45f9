// Package database provides the data access layer for the service.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── users/           # User records, reset tokens, role changes
//	└── audit/           # Authentication audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./cliffauth.db")
//
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - users.Repository: implements auth.UserRepository
//   - audit.Repository: implements audit.EventStore and tasks.AuditEventCleaner
//
// Compile-time checks for these live in internal/interfaces.
package database
