// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - UserRepository: user records, reset tokens and role changes (internal/auth/credentials.go)
//   - EventStore: audit event persistence (internal/audit/service.go)
//   - Pinger: database reachability for /health (internal/http/config.go)
//
// ## Credential and Session Interfaces
//
//   - PasswordHasher: one-way password digests (internal/auth/password.go)
//   - Denylist: revoked token identifiers with expiry (internal/auth/denylist.go)
//   - AuditLogger: authentication event sink (internal/auth/service.go)
//   - Notifier: out-of-band notices after a password change (internal/auth/service.go)
//
// ## Delivery and Background Work
//
//   - Sender: outgoing email (internal/mailer/mailer.go)
//   - Enqueuer: task submission to the backlite queue (internal/tasks/password_changed.go)
//   - UserFinder, ResetTokenPurger, AuditEventCleaner: task processor dependencies (internal/tasks)
//
// # Replacing the Denylist Backend
//
// Denylist is satisfied by ScsDenylist over any scs.Store. To move revoked
// tokens to another backend:
//
//  1. Pick or write an scs.Store (Find, Commit, Delete) for it
//  2. Pass auth.NewScsDenylist(store) to auth.NewTokenService
//  3. Add a compile-time check in checks.go
//
// # Adding a Background Task
//
//  1. Define a task struct with a Config() returning a backlite.QueueConfig
//  2. Write a processor and a NewXQueue constructor in internal/tasks
//  3. Register the queue in entrypoint.Run
//  4. Enqueue it through tasks.Enqueuer
//
// # Compile-Time Checks
//
// See checks.go for compile-time interface satisfaction checks.
package interfaces
