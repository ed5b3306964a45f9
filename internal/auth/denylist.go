package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Denylist records individually revoked bearer tokens until they expire.
type Denylist interface {
	// Add marks the token identified by id as revoked until expiresAt.
	Add(ctx context.Context, id, subject string, expiresAt time.Time) error

	// Contains reports whether the token identified by id was revoked by
	// subject.
	Contains(ctx context.Context, id, subject string) (bool, error)
}

// ScsDenylist keeps revoked token identifiers in an scs.Store. Entries
// carry the token's own expiry, so the store drops them once the token
// could no longer validate anyway.
type ScsDenylist struct {
	store scs.Store
}

// NewScsDenylist wraps an existing scs.Store.
func NewScsDenylist(store scs.Store) *ScsDenylist {
	return &ScsDenylist{store: store}
}

// NewSQLiteDenylist creates a denylist persisted in the given database.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSQLiteDenylist(sqlDB *sql.DB, cleanupInterval time.Duration) (*ScsDenylist, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	return NewScsDenylist(sqlite3store.NewWithCleanupInterval(sqlDB, cleanupInterval)), nil
}

// Add implements Denylist.
func (d *ScsDenylist) Add(ctx context.Context, id, subject string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !expiresAt.After(time.Now()) {
		// Already unusable; nothing to remember.
		return nil
	}
	return d.store.Commit(id, []byte(subject), expiresAt)
}

// Contains implements Denylist. An entry owned by another subject is
// treated as absent.
func (d *ScsDenylist) Contains(ctx context.Context, id, subject string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	owner, found, err := d.store.Find(id)
	if err != nil {
		return false, err
	}
	return found && string(owner) == subject, nil
}

// NopDenylist never revokes anything. Used when per-token revocation is
// disabled; logout then only succeeds as a client-side discard.
type NopDenylist struct{}

// Add implements Denylist.
func (NopDenylist) Add(context.Context, string, string, time.Time) error { return nil }

// Contains implements Denylist.
func (NopDenylist) Contains(context.Context, string, string) (bool, error) { return false, nil }
