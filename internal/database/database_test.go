package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cliffauth/internal/entities"
)

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
	assert.True(t, db.DB.Migrator().HasTable(&entities.User{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.AuditEvent{}))
}

func TestDatabase_UTCTimestamps(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	user := &entities.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(user).Error)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, entities.UserRoleUser, user.Role)
	assert.Equal(t, "UTC", user.CreatedAt.Location().String())
}

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:", dsn(":memory:"))
	assert.Equal(t, "x.db?mode=ro", dsn("x.db?mode=ro"))
	assert.Contains(t, dsn("x.db"), "_busy_timeout=5000")
}
