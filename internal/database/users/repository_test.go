package users

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cliffauth/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db") + "?_journal=WAL&_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func createUser(t *testing.T, repo *Repository, email string) *entities.User {
	t.Helper()
	user := &entities.User{Name: "Test", Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user := createUser(t, repo, "  Ada@Example.COM ")

	assert.NotEmpty(t, user.ID)
	assert.Len(t, user.ID, 36)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, entities.UserRoleUser, user.Role)
	assert.False(t, user.IsVerified)
	assert.False(t, user.MFAEnabled)
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)
	createUser(t, repo, "ada@example.com")

	err := repo.Create(context.Background(), &entities.User{Name: "Other", Email: "ADA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	repo := setupTestDB(t)
	created := createUser(t, repo, "ada@example.com")

	user, err := repo.GetByEmail(context.Background(), "ADA@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetByID(t *testing.T) {
	repo := setupTestDB(t)
	created := createUser(t, repo, "ada@example.com")

	user, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_EmailExists(t *testing.T) {
	repo := setupTestDB(t)
	createUser(t, repo, "ada@example.com")

	exists, err := repo.EmailExists(context.Background(), "Ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_LoginCounters(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo, "ada@example.com")

	require.NoError(t, repo.RecordLoginFailure(ctx, user.ID))
	require.NoError(t, repo.RecordLoginFailure(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FailedLoginAttempts)

	require.NoError(t, repo.RecordLoginSuccess(ctx, user.ID, time.Now().UTC()))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.NotNil(t, got.LastLoginAt)
}

func TestRepository_ResetTokenLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo, "ada@example.com")
	expires := time.Now().UTC().Add(10 * time.Minute)

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "tokenhash", expires))

	found, err := repo.GetByResetTokenHash(ctx, "tokenhash")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.HasPendingReset())

	ok, err := repo.ConsumeResetToken(ctx, user.ID, "tokenhash", "newhash", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Nil(t, got.PasswordResetTokenHash)
	assert.Nil(t, got.PasswordResetExpiresAt)
	assert.NotNil(t, got.SessionsRevokedAt)

	// Second consumption affects nothing
	ok, err = repo.ConsumeResetToken(ctx, user.ID, "tokenhash", "otherhash", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByResetTokenHash(ctx, "tokenhash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_SetResetToken_UnknownUser(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.SetResetToken(context.Background(), "missing", "hash", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ConsumeResetToken_Concurrent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo, "ada@example.com")
	require.NoError(t, repo.SetResetToken(ctx, user.ID, "tokenhash", time.Now().UTC().Add(time.Minute)))

	const workers = 5
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeResetToken(ctx, user.ID, "tokenhash", "newhash", time.Now().UTC())
			if err == nil {
				results <- ok
			}
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}

func TestRepository_PurgeExpiredResetTokens(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := createUser(t, repo, "old@example.com")
	fresh := createUser(t, repo, "new@example.com")
	require.NoError(t, repo.SetResetToken(ctx, expired.ID, "old", now.Add(-time.Minute)))
	require.NoError(t, repo.SetResetToken(ctx, fresh.ID, "new", now.Add(time.Minute)))

	purged, err := repo.PurgeExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, err := repo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.HasPendingReset())

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPendingReset())
}

func TestRepository_SetRoleAndList(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	createUser(t, repo, "ada@example.com")
	createUser(t, repo, "bob@example.com")

	user, err := repo.SetRole(ctx, "ADA@example.com", entities.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, user.Role)

	list, total, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	_, err = repo.SetRole(ctx, "nobody@example.com", entities.UserRoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_RevokeSessions(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo, "ada@example.com")

	require.NoError(t, repo.RevokeSessions(ctx, user.ID, time.Now().UTC()))
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.SessionsRevokedAt)

	assert.ErrorIs(t, repo.RevokeSessions(ctx, "missing", time.Now()), ErrNotFound)
}
