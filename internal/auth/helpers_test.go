package auth

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cliffauth/internal/config"
	"github.com/mrlokans/cliffauth/internal/database/users"
	"github.com/mrlokans/cliffauth/internal/entities"
	"github.com/mrlokans/cliffauth/internal/mailer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// testClock is a settable time source shared by the store and token service.
// It starts at the wall clock because denylist stores expire entries in
// real time.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	changed []string
}

func (f *fakeNotifier) PasswordChanged(_ context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, user.ID)
	return nil
}

type auditRecord struct {
	UserID  string
	Action  entities.AuditAction
	Success bool
}

type fakeAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (f *fakeAudit) LogAuth(userID string, action entities.AuditAction, _, _ string, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, auditRecord{UserID: userID, Action: action, Success: success})
}

func (f *fakeAudit) Has(action entities.AuditAction, success bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Action == action && r.Success == success {
			return true
		}
	}
	return false
}

type testEnv struct {
	service  *Service
	store    *CredentialStore
	tokens   *TokenService
	repo     *users.Repository
	clock    *testClock
	mailer   *fakeSender
	notifier *fakeNotifier
	audit    *fakeAudit
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "auth.db") + "?_journal=WAL&_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func newTestStore(t *testing.T, clock *testClock) (*CredentialStore, *users.Repository) {
	t.Helper()
	repo := users.NewRepository(setupTestDB(t))
	store := NewCredentialStore(repo, NewBcryptHasher(bcrypt.MinCost), config.Auth{
		MinPasswordLength: 6,
		ResetTokenTTL:     10 * time.Minute,
	})
	store.now = clock.Now
	return store, repo
}

func newTestTokens(t *testing.T, clock *testClock) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(TokenConfig{
		Secret: testSecret,
		TTL:    7 * 24 * time.Hour,
		Issuer: "cliffauth-test",
	}, NewScsDenylist(memstore.New()))
	require.NoError(t, err)
	tokens.now = clock.Now
	return tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newTestClock()
	store, repo := newTestStore(t, clock)
	tokens := newTestTokens(t, clock)

	env := &testEnv{
		store:    store,
		tokens:   tokens,
		repo:     repo,
		clock:    clock,
		mailer:   &fakeSender{},
		notifier: &fakeNotifier{},
		audit:    &fakeAudit{},
	}
	env.service = NewService(store, tokens, ServiceOptions{
		Mailer:       env.mailer,
		Audit:        env.audit,
		Notifier:     env.notifier,
		ResetURLBase: "http://localhost:8188/api/auth/reset-password/",
	})
	return env
}
