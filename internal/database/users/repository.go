// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail(ctx, "ada@example.com")
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/cliffauth/internal/entities"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user. A uniqueness violation on email is reported as
// ErrDuplicateEmail so that racing signups surface the same error as the
// pre-insert check.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	user.Email = NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByResetTokenHash retrieves the user holding the given reset token hash.
func (r *Repository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("password_reset_token_hash = ?", tokenHash).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// EmailExists reports whether an account with the email is registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// RecordLoginFailure increments the failed login counter.
func (r *Repository) RecordLoginFailure(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
}

// RecordLoginSuccess resets the failed login counter and stamps the login time.
func (r *Repository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(map[string]any{
		"failed_login_attempts": 0,
		"last_login_at":         at,
	}).Error
}

// SetResetToken stores a reset token hash and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_reset_token_hash": tokenHash,
		"password_reset_expires_at": expiresAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to save reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearResetToken removes the reset token from a user if it is still the
// given hash.
func (r *Repository) ClearResetToken(ctx context.Context, id, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ? AND password_reset_token_hash = ?", id, tokenHash).
		Updates(clearResetFields()).Error
}

// ConsumeResetToken swaps in a new password hash, clears the reset token and
// revokes existing sessions, but only while the stored token hash still
// matches. The single conditional UPDATE makes consumption at-most-once:
// the second of two concurrent callers affects no rows and gets false.
func (r *Repository) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, at time.Time) (bool, error) {
	updates := clearResetFields()
	updates["password_hash"] = passwordHash
	updates["sessions_revoked_at"] = at
	updates["failed_login_attempts"] = 0

	result := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ? AND password_reset_token_hash = ?", id, tokenHash).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RevokeSessions marks every bearer token issued before at as invalid.
func (r *Repository) RevokeSessions(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).
		Update("sessions_revoked_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke sessions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes the role of the user with the given email.
func (r *Repository) SetRole(ctx context.Context, email string, role entities.UserRole) (*entities.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	return user, nil
}

// List returns users ordered by creation time, oldest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.User, int64, error) {
	var users []entities.User
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// Count returns the number of registered users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

// PurgeExpiredResetTokens clears reset tokens whose expiry is not after now.
func (r *Repository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= ?", now).
		Updates(clearResetFields())
	return result.RowsAffected, result.Error
}

func clearResetFields() map[string]any {
	return map[string]any{
		"password_reset_token_hash": nil,
		"password_reset_expires_at": nil,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
