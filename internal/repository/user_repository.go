package repository

import (
	"context"

	"quest-market/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LockUserByUsername reads a user row with SELECT ... FOR UPDATE so the caller's
// transaction owns it until commit. SQLite ignores the locking clause.
func (r *Repository) LockUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether the username or email is already taken
func (r *Repository) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// ListUsers retrieves every user ordered by username
func (r *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DebitBalance subtracts amount from the user's balance if it covers it.
// It reports false when the user is missing or the balance is too low.
func (r *Repository) DebitBalance(ctx context.Context, username string, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND balance >= ?", username, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	return result.RowsAffected == 1, result.Error
}

// CreditBalance adds amount to the balance and xp to the experience counter
func (r *Repository) CreditBalance(ctx context.Context, username string, amount decimal.Decimal, xp int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			"xp":      gorm.Expr("xp + ?", xp),
		})
	return result.RowsAffected == 1, result.Error
}

// UpdateRating stores a recomputed rating. The rating_count guard rejects the
// write if another transaction rated the user since it was read.
func (r *Repository) UpdateRating(
	ctx context.Context,
	username string,
	expectedCount int64,
	rating float64,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND rating_count = ?", username, expectedCount).
		Updates(map[string]interface{}{
			"rating":       rating,
			"rating_count": expectedCount + 1,
		})
	return result.RowsAffected == 1, result.Error
}
