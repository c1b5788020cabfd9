package repository

import (
	"context"

	"quest-market/internal/models"
)

// CreateTransaction appends a ledger entry
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetTransactionsByUser retrieves a user's ledger entries, oldest first
func (r *Repository) GetTransactionsByUser(ctx context.Context, username string) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", username).
		Order("created_at ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
