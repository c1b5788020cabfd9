package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-market/internal/models"
	"quest-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService keeps the append-only record of every balance movement.
// Entries are only written as a side effect of quest transitions.
type LedgerService struct {
	repo *repository.Repository
}

func NewLedgerService(repo *repository.Repository) *LedgerService {
	return &LedgerService{repo: repo}
}

// BalanceDrift describes a user whose stored balance disagrees with the ledger
type BalanceDrift struct {
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerBalance decimal.Decimal `json:"ledgerBalance"`
}

// Record appends an entry through txRepo, so it commits or rolls back together
// with the balance change it documents.
func (ls *LedgerService) Record(
	ctx context.Context,
	txRepo *repository.Repository,
	username string,
	entryType models.TransactionType,
	description string,
	amount decimal.Decimal,
	questID *uuid.UUID,
) error {
	if !amount.IsPositive() {
		return fmt.Errorf("ledger amount must be positive, got %s", amount)
	}

	entry := &models.Transaction{
		ID:          uuid.New(),
		UserID:      username,
		QuestID:     questID,
		Type:        entryType,
		Description: description,
		Amount:      amount,
		Status:      models.TransactionStatusSuccess,
		CreatedAt:   time.Now(),
	}

	if err := txRepo.CreateTransaction(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s transaction: %w", entryType, err)
	}
	return nil
}

// History returns a user's ledger entries in chronological order
func (ls *LedgerService) History(ctx context.Context, username string) ([]*models.Transaction, error) {
	if _, err := ls.repo.GetUserByUsername(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	entries, err := ls.repo.GetTransactionsByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return entries, nil
}

// Reconstruct replays a user's ledger over the balance they started with
func (ls *LedgerService) Reconstruct(ctx context.Context, username string) (decimal.Decimal, error) {
	user, err := ls.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get user: %w", err)
	}

	entries, err := ls.repo.GetTransactionsByUser(ctx, username)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get transactions: %w", err)
	}
	return fold(user.StartingBalance, entries), nil
}

func fold(start decimal.Decimal, entries []*models.Transaction) decimal.Decimal {
	balance := start
	for _, entry := range entries {
		if entry.Status != models.TransactionStatusSuccess {
			continue
		}
		balance = balance.Add(entry.SignedAmount())
	}
	return balance
}

// Reconcile compares every user's balance against its replayed ledger.
// Users and their entries come from a single snapshot, so a transition
// committing mid-pass is either wholly visible or not at all.
func (ls *LedgerService) Reconcile(ctx context.Context) ([]BalanceDrift, error) {
	var drifts []BalanceDrift

	err := ls.repo.Snapshot(ctx, func(txRepo *repository.Repository) error {
		users, err := txRepo.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		for _, user := range users {
			entries, err := txRepo.GetTransactionsByUser(ctx, user.Username)
			if err != nil {
				return fmt.Errorf("failed to get transactions for %s: %w", user.Username, err)
			}

			expected := fold(user.StartingBalance, entries)
			if !expected.Equal(user.Balance) {
				drifts = append(drifts, BalanceDrift{
					Username:      user.Username,
					Balance:       user.Balance,
					LedgerBalance: expected,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return drifts, nil
}
