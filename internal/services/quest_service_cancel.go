package services

import (
	"context"
	"fmt"

	"quest-market/internal/metrics"
	"quest-market/internal/models"
	"quest-market/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CancelQuest deletes an open quest and refunds the escrowed reward to its poster
func (qs *QuestService) CancelQuest(ctx context.Context, questID uuid.UUID, actor string) (err error) {
	defer func() { metrics.RecordTransition("cancel", err) }()

	var quest *models.Quest
	err = qs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		q, err := getQuest(ctx, txRepo, questID)
		if err != nil {
			return err
		}
		quest = q

		if quest.PostedBy != actor {
			return ErrNotOwner
		}

		if quest.Status != models.QuestStatusOpen {
			return ErrCannotCancelActive
		}

		deleted, err := txRepo.DeleteOpenQuest(ctx, questID)
		if err != nil {
			return fmt.Errorf("failed to delete quest: %w", err)
		}
		if !deleted {
			// Accepted between the read and the delete.
			return ErrCannotCancelActive
		}

		refunded, err := txRepo.CreditBalance(ctx, quest.PostedBy, quest.Reward, 0)
		if err != nil {
			return fmt.Errorf("failed to refund poster: %w", err)
		}
		if !refunded {
			return reportInconsistency("cancel", questID, quest.PostedBy)
		}

		return qs.ledger.Record(
			ctx, txRepo, quest.PostedBy,
			models.TransactionTypeCredit,
			fmt.Sprintf("Refund: %s (Cancelled)", quest.Title),
			quest.Reward,
			&quest.ID,
		)
	})
	if err != nil {
		return err
	}

	recordLedger(models.TransactionTypeCredit, quest)
	log.WithFields(log.Fields{
		"quest_id":  questID,
		"posted_by": quest.PostedBy,
		"refund":    quest.Reward.String(),
	}).Info("Quest cancelled, reward refunded")

	return nil
}
