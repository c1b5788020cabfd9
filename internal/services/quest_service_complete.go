package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"quest-market/internal/metrics"
	"quest-market/internal/models"
	"quest-market/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CompleteQuest confirms the poster's OTP and pays the assigned hero the escrowed
// reward and xp. If the hero's record is gone the whole transition rolls back and
// the quest stays active.
func (qs *QuestService) CompleteQuest(
	ctx context.Context,
	questID uuid.UUID,
	hero string,
	otp string,
) (err error) {
	defer func() { metrics.RecordTransition("complete", err) }()

	var quest *models.Quest
	err = qs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		q, err := getQuest(ctx, txRepo, questID)
		if err != nil {
			return err
		}
		quest = q

		if quest.Status != models.QuestStatusActive {
			return ErrNotActive
		}

		if quest.AssignedTo == nil || *quest.AssignedTo != hero {
			return ErrNotAssignedHero
		}

		if subtle.ConstantTimeCompare([]byte(quest.OTP), []byte(otp)) != 1 {
			return ErrInvalidOTP
		}

		completed, err := txRepo.CompleteQuest(ctx, questID, hero)
		if err != nil {
			return fmt.Errorf("failed to complete quest: %w", err)
		}
		if !completed {
			return ErrNotActive
		}

		credited, err := txRepo.CreditBalance(ctx, hero, quest.Reward, quest.XP)
		if err != nil {
			return fmt.Errorf("failed to credit hero: %w", err)
		}
		if !credited {
			return reportInconsistency("complete", questID, hero)
		}

		return qs.ledger.Record(
			ctx, txRepo, hero,
			models.TransactionTypeCredit,
			"Reward: "+quest.Title,
			quest.Reward,
			&quest.ID,
		)
	})
	if err != nil {
		return err
	}

	recordLedger(models.TransactionTypeCredit, quest)
	log.WithFields(log.Fields{
		"quest_id": questID,
		"hero":     hero,
		"reward":   quest.Reward.String(),
		"xp":       quest.XP,
	}).Info("Quest completed, reward released")

	return nil
}

// ResignQuest hands an active quest back to the board. The reward stays in escrow.
func (qs *QuestService) ResignQuest(ctx context.Context, questID uuid.UUID, hero string) (err error) {
	defer func() { metrics.RecordTransition("resign", err) }()

	quest, err := getQuest(ctx, qs.repo, questID)
	if err != nil {
		return err
	}

	if quest.AssignedTo == nil || *quest.AssignedTo != hero {
		return ErrNotAssignedHero
	}

	if quest.Status != models.QuestStatusActive {
		return ErrNotActive
	}

	released, err := qs.repo.ReleaseQuest(ctx, questID, hero)
	if err != nil {
		return fmt.Errorf("failed to release quest: %w", err)
	}
	if !released {
		return ErrNotActive
	}

	log.WithFields(log.Fields{"quest_id": questID, "hero": hero}).Info("Hero resigned from quest")
	return nil
}
