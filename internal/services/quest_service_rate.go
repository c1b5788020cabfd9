package services

import (
	"context"
	"errors"
	"fmt"

	"quest-market/internal/metrics"
	"quest-market/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RateQuest records the poster's one rating of the hero who took the quest and
// returns the hero's new running-mean rating.
func (qs *QuestService) RateQuest(ctx context.Context, questID uuid.UUID, rating float64) (newRating float64, err error) {
	defer func() { metrics.RecordTransition("rate", err) }()

	if rating < 1 || rating > 5 {
		return 0, ErrInvalidRating
	}

	var hero string
	err = qs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		quest, err := txRepo.GetQuestByID(ctx, questID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestInvalid
			}
			return fmt.Errorf("failed to get quest: %w", err)
		}

		if quest.AssignedTo == nil || *quest.AssignedTo == "" {
			return ErrQuestInvalid
		}
		hero = *quest.AssignedTo

		if quest.RatingGiven {
			return ErrAlreadyRated
		}

		marked, err := txRepo.MarkQuestRated(ctx, questID)
		if err != nil {
			return fmt.Errorf("failed to mark quest rated: %w", err)
		}
		if !marked {
			return ErrAlreadyRated
		}

		user, err := txRepo.LockUserByUsername(ctx, hero)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reportInconsistency("rate", questID, hero)
			}
			return fmt.Errorf("failed to lock hero: %w", err)
		}

		newRating = nextRating(user.Rating, user.RatingCount, rating)

		updated, err := txRepo.UpdateRating(ctx, hero, user.RatingCount, newRating)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		if !updated {
			return ErrConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"quest_id":   questID,
		"hero":       hero,
		"rating":     rating,
		"new_rating": newRating,
	}).Info("Hero rated")

	return newRating, nil
}
