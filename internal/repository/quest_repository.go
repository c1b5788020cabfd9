package repository

import (
	"context"

	"quest-market/internal/models"

	"github.com/google/uuid"
)

// CreateQuest creates a new quest
func (r *Repository) CreateQuest(ctx context.Context, quest *models.Quest) error {
	return r.db.WithContext(ctx).Create(quest).Error
}

// GetQuestByID retrieves a quest by ID
func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	err := r.db.WithContext(ctx).Where("id = ?", questID).First(&quest).Error
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// ListQuests retrieves every quest that has not expired, newest first
func (r *Repository) ListQuests(ctx context.Context) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.WithContext(ctx).
		Where("status <> ?", models.QuestStatusExpired).
		Order("created_at DESC").
		Find(&quests).Error
	if err != nil {
		return nil, err
	}
	return quests, nil
}

// AssignQuest moves an open quest to active for hero. It reports false when the
// quest was no longer open, which is how a lost accept race shows up.
func (r *Repository) AssignQuest(ctx context.Context, questID uuid.UUID, hero string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Quest{}).
		Where("id = ? AND status = ?", questID, models.QuestStatusOpen).
		Updates(map[string]interface{}{
			"status":      models.QuestStatusActive,
			"assigned_to": hero,
		})
	return result.RowsAffected == 1, result.Error
}

// CompleteQuest marks an active quest assigned to hero as completed
func (r *Repository) CompleteQuest(ctx context.Context, questID uuid.UUID, hero string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Quest{}).
		Where("id = ? AND status = ? AND assigned_to = ?", questID, models.QuestStatusActive, hero).
		Update("status", models.QuestStatusCompleted)
	return result.RowsAffected == 1, result.Error
}

// ReleaseQuest puts an active quest assigned to hero back on the board
func (r *Repository) ReleaseQuest(ctx context.Context, questID uuid.UUID, hero string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Quest{}).
		Where("id = ? AND status = ? AND assigned_to = ?", questID, models.QuestStatusActive, hero).
		Updates(map[string]interface{}{
			"status":      models.QuestStatusOpen,
			"assigned_to": nil,
		})
	return result.RowsAffected == 1, result.Error
}

// DeleteOpenQuest permanently removes a quest that is still open
func (r *Repository) DeleteOpenQuest(ctx context.Context, questID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", questID, models.QuestStatusOpen).
		Delete(&models.Quest{})
	return result.RowsAffected == 1, result.Error
}

// MarkQuestRated flips rating_given once; false means someone rated first
func (r *Repository) MarkQuestRated(ctx context.Context, questID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Quest{}).
		Where("id = ? AND rating_given = ? AND assigned_to IS NOT NULL", questID, false).
		Update("rating_given", true)
	return result.RowsAffected == 1, result.Error
}
