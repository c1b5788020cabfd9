package repository

import (
	"context"

	"quest-market/internal/models"

	"github.com/google/uuid"
)

// CreateMessage appends a chat message
func (r *Repository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetMessagesByQuest retrieves a quest's chat in posting order
func (r *Repository) GetMessagesByQuest(ctx context.Context, questID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("sent_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
