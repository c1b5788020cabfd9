package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quest-market/internal/models"
	"quest-market/internal/repository"

	"github.com/google/uuid"
)

// MessageService stores the per-quest chat
type MessageService struct {
	repo *repository.Repository
}

func NewMessageService(repo *repository.Repository) *MessageService {
	return &MessageService{repo: repo}
}

// Post appends a message to an existing quest's chat
func (ms *MessageService) Post(ctx context.Context, questID uuid.UUID, sender, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if strings.TrimSpace(sender) == "" {
		return nil, invalidInput("sender is required")
	}

	if _, err := getQuest(ctx, ms.repo, questID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		QuestID:   questID,
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
	if err := ms.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// List returns a quest's messages oldest first
func (ms *MessageService) List(ctx context.Context, questID uuid.UUID) ([]*models.Message, error) {
	messages, err := ms.repo.GetMessagesByQuest(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}
