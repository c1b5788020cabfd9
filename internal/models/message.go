package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat line attached to a quest
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QuestID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_quest_ts" json:"questId"`
	Sender    string    `gorm:"size:100;not null" json:"sender"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"column:sent_at;not null;index:idx_messages_quest_ts" json:"timestamp"`
}

func (Message) TableName() string {
	return "messages"
}

// PostMessageRequest is the payload of POST /quests/:id/messages
type PostMessageRequest struct {
	Sender string `json:"sender" binding:"required"`
	Text   string `json:"text" binding:"required"`
}
