package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuestStatus string

const (
	QuestStatusOpen      QuestStatus = "open"
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	// QuestStatusExpired is never written by the service; listings filter it out.
	QuestStatusExpired QuestStatus = "expired"
)

type QuestUrgency string

const (
	QuestUrgencyLow    QuestUrgency = "low"
	QuestUrgencyMedium QuestUrgency = "medium"
	QuestUrgencyUrgent QuestUrgency = "urgent"
)

// Valid reports whether u is one of the known urgency levels
func (u QuestUrgency) Valid() bool {
	switch u {
	case QuestUrgencyLow, QuestUrgencyMedium, QuestUrgencyUrgent:
		return true
	}
	return false
}

// Quest is a task posting whose reward sits in escrow until completion or cancellation
type Quest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Location    string          `gorm:"size:255" json:"location"`
	Deadline    string          `gorm:"size:100" json:"deadline"`
	DeadlineISO string          `gorm:"size:50" json:"deadlineIso"`
	Reward      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"reward"`
	XP          int64           `gorm:"not null;default:0" json:"xp"`
	Urgency     QuestUrgency    `gorm:"size:10;not null;default:low" json:"urgency"`
	PostedBy    string          `gorm:"size:100;not null;index" json:"postedBy"`
	AssignedTo  *string         `gorm:"size:100;index" json:"assignedTo"`
	Status      QuestStatus     `gorm:"size:20;not null;default:open;index" json:"status"`
	OTP         string          `gorm:"size:4;not null" json:"otp"`
	RatingGiven bool            `gorm:"not null;default:false" json:"ratingGiven"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Quest model
func (Quest) TableName() string {
	return "quests"
}

// CreateQuestRequest represents a request to post a new quest
type CreateQuestRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	XP          int64           `json:"xp"`
	Urgency     QuestUrgency    `json:"urgency"`
	Location    string          `json:"location"`
	Deadline    string          `json:"deadline"`
	DeadlineISO string          `json:"deadlineIso"`
	PostedBy    string          `json:"postedBy" binding:"required"`
}

// QuestResponse represents a quest in API responses. OTP is nil unless the
// requester posted the quest.
type QuestResponse struct {
	ID          string          `json:"id"`
	Ref         string          `json:"ref"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Deadline    string          `json:"deadline"`
	DeadlineISO string          `json:"deadlineIso,omitempty"`
	Reward      decimal.Decimal `json:"reward"`
	XP          int64           `json:"xp"`
	Urgency     QuestUrgency    `json:"urgency"`
	PostedBy    string          `json:"postedBy"`
	AssignedTo  *string         `json:"assignedTo"`
	Status      QuestStatus     `json:"status"`
	OTP         *string         `json:"otp,omitempty"`
	RatingGiven bool            `json:"ratingGiven"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// AcceptQuestRequest is the payload of PUT /quests/:id/accept and /resign
type AcceptQuestRequest struct {
	HeroUsername string `json:"heroUsername" binding:"required"`
}

// CompleteQuestRequest is the payload of POST /quests/:id/complete
type CompleteQuestRequest struct {
	OTP          string `json:"otp" binding:"required"`
	HeroUsername string `json:"heroUsername" binding:"required"`
}

// CancelQuestRequest is the payload of DELETE /quests/:id
type CancelQuestRequest struct {
	Username string `json:"username" binding:"required"`
}

// RateQuestRequest is the payload of POST /quests/:id/rate
type RateQuestRequest struct {
	Rating float64 `json:"rating" binding:"required"`
}
