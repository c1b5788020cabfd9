package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quest-market/internal/metrics"
	"quest-market/internal/models"
	"quest-market/internal/repository"
	"quest-market/internal/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QuestService owns the quest lifecycle. Every transition runs in one database
// transaction covering the quest row, the balances it moves and the ledger.
type QuestService struct {
	repo   *repository.Repository
	ledger *LedgerService
}

func NewQuestService(repo *repository.Repository, ledger *LedgerService) *QuestService {
	return &QuestService{
		repo:   repo,
		ledger: ledger,
	}
}

// CreateQuest escrows the reward from the poster and opens the quest
func (qs *QuestService) CreateQuest(
	ctx context.Context,
	req *models.CreateQuestRequest,
) (quest *models.Quest, err error) {
	defer func() { metrics.RecordTransition("create", err) }()

	if err := validateCreateQuest(req); err != nil {
		return nil, err
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return nil, err
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = models.QuestUrgencyLow
	}

	now := time.Now()
	quest = &models.Quest{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Deadline:    req.Deadline,
		DeadlineISO: req.DeadlineISO,
		Reward:      req.Reward,
		XP:          req.XP,
		Urgency:     urgency,
		PostedBy:    req.PostedBy,
		Status:      models.QuestStatusOpen,
		OTP:         otp,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = qs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		debited, err := txRepo.DebitBalance(ctx, quest.PostedBy, quest.Reward)
		if err != nil {
			return fmt.Errorf("failed to debit poster: %w", err)
		}
		if !debited {
			if _, err := txRepo.GetUserByUsername(ctx, quest.PostedBy); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUserNotFound
				}
				return fmt.Errorf("failed to get poster: %w", err)
			}
			return ErrInsufficientFunds
		}

		if err := qs.ledger.Record(
			ctx, txRepo, quest.PostedBy,
			models.TransactionTypeDebit,
			"Escrow: "+quest.Title,
			quest.Reward,
			&quest.ID,
		); err != nil {
			return err
		}

		if err := txRepo.CreateQuest(ctx, quest); err != nil {
			return fmt.Errorf("failed to create quest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordLedger(models.TransactionTypeDebit, quest)
	log.WithFields(log.Fields{
		"quest_id":  quest.ID,
		"posted_by": quest.PostedBy,
		"reward":    quest.Reward.String(),
	}).Info("Quest created, reward escrowed")

	return quest, nil
}

func validateCreateQuest(req *models.CreateQuestRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalidInput("title is required")
	}
	if strings.TrimSpace(req.PostedBy) == "" {
		return invalidInput("postedBy is required")
	}
	if !req.Reward.IsPositive() {
		return invalidInput("reward must be positive")
	}
	if !req.Reward.Equal(req.Reward.Round(2)) {
		return invalidInput("reward supports at most two decimal places")
	}
	if req.XP < 0 {
		return invalidInput("xp must not be negative")
	}
	if req.Urgency != "" && !req.Urgency.Valid() {
		return invalidInput("urgency must be one of low, medium, urgent")
	}
	return nil
}

// AcceptQuest assigns an open quest to hero. Of several concurrent accepts on
// the same quest exactly one succeeds; the rest get ErrNotAvailable.
func (qs *QuestService) AcceptQuest(
	ctx context.Context,
	questID uuid.UUID,
	hero string,
) (quest *models.Quest, err error) {
	defer func() { metrics.RecordTransition("accept", err) }()

	err = qs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.GetUserByUsername(ctx, hero); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get hero: %w", err)
		}

		current, err := getQuest(ctx, txRepo, questID)
		if err != nil {
			return err
		}

		if current.Status != models.QuestStatusOpen {
			return ErrNotAvailable
		}

		if current.PostedBy == hero {
			return ErrSelfAcceptForbidden
		}

		assigned, err := txRepo.AssignQuest(ctx, questID, hero)
		if err != nil {
			return fmt.Errorf("failed to assign quest: %w", err)
		}
		if !assigned {
			return ErrNotAvailable
		}

		quest, err = getQuest(ctx, txRepo, questID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"quest_id": questID, "hero": hero}).Info("Quest accepted")
	return quest, nil
}

// ListQuests returns every non-expired quest, newest first, redacted for requester
func (qs *QuestService) ListQuests(ctx context.Context, requester string) ([]*models.QuestResponse, error) {
	quests, err := qs.repo.ListQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	responses := make([]*models.QuestResponse, 0, len(quests))
	for _, quest := range quests {
		responses = append(responses, ToQuestResponse(quest, requester))
	}
	return responses, nil
}

// GetQuest retrieves one quest, redacted for requester
func (qs *QuestService) GetQuest(
	ctx context.Context,
	questID uuid.UUID,
	requester string,
) (*models.QuestResponse, error) {
	quest, err := getQuest(ctx, qs.repo, questID)
	if err != nil {
		return nil, err
	}
	return ToQuestResponse(quest, requester), nil
}

// ToQuestResponse builds the API view of a quest. The OTP is only included
// when requester is the poster; the stored quest is never modified.
func ToQuestResponse(quest *models.Quest, requester string) *models.QuestResponse {
	resp := &models.QuestResponse{
		ID:          quest.ID.String(),
		Ref:         utils.QuestRef(quest.ID),
		Title:       quest.Title,
		Description: quest.Description,
		Location:    quest.Location,
		Deadline:    quest.Deadline,
		DeadlineISO: quest.DeadlineISO,
		Reward:      quest.Reward,
		XP:          quest.XP,
		Urgency:     quest.Urgency,
		PostedBy:    quest.PostedBy,
		AssignedTo:  quest.AssignedTo,
		Status:      quest.Status,
		RatingGiven: quest.RatingGiven,
		CreatedAt:   quest.CreatedAt,
		UpdatedAt:   quest.UpdatedAt,
	}

	if requester != "" && requester == quest.PostedBy {
		otp := quest.OTP
		resp.OTP = &otp
	}

	return resp
}

func getQuest(ctx context.Context, repo *repository.Repository, questID uuid.UUID) (*models.Quest, error) {
	quest, err := repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return quest, nil
}

// reportInconsistency logs a transition aborted on missing user data so an
// operator sees it, and returns the error that rolls the transaction back.
func reportInconsistency(operation string, questID uuid.UUID, username string) error {
	metrics.RecordInconsistency(operation)
	log.WithFields(log.Fields{
		"operation": operation,
		"quest_id":  questID,
		"username":  username,
	}).Error("User record missing during quest transition, transition aborted")
	return inconsistency("%s: user %q referenced by quest %s does not exist", operation, username, questID)
}

func recordLedger(entryType models.TransactionType, quest *models.Quest) {
	amount, _ := quest.Reward.Float64()
	metrics.RecordLedgerAmount(string(entryType), amount)
}
