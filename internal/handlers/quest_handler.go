package handlers

import (
	"net/http"

	"quest-market/internal/auth"
	"quest-market/internal/models"
	"quest-market/internal/services"
	"quest-market/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuestHandler struct {
	questService *services.QuestService
}

func NewQuestHandler(questService *services.QuestService) *QuestHandler {
	return &QuestHandler{
		questService: questService,
	}
}

// questID reads the :id path parameter as a UUID or base58 ref. On failure it
// writes a 404, since no quest can have that id.
func questID(c *gin.Context) (uuid.UUID, bool) {
	id, err := utils.ParseQuestID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrQuestNotFound.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// requireActor rejects a body actor that disagrees with the bearer token
func requireActor(c *gin.Context, actor string) bool {
	if !auth.ActorAllowed(c, actor) {
		respondError(c, services.ErrActorMismatch)
		return false
	}
	return true
}

// requester is the username quests are redacted for: the ?username= query, or
// the token's user when the query is absent.
func requester(c *gin.Context) (string, bool) {
	username := c.Query("username")
	if username == "" {
		if name, ok := auth.GetUsername(c); ok {
			return name, true
		}
		return "", true
	}
	return username, requireActor(c, username)
}

// CreateQuest posts a quest and escrows its reward
// POST /quests
func (h *QuestHandler) CreateQuest(c *gin.Context) {
	var req models.CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.PostedBy) {
		return
	}

	quest, err := h.questService.CreateQuest(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, services.ToQuestResponse(quest, quest.PostedBy))
}

// ListQuests lists every non-expired quest, newest first
// GET /quests?username=
func (h *QuestHandler) ListQuests(c *gin.Context) {
	username, ok := requester(c)
	if !ok {
		return
	}

	quests, err := h.questService.ListQuests(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quests)
}

// GetQuest retrieves a single quest
// GET /quests/:id?username=
func (h *QuestHandler) GetQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	username, ok := requester(c)
	if !ok {
		return
	}

	quest, err := h.questService.GetQuest(c.Request.Context(), id, username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quest)
}

// AcceptQuest assigns an open quest to the calling hero
// PUT /quests/:id/accept
func (h *QuestHandler) AcceptQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.AcceptQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.HeroUsername) {
		return
	}

	quest, err := h.questService.AcceptQuest(c.Request.Context(), id, req.HeroUsername)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quest accepted",
		"quest":   services.ToQuestResponse(quest, req.HeroUsername),
	})
}

// CompleteQuest releases the reward to the hero once the poster's OTP checks out
// POST /quests/:id/complete
func (h *QuestHandler) CompleteQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.CompleteQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.HeroUsername) {
		return
	}

	if err := h.questService.CompleteQuest(c.Request.Context(), id, req.HeroUsername, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quest completed, reward released"})
}

// ResignQuest returns an active quest to the board
// PUT /quests/:id/resign
func (h *QuestHandler) ResignQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.AcceptQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.HeroUsername) {
		return
	}

	if err := h.questService.ResignQuest(c.Request.Context(), id, req.HeroUsername); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have resigned from the quest"})
}

// CancelQuest deletes an open quest and refunds its poster
// DELETE /quests/:id
func (h *QuestHandler) CancelQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.CancelQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.Username) {
		return
	}

	if err := h.questService.CancelQuest(c.Request.Context(), id, req.Username); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quest cancelled and refunded"})
}

// RateQuest rates the hero of a quest
// POST /quests/:id/rate
func (h *QuestHandler) RateQuest(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.RateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newRating, err := h.questService.RateQuest(c.Request.Context(), id, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Rating submitted",
		"newRating": newRating,
	})
}
