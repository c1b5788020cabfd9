package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quest-market/internal/services"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	ledgerService *services.LedgerService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(ledgerService *services.LedgerService) *UserHandler {
	return &UserHandler{
		ledgerService: ledgerService,
	}
}

// GetTransactions returns a user's ledger oldest first
// GET /users/:username/transactions
func (h *UserHandler) GetTransactions(c *gin.Context) {
	username := c.Param("username")
	if !requireActor(c, username) {
		return
	}

	entries, err := h.ledgerService.History(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
