package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quest-market/internal/auth"
	"quest-market/internal/metrics"
	"quest-market/internal/middleware"
	"quest-market/internal/services"
	"quest-market/internal/utils"
)

// Services bundles what the HTTP layer needs
type Services struct {
	Users    *services.UserService
	Quests   *services.QuestService
	Ledger   *services.LedgerService
	Messages *services.MessageService
}

// RegisterRoutes mounts every route on router. completeLimiter throttles OTP
// attempts per quest.
func RegisterRoutes(router *gin.Engine, svc Services, completeLimiter *middleware.RateLimiter) {
	authHandler := NewAuthHandler(svc.Users)
	userHandler := NewUserHandler(svc.Ledger)
	questHandler := NewQuestHandler(svc.Quests)
	messageHandler := NewMessageHandler(svc.Messages)

	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("")
	api.Use(auth.OptionalAuth())

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", authHandler.GetMe)
	}

	api.GET("/users/:username/transactions", userHandler.GetTransactions)

	quests := api.Group("/quests")
	{
		quests.POST("", questHandler.CreateQuest)
		quests.GET("", questHandler.ListQuests)
		quests.GET("/:id", questHandler.GetQuest)
		quests.PUT("/:id/accept", questHandler.AcceptQuest)
		quests.POST("/:id/complete", completeLimiter.PerKey(questKey), questHandler.CompleteQuest)
		quests.PUT("/:id/resign", questHandler.ResignQuest)
		quests.DELETE("/:id", questHandler.CancelQuest)
		quests.POST("/:id/rate", questHandler.RateQuest)
		quests.POST("/:id/messages", messageHandler.PostMessage)
		quests.GET("/:id/messages", messageHandler.ListMessages)
	}
}

// questKey normalises the :id parameter so a UUID and its base58 ref share a bucket
func questKey(c *gin.Context) string {
	if id, err := utils.ParseQuestID(c.Param("id")); err == nil {
		return id.String()
	}
	return c.Param("id")
}
