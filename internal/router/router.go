package router

import (
	"net/http"
	"time"

	"chirp/config"
	"chirp/internal/handler"
	"chirp/internal/live"
	"chirp/internal/middleware"
	"chirp/internal/repository"
	"chirp/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(300, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	presRepo := repository.NewPresenceRepository(db)

	broker := live.NewBroker()
	views := handler.NewViews(userRepo, convRepo, msgRepo, presRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userRepo, broker)
	webhookHandler := handler.NewIdentityWebhookHandler(userRepo, broker, &cfg.Webhook)
	convHandler := handler.NewConversationHandler(userRepo, convRepo, views, broker)
	msgHandler := handler.NewMessageHandler(userRepo, convRepo, msgRepo, views, broker)
	presHandler := handler.NewPresenceHandler(userRepo, presRepo, views, broker)
	uploadHandler := handler.NewUploadHandler(userRepo, cloud)
	subscribeHandler := handler.NewSubscribeHandler(&cfg.JWT, userRepo, msgRepo, views, broker)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.POST("/webhooks/identity", webhookHandler.Handle)

		// client contract values (heartbeat + typing windows)
		api.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"heartbeat_interval_sec": int(cfg.Presence.HeartbeatInterval / time.Second),
				"typing_idle_sec":        int(cfg.Presence.TypingIdleWindow / time.Second),
			})
		})

		authed := api.Group("")
		authed.Use(authMw)
		{
			authed.GET("/me", userHandler.Me)
			authed.PUT("/me/presence", presHandler.SetPresence)
			authed.POST("/users/sync", userHandler.Sync)
			authed.GET("/users", userHandler.List) // ?external_id= looks up one user
			authed.GET("/users/:id", userHandler.GetByID)

			authed.POST("/conversations", convHandler.Create)
			authed.GET("/conversations", convHandler.List)
			authed.GET("/conversations/:id", convHandler.Get)
			authed.POST("/conversations/:id/messages", msgHandler.Send)
			authed.GET("/conversations/:id/messages", msgHandler.List)
			authed.POST("/conversations/:id/read", msgHandler.MarkAsRead)
			authed.GET("/conversations/:id/unread", msgHandler.Unread)

			authed.GET("/presence/:user_id", presHandler.GetPresence)
			authed.POST("/presence/query", presHandler.Query)

			authed.POST("/upload/chat", uploadHandler.UploadChatMedia)
		}
	}

	r.GET("/ws/subscribe", subscribeHandler.Upgrade)

	return r
}
