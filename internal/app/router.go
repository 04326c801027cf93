package app

import (
	"coursegate_backend/internal/config"
	"coursegate_backend/internal/middleware"
	"coursegate_backend/internal/model"
	"coursegate_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes: no login required.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// Gateway intake; authenticated by the gateway's delivery contract,
		// not a member JWT.
		public.POST("/webhooks/payment", c.webhook.PaymentEvent)
	}

	// Member routes.
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		authGroup.GET("/courses", c.course.List)
		authGroup.GET("/courses/:slug", c.course.Detail)
		authGroup.GET("/courses/:slug/progress", c.course.Progress)
		authGroup.GET("/courses/:slug/timeline", c.progress.Timeline)
		authGroup.GET("/lessons/:id/materials", c.course.Materials)

		authGroup.POST("/progress/watch", c.progress.RecordWatch)
		authGroup.GET("/progress/stats", c.progress.Stats)

		authGroup.GET("/notifications", c.notification.Inbox)
		authGroup.GET("/notifications/unread", c.notification.UnreadCount)
		authGroup.POST("/notifications/:id/read", c.notification.MarkRead)
	}

	// Admin routes.
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.POST("/courses", c.admin.CreateCourse)
		adminGroup.POST("/modules", c.admin.CreateModule)
		adminGroup.POST("/lessons", c.admin.CreateLesson)
		adminGroup.POST("/lessons/:id/materials", c.admin.UploadMaterial)

		adminGroup.POST("/purchases/:id/revoke", c.admin.RevokePurchase)
		adminGroup.GET("/users/:id/purchases", c.admin.ListUserPurchases)

		adminGroup.POST("/notifications", c.notification.Send)
		adminGroup.POST("/notifications/:id/retry", c.notification.RetryFanout)
	}
}
