package app

import (
	"copilot_inside_backend/docs"
	"copilot_inside_backend/internal/config"
	"copilot_inside_backend/internal/middleware"
	"copilot_inside_backend/internal/model"

	"copilot_inside_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearnerRoutes(authGroup, c)
		a.registerManagerRoutes(authGroup, c)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)

	// 学习主流程
	learning := rg.Group("/learning")
	{
		learning.GET("/catalog", c.learning.GetCatalog)
		learning.GET("/position", c.learning.GetPosition)
		learning.POST("/events", c.learning.PostEvent)
		learning.POST("/advance", c.learning.Advance)
		learning.POST("/select", c.learning.SelectActivity)
		learning.POST("/lessons/:lessonId/conclusion", c.learning.JumpToConclusion)
		learning.POST("/ratings", c.learning.RateLesson)
	}

	// 原始进度契约
	rg.POST("/progress", c.progress.Upsert)
	rg.GET("/progress/:userId", c.progress.GetByUser)

	// 聊天练习
	chat := rg.Group("/chat")
	{
		chat.POST("/stream", c.chat.Stream)
		chat.GET("/history", c.chat.GetHistory)
	}

	// 上传练习
	submissions := rg.Group("/submissions")
	{
		submissions.POST("", c.submission.Upload)
		submissions.POST("/grade", c.submission.Grade)
	}
}

func (a *App) registerManagerRoutes(rg *gin.RouterGroup, c *controllers) {
	manager := rg.Group("/manager")
	manager.Use(middleware.RoleMiddleware(model.Manager, model.Admin))
	{
		manager.GET("/overview", c.manager.GetOverview)
		manager.GET("/learners", c.manager.ListLearners)
	}
}
