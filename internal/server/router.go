package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/matchweek-backend/internal/handlers"
	"github.com/yungbote/matchweek-backend/internal/middleware"
)

type RouterConfig struct {
	HealthHandler       *handlers.HealthHandler
	AuthHandler         *handlers.AuthHandler
	SurveyHandler       *handlers.SurveyHandler
	MatchHandler        *handlers.MatchHandler
	AdminHandler        *handlers.AdminHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("matchweek"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.Check)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.Use(cfg.RateLimitMiddleware.Limit())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Survey
	protected.GET("/survey", cfg.SurveyHandler.GetActive)
	protected.GET("/survey/:slug", cfg.SurveyHandler.GetActive)
	protected.POST("/survey/:slug/submit", cfg.SurveyHandler.Submit)
	protected.PATCH("/survey/:slug/answers", cfg.SurveyHandler.Patch)
	protected.GET("/survey/:slug/status", cfg.SurveyHandler.Status)
	// Match
	protected.GET("/match/current", cfg.MatchHandler.GetCurrent)
	protected.POST("/match/current/view", cfg.MatchHandler.View)
	protected.POST("/match/current/accept", cfg.MatchHandler.Accept)
	protected.POST("/match/current/decline", cfg.MatchHandler.Decline)
	protected.POST("/match/current/block", cfg.MatchHandler.Block)
	protected.GET("/match/history", cfg.MatchHandler.History)
	protected.POST("/match/pause", cfg.MatchHandler.SetPaused)

	// ===============
	// || Admin     ||
	// ===============
	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/surveys/publish", cfg.SurveyHandler.PublishDefinition)
	admin.POST("/surveys/:slug/reconcile", cfg.SurveyHandler.Reconcile)
	admin.POST("/match/run", cfg.AdminHandler.RunMatching)
	admin.POST("/match/expire", cfg.AdminHandler.ExpireWeek)

	return router
}
