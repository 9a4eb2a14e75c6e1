package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/matchweek-backend/internal/clients/redis"
	"github.com/yungbote/matchweek-backend/internal/db"
	"github.com/yungbote/matchweek-backend/internal/handlers"
	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/matching"
	"github.com/yungbote/matchweek-backend/internal/middleware"
	"github.com/yungbote/matchweek-backend/internal/observability"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/server"
	"github.com/yungbote/matchweek-backend/internal/services"
	"github.com/yungbote/matchweek-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "matchweek",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	timezone := utils.GetEnv("MATCH_TIMEZONE", "America/New_York", log)
	matchCfg := matching.ConfigFromEnv(log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	tenantRepo := repos.NewTenantRepo(thePG, log)
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	userBlockRepo := repos.NewUserBlockRepo(thePG, log)
	surveyDefinitionRepo := repos.NewSurveyDefinitionRepo(thePG, log)
	surveySessionRepo := repos.NewSurveySessionRepo(thePG, log)
	reconciliationStateRepo := repos.NewReconciliationStateRepo(thePG, log)
	userTraitsRepo := repos.NewUserTraitsRepo(thePG, log)
	weeklyAssignmentRepo := repos.NewWeeklyAssignmentRepo(thePG, log)
	matchRunLogRepo := repos.NewMatchRunLogRepo(thePG, log)

	// Single-tenant bootstrap: every user row hangs off this tenant.
	defaultTenant, err := tenantRepo.EnsureDefault(context.Background(), nil,
		utils.GetEnv("TENANT_SLUG", "default", log), "Matchweek", timezone)
	if err != nil {
		log.Error("Tenant bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Redis
	log.Info("Setting up redis rate limiter from main...")
	rateLimiter, err := redis.NewRateLimiter(log)
	if err != nil {
		log.Warn("Redis rate limiter unavailable, requests will not be limited", "error", err)
		rateLimiter = nil
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second,
		defaultTenant.ID)
	reconciliationService := services.NewReconciliationService(thePG, log, surveyDefinitionRepo,
		surveySessionRepo, reconciliationStateRepo, userTraitsRepo)
	surveyService := services.NewSurveyService(thePG, log, surveyDefinitionRepo, surveySessionRepo,
		reconciliationStateRepo, reconciliationService)
	matchRunService := services.NewMatchRunService(thePG, log, userRepo, userTraitsRepo,
		reconciliationStateRepo, weeklyAssignmentRepo, matchRunLogRepo, userBlockRepo,
		reconciliationService, matchCfg, timezone)
	matchService := services.NewMatchService(thePG, log, weeklyAssignmentRepo, userBlockRepo, userRepo, timezone)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler(thePG)
	authHandler := handlers.NewAuthHandler(authService)
	surveyHandler := handlers.NewSurveyHandler(surveyService, reconciliationService)
	matchHandler := handlers.NewMatchHandler(matchService)
	adminHandler := handlers.NewAdminHandler(matchRunService, matchService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, rateLimiter)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		HealthHandler:       healthHandler,
		AuthHandler:         authHandler,
		SurveyHandler:       surveyHandler,
		MatchHandler:        matchHandler,
		AdminHandler:        adminHandler,
		AuthMiddleware:      authMiddleware,
		RateLimitMiddleware: rateLimitMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
