package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/config"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/handler"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/middleware"
	"github.com/mansoorceksport/fitcoach/internal/repository"
	"github.com/mansoorceksport/fitcoach/internal/service"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

const retrievalCacheTTL = time.Hour

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	AuthClient  middleware.FirebaseAuthClient
	Completer   domain.TextCompleter
	Metrics     *telemetry.Metrics
	Logger      *logger.Logger

	// Conversations and Retriever default to the Mongo-backed implementations.
	Conversations domain.ConversationRepository
	Retriever     domain.ContextRetriever
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	// Initialize repositories
	programRepo := repository.NewGormProgramRepository(deps.DB, log)
	recordRepo := repository.NewGormExerciseRecordRepository(deps.DB, log)
	logRepo := repository.NewGormWorkoutLogRepository(deps.DB, log)
	profileRepo := repository.NewGormProfileRepository(deps.DB, log)
	transactor := repository.NewGormTransactor(deps.DB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	conversations := deps.Conversations
	if conversations == nil {
		conversations = repository.NewMongoConversationRepository(context.Background(), deps.MongoDB)
	}
	retriever := deps.Retriever
	if retriever == nil && deps.MongoDB != nil {
		retriever = repository.NewCachedRetriever(repository.NewMongoKnowledgeRetriever(deps.MongoDB), cacheRepo, retrievalCacheTTL)
	}

	// Coaching engine
	parser := coach.NewParser(deps.Completer, coach.ParserOptions{
		Timeout:         cfg.LLM.Timeout,
		FallbackTimeout: cfg.LLM.FallbackTimeout,
		FallbackModel:   cfg.LLM.FallbackModel,
		Logger:          log,
		Recorder:        deps.Metrics,
	})
	mutator := coach.NewMutator(deps.Completer, parser, cfg.LLM.Timeout, log)
	llm := service.LLMSettings{
		Completer:        deps.Completer,
		Retriever:        retriever,
		Timeout:          cfg.LLM.Timeout,
		RetrieverTimeout: cfg.LLM.RetrieverTimeout,
		TopK:             cfg.LLM.RetrieverTopK,
	}

	// Initialize services
	planService := service.NewPlanService(programRepo, recordRepo, logRepo, transactor, parser, cacheRepo, cfg.Redis.CacheTTL, deps.Metrics, log)
	programService := service.NewProgramService(profileRepo, planService, parser, llm, log)
	feedbackService := service.NewFeedbackService(planService, profileRepo, conversations, mutator, llm, log)
	analyticsService := service.NewAnalyticsService(planService, logRepo, log)
	dashboardService := service.NewDashboardService(planService, recordRepo, logRepo, profileRepo, cacheRepo, cfg.Redis.CacheTTL, llm, log)

	// Initialize handlers
	planHandler := handler.NewPlanHandler(planService, log)
	programHandler := handler.NewProgramHandler(programService, log)
	coachHandler := handler.NewCoachHandler(feedbackService, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, dashboardService, log)

	bodyLimit := cfg.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 2
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "FitCoach API",
		BodyLimit:    int(bodyLimit * 1024 * 1024),
		ErrorHandler: errorHandler(log),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "X-Trace-ID, X-Idempotent-Replay",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "fitcoach-api",
		})
	})

	// API v1 routes, all authenticated
	v1 := app.Group("/v1")
	v1.Use(authMiddleware(cfg, deps.AuthClient))
	v1.Use(middleware.RequireUser())
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Server.IdempotencyTTL, log))

	v1.Get("/profile", programHandler.GetProfile)
	v1.Put("/profile", programHandler.UpsertProfile)

	programs := v1.Group("/programs")
	programs.Post("/generate", programHandler.Generate)
	programs.Post("/", programHandler.Create)
	programs.Get("/", programHandler.List)

	plans := v1.Group("/plans")
	plans.Get("/current", planHandler.GetCurrentPlan)
	plans.Patch("/exercises/:exerciseID", planHandler.ToggleExercise)
	plans.Post("/weeks", planHandler.GenerateNextWeek)

	workouts := v1.Group("/workouts")
	workouts.Post("/complete-day", planHandler.CompleteDay)
	workouts.Get("/logs", planHandler.ListLogs)

	coachGroup := v1.Group("/coach")
	coachGroup.Post("/feedback", coachHandler.Feedback)
	coachGroup.Get("/conversations", coachHandler.ListConversations)

	v1.Get("/progress", analyticsHandler.GetProgress)
	v1.Get("/progress/achievements", analyticsHandler.GetAchievements)
	v1.Get("/dashboard", analyticsHandler.GetDashboard)

	return app
}

func authMiddleware(cfg *config.Config, authClient middleware.FirebaseAuthClient) fiber.Handler {
	if cfg.Auth.Mode == config.AuthModeJWT {
		return middleware.VerifyCoachToken(service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry))
	}
	return middleware.FirebaseAuth(authClient)
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   msg,
		})
	}
}
