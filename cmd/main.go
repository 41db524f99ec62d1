package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/mansoorceksport/fitcoach/internal/config"
	"github.com/mansoorceksport/fitcoach/internal/infrastructure/llm"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/middleware"
	"github.com/mansoorceksport/fitcoach/internal/repository"
	"github.com/mansoorceksport/fitcoach/internal/server"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, HashSalt: cfg.Log.HashSalt})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting fitcoach api", "version", cfg.OTEL.ServiceVersion)

	ctx := context.Background()

	// Grafana Cloud requires Basic auth with instanceId:apiToken base64 encoded
	authEncoded := base64.StdEncoding.EncodeToString([]byte(cfg.OTEL.InstanceID + ":" + cfg.OTEL.Token))
	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPURLPrefix:  cfg.OTEL.URLPrefix,
		OTLPHeaders: map[string]string{
			"Authorization": "Basic " + authEncoded,
		},
		Enabled: cfg.OTEL.Enabled,
	}, log)
	if err != nil {
		log.Warn("failed to initialize opentelemetry", "error", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				log.Warn("opentelemetry shutdown failed", "error", err)
			}
		}()
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Warn("failed to create metric instruments", "error", err)
	}

	deps := server.AppDependencies{Config: cfg, Metrics: metrics, Logger: log}

	// Auth: Firebase ID tokens, or locally issued HS256 tokens in jwt mode
	if cfg.Auth.Mode == config.AuthModeFirebase {
		firebaseApp, err := middleware.InitFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.PrivateKey, cfg.Firebase.ClientEmail)
		if err != nil {
			log.Fatal("failed to initialize firebase", "error", err)
		}
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatal("failed to get firebase auth client", "error", err)
		}
		deps.AuthClient = authClient
		log.Info("firebase initialized")
	}

	// Relational store
	db, err := repository.OpenRelational(repository.RelationalConfig{
		Driver:     cfg.Postgres.Driver,
		DSN:        cfg.Postgres.ConnectionString(),
		SQLitePath: cfg.Postgres.SQLitePath,
	})
	if err != nil {
		log.Fatal("failed to open relational store", "driver", cfg.Postgres.Driver, "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	deps.DB = db
	log.Info("relational store connected", "driver", cfg.Postgres.Driver)

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}
	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		log.Fatal("failed to connect to mongodb", "error", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn("error disconnecting from mongodb", "error", err)
		}
	}()
	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		log.Fatal("failed to ping mongodb", "error", err)
	}
	deps.MongoDB = mongoClient.Database(cfg.MongoDB.Database)
	if err := repository.NewMongoKnowledgeRetriever(deps.MongoDB).EnsureIndexes(ctxMongo); err != nil {
		log.Warn("failed to ensure knowledge index", "error", err)
	}
	log.Info("mongodb connected")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", "error", err)
	}
	deps.RedisClient = redisClient
	log.Info("redis connected")

	completer, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Title:    "FitCoach",
		Timeout:  cfg.LLM.Timeout + cfg.LLM.FallbackTimeout,
	}, metrics, log)
	if err != nil {
		log.Fatal("failed to create llm client", "error", err)
	}
	deps.Completer = completer

	app := server.NewApp(deps)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutting down gracefully")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("shutdown did not complete cleanly", "error", err)
		}
	}()

	log.Info("server starting", "port", cfg.Server.Port, "auth_mode", cfg.Auth.Mode, "llm_provider", cfg.LLM.Provider)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
}
