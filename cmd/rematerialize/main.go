package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/config"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/infrastructure/llm"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/repository"
	"github.com/mansoorceksport/fitcoach/internal/service"
)

// rematerialize re-parses stored program texts and rebuilds their exercise
// records, keeping completion by position. Run it after parser changes.
func main() {
	programID := flag.Uint("program", 0, "Only this program id")
	userID := flag.String("user", "", "Only programs of this user")
	useLLM := flag.Bool("llm", false, "Allow model-assisted extraction while parsing")
	dryRun := flag.Bool("dry-run", false, "List the programs that would be rebuilt")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Options{Mode: "development", HashSalt: cfg.Log.HashSalt})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := repository.OpenRelational(repository.RelationalConfig{
		Driver:     cfg.Postgres.Driver,
		DSN:        cfg.Postgres.ConnectionString(),
		SQLitePath: cfg.Postgres.SQLitePath,
	})
	if err != nil {
		log.Fatal("failed to open relational store", "error", err)
	}

	var completer domain.TextCompleter
	if *useLLM {
		completer, err = llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
			Timeout:  cfg.LLM.Timeout,
		}, nil, log)
		if err != nil {
			log.Fatal("failed to create llm client", "error", err)
		}
	}

	// cached plan views are dropped when redis is reachable
	var cache domain.CacheRepository
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, cached plan views will expire on their own", "error", err)
	} else {
		cache = repository.NewRedisCacheRepository(redisClient)
	}

	programs := repository.NewGormProgramRepository(db, log)
	parser := coach.NewParser(completer, coach.ParserOptions{
		Timeout:         cfg.LLM.Timeout,
		FallbackTimeout: cfg.LLM.FallbackTimeout,
		FallbackModel:   cfg.LLM.FallbackModel,
		Logger:          log,
	})
	plans := service.NewPlanService(
		programs,
		repository.NewGormExerciseRecordRepository(db, log),
		repository.NewGormWorkoutLogRepository(db, log),
		repository.NewGormTransactor(db),
		parser,
		cache,
		cfg.Redis.CacheTTL,
		nil,
		log,
	)

	targets, err := selectPrograms(ctx, programs, *programID, *userID)
	if err != nil {
		log.Fatal("failed to list programs", "error", err)
	}
	log.Info("programs selected", "count", len(targets))

	var rebuilt, failed int
	for _, p := range targets {
		if *dryRun {
			fmt.Printf("%d\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format(time.RFC3339))
			continue
		}
		n, err := plans.Rematerialize(ctx, p)
		if err != nil {
			failed++
			log.Error("rematerialize failed", "program_id", p.ID, "error", err)
			continue
		}
		rebuilt++
		log.Debug("program rebuilt", "program_id", p.ID, "records", n)
	}
	log.Info("rematerialize finished", "rebuilt", rebuilt, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func selectPrograms(ctx context.Context, programs domain.ProgramRepository, programID uint, userID string) ([]*domain.Program, error) {
	switch {
	case programID != 0:
		p, err := programs.GetByID(ctx, programID)
		if err != nil {
			return nil, err
		}
		return []*domain.Program{p}, nil
	case userID != "":
		return programs.ListByUser(ctx, userID)
	default:
		return programs.ListAll(ctx)
	}
}
