package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-kms/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kms/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-kms/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-kms/internal/config"
	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kms/internal/core/services"
	"github.com/custodia-labs/sercha-kms/internal/runtime"
)

// app holds the wired search pipeline shared by serve and search
type app struct {
	db            *postgres.DB
	redisClient   *redis.Client
	runtimeConfig *domain.RuntimeConfig
	services      *runtime.Services

	search        driving.SearchService
	augmentation  driving.AugmentationService
	conversations driving.ConversationService
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	if cfg.Database.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		log.Println("PostgreSQL connected and schema initialized")
	} else {
		log.Println("PostgreSQL connected")
	}

	// ===== Initialize Redis (optional) =====
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redisClient = redis.NewClient(opts)
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Println("Redis connected")
	}

	// ===== Conversation history (Redis if available, otherwise PostgreSQL) =====
	var history driven.HistoryStore
	if a.redisClient != nil {
		history = redisadapter.NewHistoryStore(a.redisClient, cfg.Redis.HistoryTTL, cfg.Redis.MaxTurns)
		log.Println("Using Redis history store")
	} else {
		history = postgres.NewHistoryStore(db)
		log.Println("Using PostgreSQL history store")
	}

	// ===== AI services =====
	a.runtimeConfig = domain.NewRuntimeConfig(cfg.HistoryBackend())
	a.services = runtime.NewServices(a.runtimeConfig)

	factory := ai.NewFactory(ai.FactoryOptions{
		LLMRequestsPerSecond: cfg.AI.RequestsPerSecond,
		LLMBurst:             cfg.AI.Burst,
		QueryCacheSize:       cfg.AI.QueryCacheSize,
		Breaker: ai.BreakerSettings{
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		},
		Logger: logger,
	})
	if cfg.AI.VerifyOnStart {
		err = a.services.ConfigureVerified(ctx, factory, cfg.AISettings())
		if errors.Is(err, domain.ErrServiceUnavailable) {
			logger.Warn("ai provider check failed, continuing without it", "error", err)
			err = nil
		}
	} else {
		err = a.services.Configure(factory, cfg.AISettings())
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configure ai services: %w", err)
	}

	// ===== Services (core business logic) =====
	a.conversations = services.NewConversationService(history, logger)
	a.augmentation = services.NewAugmentationService(history, a.services, services.AugmentationConfig{
		Timeout:            cfg.Augmentation.Timeout,
		HistoryLimit:       cfg.Augmentation.HistoryLimit,
		SkipWithoutHistory: !cfg.Augmentation.OptimizeWithoutHistory,
		Logger:             logger,
	})
	a.search = services.NewSearchService(
		postgres.NewDocumentStore(db),
		postgres.NewChunkStore(db),
		postgres.NewAgentStore(db),
		a.augmentation,
		a.services,
		services.SearchConfig{
			DefaultLimit:  cfg.Search.DefaultLimit,
			MaxLimit:      cfg.Search.MaxLimit,
			KeywordWeight: cfg.Search.KeywordWeight,
			VectorWeight:  cfg.Search.VectorWeight,
			CandidatePool: cfg.Search.CandidatePool,
			SignalTimeout: cfg.Search.SignalTimeout,
			Logger:        logger,
		},
	)

	log.Printf("Runtime config: history_backend=%s, embedding=%t, llm=%t",
		a.runtimeConfig.HistoryBackend,
		a.runtimeConfig.EmbeddingAvailable(),
		a.runtimeConfig.LLMAvailable())

	return a, nil
}

// Close releases AI services and connections
func (a *app) Close() {
	if a.services != nil {
		_ = a.services.Close()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
