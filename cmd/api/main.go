package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"persona-engine/internal/config"
	"persona-engine/internal/db"
	apihttp "persona-engine/internal/http"
	"persona-engine/internal/llm"
	"persona-engine/internal/repository"
	"persona-engine/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
	}

	var store repository.SessionStore
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		pgStore := repository.NewPgSessionStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("ensure schema", zap.Error(err))
		}
		store = pgStore
	case config.StoreBackendRedis:
		store = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL())
	default:
		store = repository.NewMemorySessionStore()
	}

	var llmClient llm.LLMClient
	switch cfg.LLMProvider {
	case config.LLMProviderOpenAI:
		llmClient = llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	default:
		llmClient = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	}
	collab := service.NewLLMCollaborators(llmClient, nil)

	engine := service.NewScoringEngine(store, service.Collaborators{
		Character: collab,
		Impact:    collab,
		Assessor:  collab,
	}, service.EngineOptions{
		CollaboratorTimeout: cfg.CollaboratorTimeout(),
		DominantTraitLimit:  cfg.DominantTraitLimit,
		RevealInterval:      cfg.RevealInterval,
		RevealTraitLimit:    cfg.RevealTraitLimit,
	}, logger)

	authSvc := service.NewAuthService(cfg.AuthSecret, 0)
	if !authSvc.Enabled() {
		logger.Warn("auth secret not configured, sessions API is open")
	}

	var limiter service.DecisionRateLimiter
	if redisClient != nil {
		limiter = service.NewRedisDecisionRateLimiter(redisClient, cfg.DecisionRateWindow(), cfg.DecisionRateLimit)
	}

	sessionHandler := apihttp.NewSessionHandler(logger, engine, limiter)
	router := apihttp.NewRouter(logger, sessionHandler, authSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	// Cierra las sesiones y vacia los snapshots pendientes.
	if err := engine.Close(shutdownCtx); err != nil {
		logger.Warn("engine close", zap.Error(err))
	}
	logger.Info("server stopped")
}
