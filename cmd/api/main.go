package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/mirai/internal/api"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/cache"
	"github.com/timmy/mirai/internal/config"
	"github.com/timmy/mirai/internal/inference"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/ratelimit"
	"github.com/timmy/mirai/internal/repository"
	"github.com/timmy/mirai/internal/service"
	"github.com/timmy/mirai/internal/storage"
	"github.com/timmy/mirai/internal/tagger"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	imageRepo := repository.NewImageRepository(db)
	userRepo := repository.NewUserRepository(db)
	socialRepo := repository.NewSocialRepository(db)

	// Initialize redis-backed rate limit counters
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisCache.Close()
	limiter := ratelimit.NewLimiter(redisCache)

	ctx := context.Background()

	// Initialize storage (supports MinIO, R2, S3)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.Fatalf("Failed to ensure storage bucket: %v", err)
	}

	// Initialize the optional vector index for semantic explore search
	var vectorRepo *repository.VectorRepository
	if cfg.Qdrant.Enabled {
		vectorRepo, err = repository.NewVectorRepository(&repository.VectorConnectionConfig{
			Host:            cfg.Qdrant.Host,
			Port:            cfg.Qdrant.Port,
			Collection:      cfg.Qdrant.Collection,
			APIKey:          cfg.Qdrant.APIKey,
			UseTLS:          cfg.Qdrant.UseTLS,
			VectorDimension: cfg.Embedding.Dimensions,
		})
		if err != nil {
			appLogger.Fatalf("Failed to initialize vector repository: %v", err)
		}
		defer vectorRepo.Close()

		if err := vectorRepo.EnsureCollection(ctx); err != nil {
			appLogger.Fatalf("Failed to ensure vector collection: %v", err)
		}
		appLogger.Infof("Semantic search enabled: collection=%s", cfg.Qdrant.Collection)
	}

	// Initialize services
	inferenceClient := inference.NewClient(&inference.Config{
		BaseURL:      cfg.Inference.BaseURL,
		APIKey:       cfg.Inference.APIKey,
		FastModel:    cfg.Inference.FastModel,
		QualityModel: cfg.Inference.QualityModel,
		Timeout:      cfg.Inference.Timeout,
	})

	promptTagger := tagger.NewTagger(&tagger.Config{
		Enabled: cfg.Tagger.Enabled,
		Model:   cfg.Tagger.Model,
		APIKey:  cfg.Tagger.APIKey,
		BaseURL: cfg.Tagger.BaseURL,
	})
	if promptTagger.IsEnabled() {
		appLogger.Infof("Prompt tagging enabled: model=%s", cfg.Tagger.Model)
	}

	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})

	urlFor := service.NewURLResolver(cfg.Storage.PublicURL, cfg.Server.BaseURL)

	generationService := service.NewGenerationService(
		jobRepo, imageRepo, userRepo,
		objectStorage, inferenceClient, promptTagger,
		embeddingService, vectorRepo, limiter, urlFor,
		service.GenerationConfig{
			AnonPerHour:          cfg.RateLimit.AnonPerHour,
			UserFastPerWindow:    cfg.RateLimit.UserFastPerWindow,
			UserQualityPerWindow: cfg.RateLimit.UserQualityPerWindow,
			UserWindow:           time.Duration(cfg.RateLimit.UserWindowMinutes) * time.Minute,
			StaleAfter:           cfg.Jobs.StaleAfter,
		},
	)
	imageService := service.NewImageService(imageRepo, socialRepo, objectStorage, vectorRepo, urlFor)
	socialService := service.NewSocialService(socialRepo, imageRepo, userRepo)
	userService := service.NewUserService(userRepo, imageRepo, imageService)
	exploreService := service.NewExploreService(imageRepo, vectorRepo, embeddingService, imageService)

	// Setup router
	router := api.SetupRouter(
		&api.Services{
			Generation: generationService,
			Images:     imageService,
			Social:     socialService,
			Users:      userService,
			Explore:    exploreService,
			Store:      objectStorage,
		},
		appLogger,
		middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		cfg.Server.Mode,
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout. In-flight generation goroutines
	// that miss the window are reconciled by the stale-job check.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
