package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/readly-ai/readly/api"
	"github.com/readly-ai/readly/api/handler"
	"github.com/readly-ai/readly/api/middleware"
	appconfig "github.com/readly-ai/readly/config"
	"github.com/readly-ai/readly/internal/cache"
	"github.com/readly-ai/readly/internal/chunker"
	"github.com/readly-ai/readly/internal/database"
	"github.com/readly-ai/readly/internal/embedding"
	"github.com/readly-ai/readly/internal/llm"
	"github.com/readly-ai/readly/internal/repository"
	"github.com/readly-ai/readly/internal/retrieval"
	"github.com/readly-ai/readly/internal/services"
	"github.com/readly-ai/readly/pkg/storage"
	"github.com/readly-ai/readly/pkg/taskqueue"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	mode := flag.String("mode", "release", "run mode (debug/release)")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Log)
	logger.Info("Starting Readly...")

	if err := database.Setup(&database.Config{
		Type:         cfg.Database.Type,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	store, err := retrieval.NewStore(retrieval.Config{
		Type:      cfg.Store.Type,
		Path:      cfg.Store.Path,
		Dimension: cfg.Store.Dimension,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize vector store: %v", err)
	}
	defer store.Close()

	embedClient, err := embedding.NewClient(cfg.Embed.Provider,
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithBaseURL(cfg.Embed.Endpoint),
		embedding.WithDimensions(cfg.Embed.Dimensions),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM.Provider,
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.Endpoint),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	answerCache, err := cache.NewCache(cache.Config{
		Type:            cfg.Cache.Type,
		RedisAddr:       cfg.Cache.Address,
		RedisPassword:   cfg.Cache.Password,
		RedisDB:         cfg.Cache.DB,
		DefaultTTL:      cfg.Cache.CacheTTL(),
		CleanupInterval: 10 * time.Minute,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	textChunker := chunker.New(chunker.Config{
		MaxChunkSize:       cfg.Chunker.ChunkSize,
		OverlapSize:        cfg.Chunker.ChunkOverlap,
		PreservePageBreaks: cfg.Chunker.PreservePageBreaks,
	})
	batchEmbedder := embedding.NewBatchProcessor(embedClient, cfg.Embed.BatchSize, cfg.Embed.MaxConcurrent)

	docRepo := repository.NewDocumentRepository()
	chatRepo := repository.NewChatRepository()

	documentOptions := []services.DocumentOption{
		services.WithDocumentLogger(logger),
		services.WithURLExpiry(time.Duration(cfg.Storage.URLExpiry) * time.Second),
	}

	var queue taskqueue.Queue
	if cfg.Queue.Enable {
		queue, err = taskqueue.NewQueue(cfg.Queue.Type, &taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		documentOptions = append(documentOptions, services.WithTaskQueue(queue))
		logger.Info("Task queue enabled, documents will be ingested asynchronously")
	}

	documentService := services.NewDocumentService(
		fileStorage,
		docRepo,
		textChunker,
		batchEmbedder,
		store,
		documentOptions...,
	)

	rag := llm.NewRAG(llmClient,
		llm.WithRAGMaxTokens(cfg.LLM.MaxTokens),
		llm.WithRAGTemperature(cfg.LLM.Temperature),
	)
	qaService := services.NewQAService(embedClient, store, rag, answerCache,
		services.WithSearchLimit(cfg.Search.Limit),
		services.WithMinScore(cfg.Search.MinScore),
		services.WithCacheTTL(cfg.Cache.CacheTTL()),
	)
	chatService := services.NewChatService(qaService, chatRepo, docRepo, logger)

	// With the queue enabled, a worker in this process executes the
	// ingestion tasks.
	if queue != nil {
		worker, err := startWorker(queue, documentService, cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
	}

	router := api.SetupRouter(
		handler.NewDocumentHandler(documentService),
		handler.NewChatHandler(chatService),
		handler.NewQAHandler(qaService),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, adding rotating file output
// when a log file is configured.
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

func setupStorage(cfg appconfig.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	case "local", "":
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %v", err)
		}
		return storage.NewLocalStorage(storage.LocalConfig{Path: cfg.Path})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// startWorker registers the ingestion handler and starts processing
// queued tasks.
func startWorker(queue taskqueue.Queue, documentService *services.DocumentService, cfg *appconfig.Config, logger *logrus.Logger) (taskqueue.Worker, error) {
	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		return nil, fmt.Errorf("task worker requires a redis queue")
	}

	worker := taskqueue.NewRedisWorker(redisQueue, &taskqueue.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		RetryLimit:    cfg.Queue.RetryLimit,
	})

	docHandler := taskqueue.NewDocumentHandler(documentService, logger)
	for _, taskType := range docHandler.TaskTypes() {
		worker.RegisterHandler(taskType, docHandler)
	}

	if err := worker.Start(); err != nil {
		return nil, err
	}
	logger.Info("Task worker started")
	return worker, nil
}
