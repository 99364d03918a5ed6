package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/teaching-assistant/internal/config"
	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/handlers"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories/gormrepo"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
	"github.com/SAP-F-2025/teaching-assistant/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := gormrepo.NewRepositoryManager(gormrepo.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Domain events: Kafka when brokers are configured, otherwise in-process with an audit log consumer
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
		publisher = kafkaPublisher
	} else {
		inProcess, subscriber := events.NewInProcessPublisher(slogLogger)
		if err := events.RunAuditLog(runCtx, subscriber, slogLogger); err != nil {
			log.Fatalf("Failed to start audit log: %v", err)
		}
		publisher = inProcess
	}

	store, err := storage.NewLocalStore(cfg.UploadFolder)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}
	logger.Info("Upload storage ready", "root", store.Root())

	// Initialize services
	deps := services.Deps{
		Logger:    slogLogger,
		Validator: validator.New(),
		Events:    publisher,
	}
	serviceManager := services.NewServiceManager(repoManager, deps, store)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if cfg.SeedDemoData {
		created, err := serviceManager.Seed().SeedDemoData(context.Background())
		if err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		logger.Info("Demo data seeded", "users_created", created)
	}

	// Pages render through templates when a directory is configured
	var renderer handlers.Renderer = handlers.JSONRenderer{}
	if cfg.TemplatesDir != "" {
		htmlRenderer, err := handlers.NewHTMLRenderer(cfg.TemplatesDir, logger)
		if err != nil {
			log.Fatalf("Failed to load templates: %v", err)
		}
		renderer = htmlRenderer
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, handlers.HandlerConfig{
		Sessions:      session.NewManager(cfg.SecretKey, cfg.SessionTTL, cfg.RememberTTL),
		Renderer:      renderer,
		SecureCookies: cfg.CookieSecure,
	})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxContentLength

	handlers.SetupMiddleware(router, logger, cfg.MaxContentLength)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the event publisher, the database and Redis
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	stopRun()

	logger.Info("Server exited")
}
