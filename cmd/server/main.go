package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/config"
	"github.com/studypath/practice-engine/internal/events"
	"github.com/studypath/practice-engine/internal/handlers"
	"github.com/studypath/practice-engine/internal/repositories/gormdb"
	"github.com/studypath/practice-engine/internal/services"
	enginesync "github.com/studypath/practice-engine/internal/sync"
	"github.com/studypath/practice-engine/internal/validator"
	"github.com/studypath/practice-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	if err := gormdb.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	repo := gormdb.New(db)

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to init event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()

	tracker := services.NewProficiencyTracker(repo, logger)
	selector := services.NewAdaptiveSelector(logger)
	questionService := services.NewQuestionService(repo, logger, v)
	importService := services.NewImportService(questionService, logger)
	sessionService := services.NewSessionService(repo, selector, tracker, publisher, logger, v)
	analyticsService := services.NewAnalyticsService(repo, tracker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The sync coordinator is optional: without a reachable remote the engine
	// still serves sessions from local storage.
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("remote sync store unreachable, running offline", "error", err)
	} else {
		defer redisClient.Close()
		remote := enginesync.NewRedisRemoteStore(redisClient)
		coordinator := enginesync.NewCoordinator(
			repo, remote, tracker, publisher, logger,
			cfg.SyncInterval, cfg.SyncMaxElapsed,
		)
		go coordinator.Run(ctx)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	handlerManager := handlers.NewHandlerManager(
		sessionService, questionService, importService, analyticsService, logger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.Port,
			"device_id", cfg.DeviceID,
			"environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if cfg.EventsPublisher == "kafka" {
		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.EventsTopic,
			Logger:       logger,
		})
	}
	return events.NewMockEventPublisher(logger), nil
}
