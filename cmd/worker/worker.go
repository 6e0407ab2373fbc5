package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/ai"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/config"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/database"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/queue"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/scheduler"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
)

// The worker owns everything that runs off the request path: queued
// embedding repairs and the recurring maintenance schedules.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer db.Close()

	// The worker writes embeddings during repair, so it runs the same
	// dimension check as the API.
	if dim, err := database.EmbeddingDimension(context.Background(), db); err != nil {
		logger.Warn("could not verify embedding index dimension", "error", err)
	} else if dim != cfg.VectorDimensions {
		log.Fatalf("Embedding index dimension %d does not match VECTOR_DIM %d", dim, cfg.VectorDimensions)
	}

	geminiClient := ai.NewClient(cfg.GeminiModel, cfg.GeminiEmbeddingModel, cfg.GeminiTier)
	configService := services.NewConfigService(db, cfg.GeminiAPIKey)
	// The worker repairs in place, it never re-enqueues itself.
	catalogService := services.NewCatalogService(db, geminiClient, configService, nil)
	sessionService := services.NewSessionService(db)

	// Recurring maintenance
	sched := scheduler.New()
	if err := sched.ScheduleCron("session-cleanup", cfg.SessionCleanupCron, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		cleaned, err := sessionService.CleanupInactiveSessions(ctx)
		if err != nil {
			logger.Error("session cleanup failed", "error", err)
			return err
		}
		if cleaned > 0 {
			logger.Info("session cleanup finished", "deactivated", cleaned)
		}
		return nil
	}); err != nil {
		log.Fatal("Failed to schedule session cleanup:", err)
	}

	// Safety net for repair tasks lost between enqueue and processing.
	if err := sched.ScheduleInterval("embedding-repair-sweep", 6*time.Hour, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		_, _, err := catalogService.RepairMissingEmbeddings(ctx)
		return err
	}); err != nil {
		log.Fatal("Failed to schedule embedding repair sweep:", err)
	}

	sched.Start()
	defer sched.Stop()

	server := asynq.NewServer(
		queue.RedisConnOpt(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB),
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(catalogService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskEmbeddingRepair, processor.HandleEmbeddingRepair)

	logger.Info("starting worker",
		"concurrency", cfg.WorkerConcurrency,
		"redis", cfg.RedisURL,
		"session_cleanup_cron", cfg.SessionCleanupCron)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
