package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/ai"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/config"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/database"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/queue"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/telemetry"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/middleware"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/routes"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("pds-chatbot-api", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled, failed to init tracer", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer db.Close()

	if dim, err := database.EmbeddingDimension(context.Background(), db); err != nil {
		logger.Warn("could not verify embedding index dimension", "error", err)
	} else if dim != cfg.VectorDimensions {
		log.Fatalf("Embedding index dimension %d does not match VECTOR_DIM %d", dim, cfg.VectorDimensions)
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	queueClient := queue.NewClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer queueClient.Close()

	jwtExpiry, err := time.ParseDuration(cfg.JWTExpiresIn)
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	// Wire services
	geminiClient := ai.NewClient(cfg.GeminiModel, cfg.GeminiEmbeddingModel, cfg.GeminiTier)
	configService := services.NewConfigService(db, cfg.GeminiAPIKey)
	catalogService := services.NewCatalogService(db, geminiClient, configService, queueClient)
	ragService := services.NewRAGService(db, geminiClient, configService)
	llmService := services.NewLLMService(geminiClient, configService)
	sessionService := services.NewSessionService(db)
	metricsService := services.NewMetricsService(geminiClient, configService)
	dashboardService := services.NewDashboardService(db, configService, cfg.GeminiModel)
	exportService := services.NewExportService(db)
	authService := services.NewAuthService(db, cfg.JWTSecret, jwtExpiry, cfg.BcryptCost)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("pds-chatbot-api"))
	}
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	routes.SetupAuthRoutes(router, authService, authMiddleware)
	routes.SetupChatRoutes(router, routes.ChatDeps{
		Config:   cfg,
		Sessions: sessionService,
		Configs:  configService,
		RAG:      ragService,
		LLM:      llmService,
	})
	routes.SetupAdminRoutes(router, routes.AdminDeps{
		Catalog:   catalogService,
		Configs:   configService,
		RAG:       ragService,
		LLM:       llmService,
		Metrics:   metricsService,
		Dashboard: dashboardService,
		Export:    exportService,
	}, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
