package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobmail-intel/internal/classifier"
	"jobmail-intel/internal/config"
	"jobmail-intel/internal/extractor"
	"jobmail-intel/internal/fetcher"
	"jobmail-intel/internal/handlers"
	"jobmail-intel/internal/linker"
	"jobmail-intel/internal/llm"
	"jobmail-intel/internal/metrics"
	"jobmail-intel/internal/model"
	"jobmail-intel/internal/pipeline"
	"jobmail-intel/internal/repository"
	"jobmail-intel/internal/scheduler"
	"jobmail-intel/internal/thread"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Job Mail Intelligence Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize metrics
	m := metrics.NewMetrics()

	// Initialize repositories
	emailRepo := repository.NewEmailRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// Initialize pipeline components
	llmClient := llm.NewHTTPClient(&cfg.LLM)
	cls := classifier.NewClassifier(llmClient)
	ext := extractor.NewExtractor(llmClient)
	threads := thread.NewAggregator(emailRepo, cfg.Pipeline.SelfAddresses)
	jobLinker := linker.NewLinker(jobRepo, emailRepo)

	orchestrator := pipeline.NewOrchestrator(
		emailRepo, cls, ext, threads, jobLinker, m,
		cfg.Pipeline.ProcessingVersion, cfg.Pipeline.BatchWidth,
	)

	// Initialize mailbox sync scheduler when enabled
	var sched *scheduler.Scheduler
	var schedControl handlers.SchedulerControl
	var mailFetcher fetcher.EmailFetcher
	if cfg.Scheduler.Enabled {
		mailFetcher, err = fetcher.NewFetcher(&cfg.Gmail)
		if err != nil {
			logrus.Fatalf("Failed to create mail fetcher: %v", err)
		}
		if cfg.Gmail.UseIMAP {
			logrus.Info("Using IMAP for email fetching")
		} else {
			logrus.Info("Using Gmail API for email fetching")
		}

		sched = scheduler.NewScheduler(&cfg.Scheduler, mailFetcher, emailRepo, orchestrator, m)
		schedControl = sched
	}

	// Initialize HTTP handlers
	h := handlers.NewHandlers(orchestrator, emailRepo, schedControl, m, &cfg.Gateway)

	// Setup HTTP server
	router := setupRouter(h)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start scheduler
	if sched != nil {
		if err := sched.Start(); err != nil {
			logrus.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler and wait for in-flight cycles
	if sched != nil {
		if err := sched.Stop(); err != nil {
			logrus.Errorf("Failed to stop scheduler: %v", err)
		}
		sched.Wait()
	}

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	// Close fetcher
	if mailFetcher != nil {
		if err := mailFetcher.Close(); err != nil {
			logrus.Errorf("Failed to close fetcher: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
}

// initDatabase initializes the database connection and runs migrations
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// Configure GORM logger
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to database
	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Run migrations
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database initialized successfully")
	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(&model.Email{}, &model.JobApplication{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// setupRouter sets up the HTTP router with middleware
func setupRouter(h *handlers.Handlers) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())

	// Setup routes
	h.SetupRoutes(router)

	return router
}

// loggerMiddleware adds logging middleware
func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}
