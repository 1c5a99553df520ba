package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/chat"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/internal/server"
	"github.com/spendlens/spendlens/internal/storage"
	"github.com/spendlens/spendlens/pkg/database"
	"github.com/spendlens/spendlens/pkg/utils"
)

func main() {
	// Load .env if present, then configuration
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting SpendLens API",
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.Error(err))
	}

	// Initialize repositories
	repos := server.Repositories{
		Vendors:   repository.NewVendorRepository(db.DB, logger),
		Customers: repository.NewCustomerRepository(db.DB, logger),
		Invoices:  repository.NewInvoiceRepository(db.DB, logger),
		LineItems: repository.NewLineItemRepository(db.DB, logger),
		Documents: repository.NewDocumentRepository(db.DB, logger),
		Users:     repository.NewUserRepository(db.DB, logger),
	}

	// Initialize services
	analyticsService := analytics.NewService(repos.Invoices, repos.Documents, logger)
	chatProxy := chat.NewProxy(cfg.Chat.BaseURL, cfg.Chat.APIKey, cfg.Chat.Timeout, logger)
	uploads := storage.NewUploadStore(cfg.Upload.Dir, cfg.Upload.MaxSizeMB*1024*1024, logger)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(cfg.Server, repos, analyticsService, chatProxy, uploads, logger)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
