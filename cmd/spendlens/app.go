package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/pkg/database"
	"github.com/spendlens/spendlens/pkg/utils"
)

// app bundles the shared wiring every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	vendors   *repository.VendorRepository
	customers *repository.CustomerRepository
	invoices  *repository.InvoiceRepository
	lineItems *repository.LineItemRepository
	payments  *repository.PaymentRepository
	documents *repository.DocumentRepository
	analytics *repository.AnalyticsRepository
}

// newApp loads configuration, opens the database and runs migrations.
// The caller must invoke close when done.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		vendors:   repository.NewVendorRepository(db.DB, logger),
		customers: repository.NewCustomerRepository(db.DB, logger),
		invoices:  repository.NewInvoiceRepository(db.DB, logger),
		lineItems: repository.NewLineItemRepository(db.DB, logger),
		payments:  repository.NewPaymentRepository(db.DB, logger),
		documents: repository.NewDocumentRepository(db.DB, logger),
		analytics: repository.NewAnalyticsRepository(db.DB, logger),
	}, nil
}

func (a *app) close() {
	a.db.Close()
	_ = a.logger.Sync()
}
