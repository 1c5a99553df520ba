package ingest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/pkg/database"
	"go.uber.org/zap"
)

// Result summarizes one ingestion run.
type Result struct {
	Processed        int `json:"processed"`
	Errors           int `json:"errors"`
	VendorsCreated   int `json:"vendorsCreated"`
	CustomersCreated int `json:"customersCreated"`
}

// Runner executes a full ingestion: it clears every derived table, then
// replays the export file record by record. Each record is written in its own
// transaction so one malformed entry cannot poison the rest.
type Runner struct {
	db          *database.DB
	transformer *Transformer
	analytics   *repository.AnalyticsRepository
	logger      *zap.Logger
}

// NewRunner wires a runner over the shared repositories.
func NewRunner(
	db *database.DB,
	vendors *repository.VendorRepository,
	customers *repository.CustomerRepository,
	invoices *repository.InvoiceRepository,
	lineItems *repository.LineItemRepository,
	payments *repository.PaymentRepository,
	documents *repository.DocumentRepository,
	analytics *repository.AnalyticsRepository,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		db:          db,
		transformer: NewTransformer(vendors, customers, invoices, lineItems, payments, documents, logger),
		analytics:   analytics,
		logger:      logger,
	}
}

// Run ingests the export file at path. Existing derived data is destroyed
// first; the run is a full rebuild, not a merge.
func (r *Runner) Run(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var records []SourceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}

	r.logger.Info("Starting ingestion",
		zap.String("file", path), zap.Int("records", len(records)))

	if err := r.clearTables(); err != nil {
		return nil, err
	}
	r.transformer.reset()

	result := &Result{}
	for i := range records {
		rec := &records[i]
		err := r.db.WithTransaction(func(tx *sql.Tx) error {
			return r.transformer.Transform(tx, rec)
		})
		if err != nil {
			result.Errors++
			r.logger.Warn("Skipping record", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		result.Processed++
	}

	result.VendorsCreated = r.transformer.vendorsCreated
	result.CustomersCreated = r.transformer.customersCreated

	r.logger.Info("Ingestion finished",
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Int("vendors_created", result.VendorsCreated),
		zap.Int("customers_created", result.CustomersCreated))

	return result, nil
}

// clearTables deletes all derived rows in one transaction, children before
// parents.
func (r *Runner) clearTables() error {
	t := r.transformer
	return r.db.WithTransaction(func(tx *sql.Tx) error {
		if err := t.payments.DeleteAll(tx); err != nil {
			return err
		}
		if err := t.lineItems.DeleteAll(tx); err != nil {
			return err
		}
		if err := t.documents.DeleteAll(tx); err != nil {
			return err
		}
		if err := t.invoices.DeleteAll(tx); err != nil {
			return err
		}
		if err := t.customers.DeleteAll(tx); err != nil {
			return err
		}
		if err := t.vendors.DeleteAll(tx); err != nil {
			return err
		}
		return r.analytics.DeleteAll(tx)
	})
}
