// Package analytics derives aggregate metrics and dashboard views from the
// ingested invoice data.
package analytics

import (
	"database/sql"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/pkg/database"
	"go.uber.org/zap"
)

// reportMonths is the trailing window the reporter materializes.
const reportMonths = 12

// Reporter materializes monthly aggregate rows into the analytics table.
// Metric rows are keyed by (metric, period), so rerunning the reporter over
// overlapping windows never duplicates.
type Reporter struct {
	db        *database.DB
	invoices  *repository.InvoiceRepository
	analytics *repository.AnalyticsRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewReporter creates a reporter over the shared repositories.
func NewReporter(db *database.DB, invoices *repository.InvoiceRepository, analytics *repository.AnalyticsRepository, logger *zap.Logger) *Reporter {
	return &Reporter{
		db:        db,
		invoices:  invoices,
		analytics: analytics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run walks the trailing twelve calendar months and writes three metrics per
// month with at least one invoice: total spend, invoice count and average
// invoice value. Months without invoices are skipped entirely.
func (r *Reporter) Run() error {
	now := r.now()
	written := 0

	err := r.db.WithTransaction(func(tx *sql.Tx) error {
		for offset := reportMonths - 1; offset >= 0; offset-- {
			month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -offset, 0)
			next := month.AddDate(0, 1, 0)

			total, count, err := r.invoices.SumByMonth(tx, month, next)
			if err != nil {
				return err
			}
			if count == 0 {
				continue
			}

			rows := []models.AnalyticsRow{
				{Metric: models.MetricMonthlySpend, Value: total, Period: month, Category: models.MetricCategoryFinancial},
				{Metric: models.MetricMonthlyCount, Value: float64(count), Period: month, Category: models.MetricCategoryOperational},
				{Metric: models.MetricAvgInvoiceValue, Value: total / float64(count), Period: month, Category: models.MetricCategoryFinancial},
			}
			for i := range rows {
				if err := r.analytics.UpsertMetric(tx, &rows[i]); err != nil {
					return err
				}
			}
			written++
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Aggregation report complete", zap.Int("months_written", written))
	return nil
}
