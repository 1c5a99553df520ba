package repository

import (
	"database/sql"
	"fmt"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// AnalyticsRepository stores the derived metric rows written by the
// aggregation reporter. Rows are keyed by (metric, period); writing an
// existing key is a no-op so reruns never duplicate.
type AnalyticsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *sql.DB, logger *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertMetric inserts a metric row, skipping silently when the
// (metric, period) pair already exists.
func (r *AnalyticsRepository) UpsertMetric(tx *sql.Tx, row *models.AnalyticsRow) error {
	_, err := exec(r.db, tx).Exec(
		"INSERT OR IGNORE INTO analytics (metric, value, period, category) VALUES (?, ?, ?, ?)",
		row.Metric, row.Value, row.Period, row.Category,
	)
	if err != nil {
		r.logger.Error("Failed to upsert metric",
			zap.String("metric", row.Metric), zap.Error(err))
		return fmt.Errorf("failed to upsert metric: %w", err)
	}
	return nil
}

// ListByMetric returns all rows for one metric ordered by period.
func (r *AnalyticsRepository) ListByMetric(metric string) ([]models.AnalyticsRow, error) {
	rows, err := r.db.Query(
		"SELECT id, metric, value, period, category FROM analytics WHERE metric = ? ORDER BY period",
		metric,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer rows.Close()

	var result []models.AnalyticsRow
	for rows.Next() {
		var row models.AnalyticsRow
		if err := rows.Scan(&row.ID, &row.Metric, &row.Value, &row.Period, &row.Category); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DeleteAll clears the table. Analytics rows are disposable by design.
func (r *AnalyticsRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM analytics"); err != nil {
		return fmt.Errorf("failed to clear analytics: %w", err)
	}
	return nil
}
