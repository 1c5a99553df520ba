package repository

import (
	"database/sql"
	"fmt"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// LineItemRepository handles line item writes. Reads go through the invoice
// repository, which attaches line items to their invoice.
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) *LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a line item record
func (r *LineItemRepository) Create(tx *sql.Tx, li *models.LineItem) error {
	query := `
		INSERT INTO line_items (invoice_id, description, quantity, unit_price, total_price, category)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := exec(r.db, tx).Exec(query,
		li.InvoiceID, li.Description, li.Quantity, li.UnitPrice, li.TotalPrice, nullStr(li.Category),
	)
	if err != nil {
		r.logger.Error("Failed to create line item",
			zap.String("invoice_id", li.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	li.ID = id
	return nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *LineItemRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM line_items"); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}
	return nil
}
