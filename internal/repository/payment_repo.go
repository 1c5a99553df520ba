package repository

import (
	"database/sql"
	"fmt"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// PaymentRepository handles payment writes. Reads go through the invoice
// repository.
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a payment record
func (r *PaymentRepository) Create(tx *sql.Tx, p *models.Payment) error {
	query := `
		INSERT INTO payments (invoice_id, amount, currency, method, paid_date, reference, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := exec(r.db, tx).Exec(query,
		p.InvoiceID, p.Amount, p.Currency, string(p.Method), p.PaidDate,
		nullStr(p.Reference), nullStr(p.Notes),
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("invoice_id", p.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *PaymentRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM payments"); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	return nil
}
