package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

var invoiceSortColumns = map[string]string{
	"invoiceNumber": "i.invoice_number",
	"issueDate":     "i.issue_date",
	"dueDate":       "i.due_date",
	"totalAmount":   "i.total_amount",
	"status":        "i.status",
	"createdAt":     "i.created_at",
}

// InvoiceFilter captures the invoice-specific list filters on top of the
// common ListOptions.
type InvoiceFilter struct {
	Status    string
	VendorID  string
	StartDate *time.Time
	EndDate   *time.Time
}

// InvoiceRepository handles invoice database operations, including the
// aggregate queries behind the analytics endpoints.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of invoices with vendor/customer summaries, line items
// and payments attached. Search matches invoice number, vendor name and
// description case-insensitively.
func (r *InvoiceRepository) List(opts ListOptions, filter InvoiceFilter) ([]models.Invoice, Pagination, error) {
	opts.Normalize("issueDate")
	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	var conds []string
	var args []interface{}

	if opts.Search != "" {
		needle := "%" + strings.ToLower(opts.Search) + "%"
		conds = append(conds, "(LOWER(i.invoice_number) LIKE ? OR LOWER(v.name) LIKE ? OR LOWER(COALESCE(i.description, '')) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if filter.Status != "" {
		conds = append(conds, "i.status = ?")
		args = append(args, filter.Status)
	}
	if filter.VendorID != "" {
		conds = append(conds, "i.vendor_id = ?")
		args = append(args, filter.VendorID)
	}
	if filter.StartDate != nil {
		conds = append(conds, "i.issue_date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conds = append(conds, "i.issue_date <= ?")
		args = append(args, *filter.EndDate)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM invoices i
		JOIN vendors v ON v.id = i.vendor_id
		%s
	`, where)
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count invoices", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to count invoices: %w", err)
	}

	sortCol, ok := invoiceSortColumns[opts.SortBy]
	if !ok {
		sortCol = "i.issue_date"
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.invoice_number, i.vendor_id, i.customer_id, i.issue_date,
			i.due_date, i.paid_date, i.subtotal, i.tax_amount, i.total_amount,
			i.currency, i.status, i.category, i.description, i.created_at, i.updated_at,
			v.name, v.category,
			c.name
		FROM invoices i
		JOIN vendors v ON v.id = i.vendor_id
		LEFT JOIN customers c ON c.id = i.customer_id
		%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, sortCol, strings.ToUpper(opts.SortOrder))

	rows, err := r.db.Query(query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	for idx := range invoices {
		if err := r.attachChildren(&invoices[idx]); err != nil {
			return nil, Pagination{}, err
		}
	}

	return invoices, NewPagination(opts, total), nil
}

func scanInvoiceRow(rows *sql.Rows) (models.Invoice, error) {
	var inv models.Invoice
	var customerID, category, description sql.NullString
	var dueDate, paidDate sql.NullTime
	var vendorName string
	var vendorCategory, customerName sql.NullString

	err := rows.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.VendorID, &customerID, &inv.IssueDate,
		&dueDate, &paidDate, &inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount,
		&inv.Currency, &inv.Status, &category, &description, &inv.CreatedAt, &inv.UpdatedAt,
		&vendorName, &vendorCategory,
		&customerName,
	)
	if err != nil {
		return inv, err
	}

	inv.CustomerID = strPtr(customerID)
	inv.Category = strPtr(category)
	inv.Description = strPtr(description)
	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if paidDate.Valid {
		inv.PaidDate = &paidDate.Time
	}
	inv.Vendor = &models.VendorSummary{
		ID:       inv.VendorID,
		Name:     vendorName,
		Category: strPtr(vendorCategory),
	}
	if inv.CustomerID != nil && customerName.Valid {
		inv.Customer = &models.CustomerSummary{ID: *inv.CustomerID, Name: customerName.String}
	}
	return inv, nil
}

func (r *InvoiceRepository) attachChildren(inv *models.Invoice) error {
	items, err := r.listLineItems(inv.ID)
	if err != nil {
		return err
	}
	inv.LineItems = items

	payments, err := r.listPayments(inv.ID)
	if err != nil {
		return err
	}
	inv.Payments = payments
	return nil
}

func (r *InvoiceRepository) listLineItems(invoiceID string) ([]models.LineItem, error) {
	rows, err := r.db.Query(
		"SELECT id, invoice_id, description, quantity, unit_price, total_price, category FROM line_items WHERE invoice_id = ? ORDER BY id",
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var li models.LineItem
		var category sql.NullString
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TotalPrice, &category); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		li.Category = strPtr(category)
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *InvoiceRepository) listPayments(invoiceID string) ([]models.Payment, error) {
	rows, err := r.db.Query(
		"SELECT id, invoice_id, amount, currency, method, paid_date, reference, notes FROM payments WHERE invoice_id = ? ORDER BY id",
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		var reference, notes sql.NullString
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Currency, &p.Method, &p.PaidDate, &reference, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Reference = strPtr(reference)
		p.Notes = strPtr(notes)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetByID retrieves a single invoice with its full graph: vendor and
// customer summaries, line items and payments.
func (r *InvoiceRepository) GetByID(id string) (*models.Invoice, error) {
	query := `
		SELECT i.id, i.invoice_number, i.vendor_id, i.customer_id, i.issue_date,
			i.due_date, i.paid_date, i.subtotal, i.tax_amount, i.total_amount,
			i.currency, i.status, i.category, i.description, i.created_at, i.updated_at,
			v.name, v.category,
			c.name
		FROM invoices i
		JOIN vendors v ON v.id = i.vendor_id
		LEFT JOIN customers c ON c.id = i.customer_id
		WHERE i.id = ?
	`

	rows, err := r.db.Query(query, id)
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	inv, err := scanInvoiceRow(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	rows.Close()

	if err := r.attachChildren(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts an invoice record. Line items and payments are written
// separately so batch jobs can group everything under one transaction.
func (r *InvoiceRepository) Create(tx *sql.Tx, inv *models.Invoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	query := `
		INSERT INTO invoices (
			id, invoice_number, vendor_id, customer_id, issue_date, due_date,
			paid_date, subtotal, tax_amount, total_amount, currency, status,
			category, description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := exec(r.db, tx).Exec(query,
		inv.ID, inv.InvoiceNumber, inv.VendorID, nullStr(inv.CustomerID),
		inv.IssueDate, nullTime(inv.DueDate), nullTime(inv.PaidDate),
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.Currency,
		string(inv.Status), nullStr(inv.Category), nullStr(inv.Description),
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_number", inv.InvoiceNumber), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Update overwrites an invoice's mutable fields.
func (r *InvoiceRepository) Update(inv *models.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invoices
		SET invoice_number = ?, vendor_id = ?, customer_id = ?, issue_date = ?,
			due_date = ?, paid_date = ?, subtotal = ?, tax_amount = ?,
			total_amount = ?, currency = ?, status = ?, category = ?,
			description = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		inv.InvoiceNumber, inv.VendorID, nullStr(inv.CustomerID), inv.IssueDate,
		nullTime(inv.DueDate), nullTime(inv.PaidDate), inv.Subtotal, inv.TaxAmount,
		inv.TotalAmount, inv.Currency, string(inv.Status), nullStr(inv.Category),
		nullStr(inv.Description), inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.String("id", inv.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaidDate backfills the paid date, used when a payment is synthesized.
func (r *InvoiceRepository) SetPaidDate(tx *sql.Tx, id string, paidDate time.Time) error {
	_, err := exec(r.db, tx).Exec("UPDATE invoices SET paid_date = ? WHERE id = ?", paidDate, id)
	if err != nil {
		return fmt.Errorf("failed to set paid date: %w", err)
	}
	return nil
}

// Delete removes an invoice. Line items and payments cascade.
func (r *InvoiceRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete invoice", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *InvoiceRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM invoices"); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}
	return nil
}

// nullTime converts an optional time for SQL parameters.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
