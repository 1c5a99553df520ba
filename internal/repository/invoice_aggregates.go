package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spendlens/spendlens/internal/models"
)

// SumByMonth returns total spend and invoice count for invoices whose issue
// date falls in [start, end). It takes an optional transaction so batch jobs
// holding one can read without requesting a second pool connection.
func (r *InvoiceRepository) SumByMonth(tx *sql.Tx, start, end time.Time) (float64, int64, error) {
	var total float64
	var count int64
	err := exec(r.db, tx).QueryRow(
		"SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM invoices WHERE issue_date >= ? AND issue_date < ?",
		start, end,
	).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate month: %w", err)
	}
	return total, count, nil
}

// SpendSince sums total amounts over PAID and PENDING invoices issued on or
// after the given date.
func (r *InvoiceRepository) SpendSince(since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(
		"SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE status IN ('PAID', 'PENDING') AND issue_date >= ?",
		since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum spend: %w", err)
	}
	return total, nil
}

// CountProcessed counts PAID and PENDING invoices.
func (r *InvoiceRepository) CountProcessed() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM invoices WHERE status IN ('PAID', 'PENDING')").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// AverageValue returns the mean total amount over all invoices, 0 when empty.
func (r *InvoiceRepository) AverageValue() (float64, error) {
	var avg float64
	err := r.db.QueryRow("SELECT COALESCE(AVG(total_amount), 0) FROM invoices").Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average invoices: %w", err)
	}
	return avg, nil
}

// MonthlyTrends groups invoices issued since the given date into
// year/month buckets.
func (r *InvoiceRepository) MonthlyTrends(since time.Time) ([]models.MonthlyTrend, error) {
	query := `
		SELECT CAST(strftime('%Y', issue_date) AS INTEGER) AS year,
			CAST(strftime('%m', issue_date) AS INTEGER) AS month,
			COUNT(*),
			COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE issue_date >= ?
		GROUP BY year, month
		ORDER BY year, month
	`

	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer rows.Close()

	var trends []models.MonthlyTrend
	for rows.Next() {
		var t models.MonthlyTrend
		if err := rows.Scan(&t.Year, &t.Month, &t.InvoiceCount, &t.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// TopVendorsBySpend ranks vendors by total PAID/PENDING invoice spend,
// dropping vendors with no spend.
func (r *InvoiceRepository) TopVendorsBySpend(limit int) ([]models.VendorSpend, error) {
	query := `
		SELECT v.id, v.name, v.category, COALESCE(SUM(i.total_amount), 0) AS total_spend
		FROM vendors v
		JOIN invoices i ON i.vendor_id = v.id AND i.status IN ('PAID', 'PENDING')
		GROUP BY v.id
		HAVING total_spend > 0
		ORDER BY total_spend DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top vendors: %w", err)
	}
	defer rows.Close()

	var result []models.VendorSpend
	for rows.Next() {
		var vs models.VendorSpend
		var category sql.NullString
		if err := rows.Scan(&vs.ID, &vs.Name, &category, &vs.TotalSpend); err != nil {
			return nil, fmt.Errorf("failed to scan vendor spend: %w", err)
		}
		vs.Category = strPtr(category)
		result = append(result, vs)
	}
	return result, rows.Err()
}

// CategorySpend sums invoice totals per category, highest first.
func (r *InvoiceRepository) CategorySpend() ([]models.CategorySpend, error) {
	query := `
		SELECT category, COALESCE(SUM(total_amount), 0) AS total
		FROM invoices
		WHERE category IS NOT NULL
		GROUP BY category
		ORDER BY total DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spend: %w", err)
	}
	defer rows.Close()

	var result []models.CategorySpend
	for rows.Next() {
		var cs models.CategorySpend
		if err := rows.Scan(&cs.Category, &cs.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

// CashOutflow groups PENDING invoices due in [from, to] by due date.
func (r *InvoiceRepository) CashOutflow(from, to time.Time) ([]models.CashOutflowBucket, error) {
	query := `
		SELECT date(due_date), COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM invoices
		WHERE status = 'PENDING' AND due_date >= ? AND due_date <= ?
		GROUP BY date(due_date)
		ORDER BY date(due_date)
	`

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash outflow: %w", err)
	}
	defer rows.Close()

	var result []models.CashOutflowBucket
	for rows.Next() {
		var b models.CashOutflowBucket
		if err := rows.Scan(&b.DueDate, &b.TotalAmount, &b.InvoiceCount); err != nil {
			return nil, fmt.Errorf("failed to scan outflow bucket: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListSummaries returns every invoice's id, number and total in insertion
// order. Feeds the round-robin department partition.
func (r *InvoiceRepository) ListSummaries() ([]models.InvoiceSummary, error) {
	rows, err := r.db.Query("SELECT id, invoice_number, total_amount FROM invoices ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice summaries: %w", err)
	}
	defer rows.Close()

	var result []models.InvoiceSummary
	for rows.Next() {
		var s models.InvoiceSummary
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice summary: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
