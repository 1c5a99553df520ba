package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// vendorSortColumns whitelists the sortable fields on vendor lists.
var vendorSortColumns = map[string]string{
	"name":      "name",
	"category":  "category",
	"city":      "city",
	"country":   "country",
	"createdAt": "created_at",
}

// VendorRepository handles vendor database operations
type VendorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sql.DB, logger *zap.Logger) *VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of vendors with their invoice count and total spend.
// Search matches name, email and city case-insensitively.
func (r *VendorRepository) List(opts ListOptions) ([]models.Vendor, Pagination, error) {
	opts.Normalize("name")

	var conds []string
	var args []interface{}

	if opts.Search != "" {
		needle := "%" + strings.ToLower(opts.Search) + "%"
		conds = append(conds, "(LOWER(v.name) LIKE ? OR LOWER(COALESCE(v.email, '')) LIKE ? OR LOWER(COALESCE(v.city, '')) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if category := opts.Filters["category"]; category != "" {
		conds = append(conds, "v.category = ?")
		args = append(args, category)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vendors v %s", where)
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count vendors", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to count vendors: %w", err)
	}

	sortCol, ok := vendorSortColumns[opts.SortBy]
	if !ok {
		sortCol = "name"
	}

	query := fmt.Sprintf(`
		SELECT v.id, v.name, v.email, v.address, v.category, v.city, v.country,
			v.created_at, v.updated_at,
			COUNT(i.id) AS invoice_count,
			COALESCE(SUM(i.total_amount), 0) AS total_spend
		FROM vendors v
		LEFT JOIN invoices i ON i.vendor_id = v.id
		%s
		GROUP BY v.id
		ORDER BY v.%s %s
		LIMIT ? OFFSET ?
	`, where, sortCol, strings.ToUpper(opts.SortOrder))

	rows, err := r.db.Query(query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return vendors, NewPagination(opts, total), nil
}

func scanVendor(rows *sql.Rows) (models.Vendor, error) {
	var v models.Vendor
	var email, address, category, city, country sql.NullString
	err := rows.Scan(
		&v.ID, &v.Name, &email, &address, &category, &city, &country,
		&v.CreatedAt, &v.UpdatedAt, &v.InvoiceCount, &v.TotalSpend,
	)
	if err != nil {
		return v, err
	}
	v.Email = strPtr(email)
	v.Address = strPtr(address)
	v.Category = strPtr(category)
	v.City = strPtr(city)
	v.Country = strPtr(country)
	return v, nil
}

// GetByID retrieves a single vendor with invoice count and total spend.
func (r *VendorRepository) GetByID(id string) (*models.Vendor, error) {
	query := `
		SELECT v.id, v.name, v.email, v.address, v.category, v.city, v.country,
			v.created_at, v.updated_at,
			COUNT(i.id) AS invoice_count,
			COALESCE(SUM(i.total_amount), 0) AS total_spend
		FROM vendors v
		LEFT JOIN invoices i ON i.vendor_id = v.id
		WHERE v.id = ?
		GROUP BY v.id
	`

	var v models.Vendor
	var email, address, category, city, country sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&v.ID, &v.Name, &email, &address, &category, &city, &country,
		&v.CreatedAt, &v.UpdatedAt, &v.InvoiceCount, &v.TotalSpend,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get vendor", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	v.Email = strPtr(email)
	v.Address = strPtr(address)
	v.Category = strPtr(category)
	v.City = strPtr(city)
	v.Country = strPtr(country)

	return &v, nil
}

// Create inserts a new vendor record
func (r *VendorRepository) Create(tx *sql.Tx, v *models.Vendor) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	query := `
		INSERT INTO vendors (id, name, email, address, category, city, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := exec(r.db, tx).Exec(query,
		v.ID, v.Name, nullStr(v.Email), nullStr(v.Address), nullStr(v.Category),
		nullStr(v.City), nullStr(v.Country), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.String("name", v.Name), zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// Update overwrites a vendor's mutable fields.
func (r *VendorRepository) Update(v *models.Vendor) error {
	v.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE vendors
		SET name = ?, email = ?, address = ?, category = ?, city = ?, country = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		v.Name, nullStr(v.Email), nullStr(v.Address), nullStr(v.Category),
		nullStr(v.City), nullStr(v.Country), v.UpdatedAt, v.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update vendor", zap.String("id", v.ID), zap.Error(err))
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountInvoices returns how many invoices reference the vendor. Deletion is
// blocked while this is non-zero.
func (r *VendorRepository) CountInvoices(id string) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM invoices WHERE vendor_id = ?", id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vendor invoices: %w", err)
	}
	return count, nil
}

// Delete removes a vendor. The caller must verify the vendor has no invoices.
func (r *VendorRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM vendors WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete vendor", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *VendorRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM vendors"); err != nil {
		return fmt.Errorf("failed to clear vendors: %w", err)
	}
	return nil
}
