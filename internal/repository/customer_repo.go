package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

var customerSortColumns = map[string]string{
	"name":      "name",
	"city":      "city",
	"country":   "country",
	"createdAt": "created_at",
}

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sql.DB, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of customers. Search matches name and email.
func (r *CustomerRepository) List(opts ListOptions) ([]models.Customer, Pagination, error) {
	opts.Normalize("name")

	var conds []string
	var args []interface{}

	if opts.Search != "" {
		needle := "%" + strings.ToLower(opts.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?)")
		args = append(args, needle, needle)
	}
	if country := opts.Filters["country"]; country != "" {
		conds = append(conds, "country = ?")
		args = append(args, country)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count customers", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to count customers: %w", err)
	}

	sortCol, ok := customerSortColumns[opts.SortBy]
	if !ok {
		sortCol = "name"
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, city, country, created_at, updated_at
		FROM customers
		%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, sortCol, strings.ToUpper(opts.SortOrder))

	rows, err := r.db.Query(query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list customers", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		var email, city, country sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &city, &country, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, Pagination{}, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Email = strPtr(email)
		c.City = strPtr(city)
		c.Country = strPtr(country)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return customers, NewPagination(opts, total), nil
}

// GetByID retrieves a single customer.
func (r *CustomerRepository) GetByID(id string) (*models.Customer, error) {
	var c models.Customer
	var email, city, country sql.NullString
	err := r.db.QueryRow(
		"SELECT id, name, email, city, country, created_at, updated_at FROM customers WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &email, &city, &country, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get customer", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	c.Email = strPtr(email)
	c.City = strPtr(city)
	c.Country = strPtr(country)
	return &c, nil
}

// Create inserts a new customer record
func (r *CustomerRepository) Create(tx *sql.Tx, c *models.Customer) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := exec(r.db, tx).Exec(
		"INSERT INTO customers (id, name, email, city, country, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, nullStr(c.Email), nullStr(c.City), nullStr(c.Country), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create customer", zap.String("name", c.Name), zap.Error(err))
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// Update overwrites a customer's mutable fields.
func (r *CustomerRepository) Update(c *models.Customer) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(
		"UPDATE customers SET name = ?, email = ?, city = ?, country = ?, updated_at = ? WHERE id = ?",
		c.Name, nullStr(c.Email), nullStr(c.City), nullStr(c.Country), c.UpdatedAt, c.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update customer", zap.String("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a customer. Invoices keep their rows; the foreign key nulls out.
func (r *CustomerRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete customer", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *CustomerRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM customers"); err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}
	return nil
}
