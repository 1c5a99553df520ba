package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// UserRepository handles user database operations
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of users, newest first. Search matches name and email;
// role and department filter by equality.
func (r *UserRepository) List(opts ListOptions) ([]models.User, Pagination, error) {
	opts.Normalize("createdAt")

	var conds []string
	var args []interface{}

	if opts.Search != "" {
		needle := "%" + strings.ToLower(opts.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, needle, needle)
	}
	if role := opts.Filters["role"]; role != "" && role != "all" {
		conds = append(conds, "role = ?")
		args = append(args, role)
	}
	if dept := opts.Filters["department"]; dept != "" && dept != "all" {
		conds = append(conds, "department = ?")
		args = append(args, dept)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count users", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, role, department, is_active, last_login_at, created_at
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, where)

	rows, err := r.db.Query(query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var department sql.NullString
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &department, &u.IsActive, &lastLogin, &u.CreatedAt); err != nil {
			return nil, Pagination{}, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Department = strPtr(department)
		if lastLogin.Valid {
			u.LastLoginAt = &lastLogin.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return users, NewPagination(opts, total), nil
}

// GetByID retrieves a single user without the password hash.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne("id = ?", id)
}

// GetByEmail retrieves a single user by email. Used for the duplicate check
// on create.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne("email = ?", email)
}

func (r *UserRepository) getOne(cond string, arg interface{}) (*models.User, error) {
	var u models.User
	var department sql.NullString
	var lastLogin sql.NullTime
	err := r.db.QueryRow(
		"SELECT id, name, email, role, department, is_active, last_login_at, created_at FROM users WHERE "+cond,
		arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &department, &u.IsActive, &lastLogin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Department = strPtr(department)
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

// Create inserts a new user record
func (r *UserRepository) Create(u *models.User) error {
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		"INSERT INTO users (id, name, email, password_hash, role, department, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, nullStr(u.Department), u.IsActive, u.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", u.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update overwrites a user's mutable fields. The password hash is not
// touched here.
func (r *UserRepository) Update(u *models.User) error {
	res, err := r.db.Exec(
		"UPDATE users SET name = ?, email = ?, role = ?, department = ?, is_active = ? WHERE id = ?",
		u.Name, u.Email, u.Role, nullStr(u.Department), u.IsActive, u.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.String("id", u.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete user", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the aggregate user counts for the settings page.
func (r *UserRepository) Stats() (*models.UserStats, error) {
	stats := &models.UserStats{}

	query := `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'ADMIN' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT department)
		FROM users
	`
	err := r.db.QueryRow(query).Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.AdminUsers, &stats.DepartmentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate users: %w", err)
	}
	return stats, nil
}
