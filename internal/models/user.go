package models

import "time"

// User is a dashboard account. PasswordHash never leaves the API boundary.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Department   *string    `json:"department,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// UserStats is the aggregate view returned by /api/users/stats.
type UserStats struct {
	TotalUsers      int64 `json:"totalUsers"`
	ActiveUsers     int64 `json:"activeUsers"`
	AdminUsers      int64 `json:"adminUsers"`
	DepartmentCount int64 `json:"departmentCount"`
}
