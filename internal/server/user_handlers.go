package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
)

// createUserRequest is the create body for users.
type createUserRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
}

// updateUserRequest is the update body. Passwords are not changed here.
type updateUserRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"isActive"`
}

// ListUsers handles GET /api/users.
func (h *Handlers) ListUsers(c *gin.Context) {
	opts := listOptions(c)
	opts.Filters["role"] = c.Query("role")
	opts.Filters["department"] = c.Query("department")

	users, pagination, err := h.repos.Users.List(opts)
	if err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	respondList(c, users, pagination)
}

// GetUser handles GET /api/users/:id.
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.repos.Users.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserStats handles GET /api/users/stats.
func (h *Handlers) UserStats(c *gin.Context) {
	stats, err := h.repos.Users.Stats()
	if err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateUser handles POST /api/users. Duplicate emails are rejected before
// the insert so the client gets a clear message instead of a constraint
// error.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name, email and a password of at least 8 characters are required")
		return
	}

	if _, err := h.repos.Users.GetByEmail(req.Email); err == nil {
		respondError(c, http.StatusBadRequest, "a user with this email already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.respondRepoError(c, err, "user not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	role := req.Role
	if role == "" {
		role = "USER"
	}

	user := &models.User{
		ID:           "user_" + uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   req.Department,
		IsActive:     true,
	}
	if err := h.repos.Users.Create(user); err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PUT /api/users/:id.
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name and email are required")
		return
	}

	user, err := h.repos.Users.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}

	user.Name = req.Name
	user.Email = req.Email
	if req.Role != "" {
		user.Role = req.Role
	}
	user.Department = req.Department
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repos.Users.Update(user); err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id.
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.repos.Users.Delete(c.Param("id")); err != nil {
		h.respondRepoError(c, err, "user not found")
		return
	}
	c.Status(http.StatusNoContent)
}
