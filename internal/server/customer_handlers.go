package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spendlens/spendlens/internal/models"
)

// customerRequest is the create/update body for customers.
type customerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email"`
	City    *string `json:"city"`
	Country *string `json:"country"`
}

// ListCustomers handles GET /api/customers.
func (h *Handlers) ListCustomers(c *gin.Context) {
	opts := listOptions(c)
	opts.Filters["country"] = c.Query("country")

	customers, pagination, err := h.repos.Customers.List(opts)
	if err != nil {
		h.respondRepoError(c, err, "customer not found")
		return
	}
	respondList(c, customers, pagination)
}

// GetCustomer handles GET /api/customers/:id.
func (h *Handlers) GetCustomer(c *gin.Context) {
	customer, err := h.repos.Customers.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "customer not found")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// CreateCustomer handles POST /api/customers.
func (h *Handlers) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	customer := &models.Customer{
		ID:      "customer_" + uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		City:    req.City,
		Country: req.Country,
	}
	if err := h.repos.Customers.Create(nil, customer); err != nil {
		h.respondRepoError(c, err, "customer not found")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /api/customers/:id.
func (h *Handlers) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	customer := &models.Customer{
		ID:      c.Param("id"),
		Name:    req.Name,
		Email:   req.Email,
		City:    req.City,
		Country: req.Country,
	}
	if err := h.repos.Customers.Update(customer); err != nil {
		h.respondRepoError(c, err, "customer not found")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/customers/:id. Invoices referencing the
// customer keep their rows; the reference is nulled by the schema.
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	if err := h.repos.Customers.Delete(c.Param("id")); err != nil {
		h.respondRepoError(c, err, "customer not found")
		return
	}
	c.Status(http.StatusNoContent)
}
