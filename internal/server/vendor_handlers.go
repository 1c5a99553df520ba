package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spendlens/spendlens/internal/models"
)

// vendorRequest is the create/update body for vendors.
type vendorRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Category *string `json:"category"`
	City     *string `json:"city"`
	Country  *string `json:"country"`
}

// ListVendors handles GET /api/vendors.
func (h *Handlers) ListVendors(c *gin.Context) {
	opts := listOptions(c)
	opts.Filters["category"] = c.Query("category")

	vendors, pagination, err := h.repos.Vendors.List(opts)
	if err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	respondList(c, vendors, pagination)
}

// GetVendor handles GET /api/vendors/:id.
func (h *Handlers) GetVendor(c *gin.Context) {
	vendor, err := h.repos.Vendors.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// CreateVendor handles POST /api/vendors.
func (h *Handlers) CreateVendor(c *gin.Context) {
	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	vendor := &models.Vendor{
		ID:       "vendor_" + uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Category: req.Category,
		City:     req.City,
		Country:  req.Country,
	}
	if err := h.repos.Vendors.Create(nil, vendor); err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

// UpdateVendor handles PUT /api/vendors/:id.
func (h *Handlers) UpdateVendor(c *gin.Context) {
	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	vendor := &models.Vendor{
		ID:       c.Param("id"),
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Category: req.Category,
		City:     req.City,
		Country:  req.Country,
	}
	if err := h.repos.Vendors.Update(vendor); err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// DeleteVendor handles DELETE /api/vendors/:id. Vendors with invoices cannot
// be deleted; the invoices must be reassigned or removed first.
func (h *Handlers) DeleteVendor(c *gin.Context) {
	id := c.Param("id")

	count, err := h.repos.Vendors.CountInvoices(id)
	if err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	if count > 0 {
		respondError(c, http.StatusBadRequest, "cannot delete vendor with existing invoices")
		return
	}

	if err := h.repos.Vendors.Delete(id); err != nil {
		h.respondRepoError(c, err, "vendor not found")
		return
	}
	c.Status(http.StatusNoContent)
}
