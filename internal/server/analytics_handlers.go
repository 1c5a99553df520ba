package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalyticsOverview handles GET /api/analytics/stats.
func (h *Handlers) AnalyticsOverview(c *gin.Context) {
	stats, err := h.analytics.Overview()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InvoiceTrends handles GET /api/analytics/invoice-trends.
func (h *Handlers) InvoiceTrends(c *gin.Context) {
	trends, err := h.analytics.Trends()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trends})
}

// TopVendors handles GET /api/analytics/vendors/top10.
func (h *Handlers) TopVendors(c *gin.Context) {
	vendors, err := h.analytics.TopVendors()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vendors})
}

// CategorySpend handles GET /api/analytics/category-spend.
func (h *Handlers) CategorySpend(c *gin.Context) {
	spend, err := h.analytics.CategorySpend()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": spend})
}

// CashOutflow handles GET /api/analytics/cash-outflow.
func (h *Handlers) CashOutflow(c *gin.Context) {
	outflow, err := h.analytics.CashOutflow()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": outflow})
}

// Departments handles GET /api/analytics/departments.
func (h *Handlers) Departments(c *gin.Context) {
	departments, err := h.analytics.Departments()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": departments})
}

// DepartmentTrends handles GET /api/analytics/departments/trends.
func (h *Handlers) DepartmentTrends(c *gin.Context) {
	trends, err := h.analytics.DepartmentTrends()
	if err != nil {
		h.respondRepoError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trends})
}
