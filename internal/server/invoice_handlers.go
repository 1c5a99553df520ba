package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
)

// lineItemRequest is one line item in an invoice create body.
type lineItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Category    *string `json:"category"`
}

// invoiceRequest is the create/update body for invoices.
type invoiceRequest struct {
	InvoiceNumber string            `json:"invoiceNumber" binding:"required"`
	VendorID      string            `json:"vendorId" binding:"required"`
	CustomerID    *string           `json:"customerId"`
	IssueDate     *time.Time        `json:"issueDate"`
	DueDate       *time.Time        `json:"dueDate"`
	PaidDate      *time.Time        `json:"paidDate"`
	Subtotal      float64           `json:"subtotal"`
	TaxAmount     float64           `json:"taxAmount"`
	TotalAmount   float64           `json:"totalAmount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Category      *string           `json:"category"`
	Description   *string           `json:"description"`
	LineItems     []lineItemRequest `json:"lineItems"`
}

func (req *invoiceRequest) toModel(id string) *models.Invoice {
	issueDate := time.Now().UTC()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	status := models.StatusPending
	if req.Status != "" {
		status = models.ParseInvoiceStatus(req.Status)
	}

	return &models.Invoice{
		ID:            id,
		InvoiceNumber: req.InvoiceNumber,
		VendorID:      req.VendorID,
		CustomerID:    req.CustomerID,
		IssueDate:     issueDate,
		DueDate:       req.DueDate,
		PaidDate:      req.PaidDate,
		Subtotal:      req.Subtotal,
		TaxAmount:     req.TaxAmount,
		TotalAmount:   req.TotalAmount,
		Currency:      currency,
		Status:        status,
		Category:      req.Category,
		Description:   req.Description,
	}
}

// ListInvoices handles GET /api/invoices.
func (h *Handlers) ListInvoices(c *gin.Context) {
	opts := listOptions(c)

	filter := repository.InvoiceFilter{
		Status:   c.Query("status"),
		VendorID: c.Query("vendorId"),
	}
	if v := c.Query("startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := c.Query("endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = &t
		}
	}

	invoices, pagination, err := h.repos.Invoices.List(opts, filter)
	if err != nil {
		h.respondRepoError(c, err, "invoice not found")
		return
	}
	respondList(c, invoices, pagination)
}

// GetInvoice handles GET /api/invoices/:id.
func (h *Handlers) GetInvoice(c *gin.Context) {
	invoice, err := h.repos.Invoices.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "invoice not found")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// CreateInvoice handles POST /api/invoices.
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invoiceNumber and vendorId are required")
		return
	}

	invoice := req.toModel("invoice_" + uuid.NewString())
	if err := h.repos.Invoices.Create(nil, invoice); err != nil {
		h.respondRepoError(c, err, "invoice not found")
		return
	}

	for _, item := range req.LineItems {
		li := &models.LineItem{
			InvoiceID:   invoice.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Category:    item.Category,
		}
		if err := h.repos.LineItems.Create(nil, li); err != nil {
			h.respondRepoError(c, err, "invoice not found")
			return
		}
		invoice.LineItems = append(invoice.LineItems, *li)
	}

	c.JSON(http.StatusCreated, invoice)
}

// UpdateInvoice handles PUT /api/invoices/:id. Line items are not editable
// through this endpoint.
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invoiceNumber and vendorId are required")
		return
	}

	invoice := req.toModel(c.Param("id"))
	if err := h.repos.Invoices.Update(invoice); err != nil {
		h.respondRepoError(c, err, "invoice not found")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice handles DELETE /api/invoices/:id. Line items and payments
// cascade.
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	if err := h.repos.Invoices.Delete(c.Param("id")); err != nil {
		h.respondRepoError(c, err, "invoice not found")
		return
	}
	c.Status(http.StatusNoContent)
}
