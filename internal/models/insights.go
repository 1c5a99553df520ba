package models

// OverviewStats is the dashboard headline block.
type OverviewStats struct {
	TotalSpend          float64 `json:"totalSpend"`
	TotalInvoices       int64   `json:"totalInvoices"`
	DocumentsUploaded   int64   `json:"documentsUploaded"`
	AverageInvoiceValue float64 `json:"averageInvoiceValue"`
}

// MonthlyTrend is one month bucket of invoice volume and value.
type MonthlyTrend struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	InvoiceCount int64   `json:"invoice_count"`
	TotalValue   float64 `json:"total_value"`
}

// VendorSpend ranks a vendor by total invoice spend.
type VendorSpend struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   *string `json:"category,omitempty"`
	TotalSpend float64 `json:"totalSpend"`
}

// CategorySpend is total spend for one invoice category.
type CategorySpend struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"totalAmount"`
}

// CashOutflowBucket groups pending invoices by due date.
type CashOutflowBucket struct {
	DueDate      string  `json:"due_date"`
	TotalAmount  float64 `json:"total_amount"`
	InvoiceCount int64   `json:"invoice_count"`
}

// DepartmentAnalytics is the placeholder department breakdown. Invoices are
// distributed round-robin across five fixed names until real department data
// exists; the budget figures are derived, not tracked.
type DepartmentAnalytics struct {
	Department      string  `json:"department"`
	TotalSpend      float64 `json:"total_spend"`
	InvoiceCount    int     `json:"invoice_count"`
	AvgInvoiceValue float64 `json:"avg_invoice_value"`
	BudgetAllocated float64 `json:"budget_allocated"`
	BudgetUtilized  float64 `json:"budget_utilized"`
}

// DepartmentTrend is one month bucket of the department trends view.
type DepartmentTrend struct {
	Month        string  `json:"month"`
	TotalAmount  float64 `json:"total_amount"`
	InvoiceCount int64   `json:"invoice_count"`
}

// InvoiceSummary is the minimal shape used for the round-robin partition.
type InvoiceSummary struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoiceNumber"`
	TotalAmount   float64 `json:"totalAmount"`
}
