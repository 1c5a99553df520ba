package models

import "time"

// Vendor represents a supplier that issues invoices.
type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Category  *string   `json:"category,omitempty"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Derived fields populated on list/detail reads.
	InvoiceCount int     `json:"invoiceCount,omitempty"`
	TotalSpend   float64 `json:"totalSpend,omitempty"`
}

// Customer represents the party an invoice is billed to. Optional on invoices.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
