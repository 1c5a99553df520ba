package models

import (
	"strings"
	"time"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusPending   InvoiceStatus = "PENDING"
	StatusPaid      InvoiceStatus = "PAID"
	StatusOverdue   InvoiceStatus = "OVERDUE"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// ParseInvoiceStatus maps a free-form source status string onto the fixed
// vocabulary. Matching is case-insensitive and substring-based; anything
// unrecognized maps to PENDING.
func ParseInvoiceStatus(s string) InvoiceStatus {
	v := strings.ToLower(s)
	switch {
	case strings.Contains(v, "paid"):
		return StatusPaid
	case strings.Contains(v, "overdue"):
		return StatusOverdue
	case strings.Contains(v, "cancelled"):
		return StatusCancelled
	case strings.Contains(v, "draft"):
		return StatusDraft
	default:
		return StatusPending
	}
}

// PaymentMethod is how a payment was settled.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodPaypal       PaymentMethod = "PAYPAL"
	MethodCash         PaymentMethod = "CASH"
	MethodCheck        PaymentMethod = "CHECK"
	MethodOther        PaymentMethod = "OTHER"
)

// ParsePaymentMethod maps a source method string onto the fixed vocabulary,
// defaulting to OTHER.
func ParsePaymentMethod(s string) PaymentMethod {
	switch strings.ToLower(s) {
	case "bank_transfer":
		return MethodBankTransfer
	case "credit_card":
		return MethodCreditCard
	case "paypal":
		return MethodPaypal
	case "cash":
		return MethodCash
	case "check":
		return MethodCheck
	default:
		return MethodOther
	}
}

// Invoice is the central entity. TotalAmount is expected to be roughly
// subtotal + tax but the relation is not enforced; source data is too messy.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	VendorID      string        `json:"vendorId"`
	CustomerID    *string       `json:"customerId,omitempty"`
	IssueDate     time.Time     `json:"issueDate"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	PaidDate      *time.Time    `json:"paidDate,omitempty"`
	Subtotal      float64       `json:"subtotal"`
	TaxAmount     float64       `json:"taxAmount"`
	TotalAmount   float64       `json:"totalAmount"`
	Currency      string        `json:"currency"`
	Status        InvoiceStatus `json:"status"`
	Category      *string       `json:"category,omitempty"`
	Description   *string       `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Vendor    *VendorSummary   `json:"vendor,omitempty"`
	Customer  *CustomerSummary `json:"customer,omitempty"`
	LineItems []LineItem       `json:"lineItems,omitempty"`
	Payments  []Payment        `json:"payments,omitempty"`
}

// VendorSummary is the embedded vendor shape on invoice responses.
type VendorSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
}

// CustomerSummary is the embedded customer shape on invoice responses.
type CustomerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LineItem belongs to exactly one invoice.
type LineItem struct {
	ID          int64   `json:"id"`
	InvoiceID   string  `json:"invoiceId"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Category    *string `json:"category,omitempty"`
}

// Payment belongs to exactly one invoice.
type Payment struct {
	ID        int64         `json:"id"`
	InvoiceID string        `json:"invoiceId"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Method    PaymentMethod `json:"method"`
	PaidDate  time.Time     `json:"paidDate"`
	Reference *string       `json:"reference,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}
