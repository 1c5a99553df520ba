// Package ingest converts semi-structured document export records into the
// relational invoice model. Source payloads come from an upstream extraction
// pipeline and are wildly inconsistent: most fields are optional, wrapped in
// {value: ...} envelopes, and numbers arrive as strings as often as not.
package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Field is one machine-extracted invoice field. The upstream pipeline wraps
// values as {"value": ...} but older exports carry bare scalars; both shapes
// decode, and anything unreadable just leaves the field unset.
type Field struct {
	val any
	set bool
}

// UnmarshalJSON accepts a {value: ...} envelope or a bare scalar.
func (f *Field) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Value *any `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != nil {
		f.val = *wrapped.Value
		f.set = true
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if v != nil {
		f.val = v
		f.set = true
	}
	return nil
}

// IsSet reports whether the field carried any value at all.
func (f Field) IsSet() bool {
	return f.set
}

// Str returns the field as a trimmed string, or def when the field is
// missing, empty, or not a string.
func (f Field) Str(def string) string {
	if !f.set {
		return def
	}
	s, ok := f.val.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Float returns the field as a float64, tolerating numeric strings with
// thousands separators. Missing or unparseable values return def.
func (f Field) Float(def float64) float64 {
	if !f.set {
		return def
	}
	switch v := f.val.(type) {
	case float64:
		return v
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return def
}

// dateFormats are tried in order when parsing extracted date strings.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
}

// Date parses the field as a timestamp. The second return is false when the
// field is missing or no known format matches.
func (f Field) Date() (time.Time, bool) {
	s := f.Str("")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LongValue decodes either a plain JSON number or the Mongo export shape
// {"$numberLong": "12345"}.
type LongValue int64

// UnmarshalJSON implements the tolerant decode.
func (l *LongValue) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*l = LongValue(n)
		return nil
	}
	var wrapped struct {
		NumberLong string `json:"$numberLong"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.NumberLong != "" {
		if n, err := strconv.ParseInt(wrapped.NumberLong, 10, 64); err == nil {
			*l = LongValue(n)
		}
	}
	return nil
}

// DateValue decodes either an RFC 3339 string or the Mongo export shape
// {"$date": "..."}.
type DateValue struct {
	Time time.Time
}

// UnmarshalJSON implements the tolerant decode.
func (d *DateValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Time, _ = parseTimestamp(s)
		return nil
	}
	var wrapped struct {
		Date string `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		d.Time, _ = parseTimestamp(wrapped.Date)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SourceRecord is one entry of the exported document array.
type SourceRecord struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	FilePath      string         `json:"filePath"`
	FileSize      LongValue      `json:"fileSize"`
	FileType      string         `json:"fileType"`
	Status        string         `json:"status"`
	CreatedAt     DateValue      `json:"createdAt"`
	Metadata      RecordMetadata `json:"metadata"`
	ExtractedData *ExtractedData `json:"extractedData"`
}

// RecordMetadata carries the uploader-facing file metadata.
type RecordMetadata struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	TemplateName     string `json:"templateName"`
	OriginalFileName string `json:"originalFileName"`
	UploadedBy       string `json:"uploadedBy"`
}

// ExtractedData wraps the machine-extraction output.
type ExtractedData struct {
	LLMData *LLMData `json:"llmData"`
}

// LLMData holds either a structured invoice extraction, a free-text summary,
// or neither.
type LLMData struct {
	Invoice *InvoiceEnvelope `json:"invoice"`
	Summary string           `json:"summary"`
}

// InvoiceEnvelope is the {id, path, value} wrapper around the payload.
type InvoiceEnvelope struct {
	Value *InvoicePayload `json:"value"`
}

// InvoicePayload is the extracted invoice, every field optional.
type InvoicePayload struct {
	InvoiceID     Field             `json:"invoiceId"`
	VendorName    Field             `json:"vendorName"`
	VendorEmail   Field             `json:"vendorEmail"`
	VendorAddress Field             `json:"vendorAddress"`
	CustomerName  Field             `json:"customerName"`
	CustomerEmail Field             `json:"customerEmail"`
	InvoiceDate   Field             `json:"invoiceDate"`
	DueDate       Field             `json:"dueDate"`
	Subtotal      Field             `json:"subtotal"`
	TaxAmount     Field             `json:"taxAmount"`
	TotalAmount   Field             `json:"totalAmount"`
	Currency      Field             `json:"currency"`
	Status        Field             `json:"status"`
	Category      Field             `json:"category"`
	Description   Field             `json:"description"`
	LineItems     []LineItemPayload `json:"lineItems"`
}

// LineItemPayload is one extracted line item, every field optional.
type LineItemPayload struct {
	Description Field `json:"description"`
	Quantity    Field `json:"quantity"`
	UnitPrice   Field `json:"unitPrice"`
	TotalPrice  Field `json:"totalPrice"`
}

// invoicePayload returns the nested extraction payload, nil-safe at every
// level.
func (rec *SourceRecord) invoicePayload() *InvoicePayload {
	if rec.ExtractedData == nil || rec.ExtractedData.LLMData == nil || rec.ExtractedData.LLMData.Invoice == nil {
		return nil
	}
	return rec.ExtractedData.LLMData.Invoice.Value
}

// summary returns the free-text summary when the record carries one.
func (rec *SourceRecord) summary() string {
	if rec.ExtractedData == nil || rec.ExtractedData.LLMData == nil {
		return ""
	}
	return rec.ExtractedData.LLMData.Summary
}
