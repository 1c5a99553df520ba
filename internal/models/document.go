package models

import "time"

// DocumentType distinguishes invoice scans from everything else.
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "INVOICE"
	DocumentTypeOther   DocumentType = "OTHER"
)

// Document is an uploaded or ingested file, optionally linked to an invoice.
type Document struct {
	ID               string       `json:"id"`
	InvoiceID        *string      `json:"invoiceId,omitempty"`
	FileName         string       `json:"fileName"`
	FilePath         string       `json:"filePath"`
	FileSize         int64        `json:"fileSize"`
	MimeType         *string      `json:"mimeType,omitempty"`
	Type             DocumentType `json:"type"`
	ProcessingStatus string       `json:"processingStatus"`
	UploadedAt       time.Time    `json:"uploadedAt"`
}

// DocumentStats is the aggregate view returned by /api/documents/stats.
type DocumentStats struct {
	Total     int64         `json:"total"`
	ByType    []TypeCount   `json:"byType"`
	ByStatus  []StatusCount `json:"byStatus"`
	TotalSize int64         `json:"totalSize"`
}

// TypeCount pairs a document type with its count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// StatusCount pairs a processing status with its count.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
