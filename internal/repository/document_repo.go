package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"go.uber.org/zap"
)

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of documents, newest first. Search matches the file
// name; the type filter matches the mime type substring.
func (r *DocumentRepository) List(opts ListOptions) ([]models.Document, Pagination, error) {
	opts.Normalize("uploadedAt")

	var conds []string
	var args []interface{}

	if opts.Search != "" {
		conds = append(conds, "LOWER(file_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(opts.Search)+"%")
	}
	if t := opts.Filters["type"]; t != "" && t != "all" {
		conds = append(conds, "LOWER(COALESCE(mime_type, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM documents "+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count documents", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to count documents: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, invoice_id, file_name, file_path, file_size, mime_type, type, processing_status, uploaded_at
		FROM documents
		%s
		ORDER BY uploaded_at DESC
		LIMIT ? OFFSET ?
	`, where)

	rows, err := r.db.Query(query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, Pagination{}, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var d models.Document
		var invoiceID, mimeType sql.NullString
		if err := rows.Scan(&d.ID, &invoiceID, &d.FileName, &d.FilePath, &d.FileSize, &mimeType, &d.Type, &d.ProcessingStatus, &d.UploadedAt); err != nil {
			return nil, Pagination{}, fmt.Errorf("failed to scan document: %w", err)
		}
		d.InvoiceID = strPtr(invoiceID)
		d.MimeType = strPtr(mimeType)
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return documents, NewPagination(opts, total), nil
}

// GetByID retrieves a single document.
func (r *DocumentRepository) GetByID(id string) (*models.Document, error) {
	var d models.Document
	var invoiceID, mimeType sql.NullString
	err := r.db.QueryRow(
		"SELECT id, invoice_id, file_name, file_path, file_size, mime_type, type, processing_status, uploaded_at FROM documents WHERE id = ?",
		id,
	).Scan(&d.ID, &invoiceID, &d.FileName, &d.FilePath, &d.FileSize, &mimeType, &d.Type, &d.ProcessingStatus, &d.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	d.InvoiceID = strPtr(invoiceID)
	d.MimeType = strPtr(mimeType)
	return &d, nil
}

// Create inserts a document record
func (r *DocumentRepository) Create(tx *sql.Tx, d *models.Document) error {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO documents (id, invoice_id, file_name, file_path, file_size, mime_type, type, processing_status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := exec(r.db, tx).Exec(query,
		d.ID, nullStr(d.InvoiceID), d.FileName, d.FilePath, d.FileSize,
		nullStr(d.MimeType), string(d.Type), d.ProcessingStatus, d.UploadedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.String("file_name", d.FileName), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// Delete removes a document row. The stored file is the caller's problem.
func (r *DocumentRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSince counts documents uploaded on or after the given time.
func (r *DocumentRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM documents WHERE uploaded_at >= ?", since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Stats returns the aggregate document view: total count, per-type counts,
// a processed/pending split on this month's uploads, and the summed size.
func (r *DocumentRepository) Stats() (*models.DocumentStats, error) {
	stats := &models.DocumentStats{}

	err := r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM documents").
		Scan(&stats.Total, &stats.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate documents: %w", err)
	}

	rows, err := r.db.Query("SELECT type, COUNT(*) FROM documents GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to group documents by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc models.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType = append(stats.ByType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	processed, err := r.CountSince(monthStart)
	if err != nil {
		return nil, err
	}
	stats.ByStatus = []models.StatusCount{
		{Status: "processed", Count: processed},
		{Status: "pending", Count: stats.Total - processed},
	}

	return stats, nil
}

// DeleteAll clears the table. Used by the ingestion reset.
func (r *DocumentRepository) DeleteAll(tx *sql.Tx) error {
	if _, err := exec(r.db, tx).Exec("DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}
