// Package repository contains the hand-written SQL persistence layer.
// Each repository owns one aggregate and takes an optional *sql.Tx so batch
// jobs can group writes per source record.
package repository

import (
	"database/sql"
	"errors"
	"math"
)

// ErrNotFound is returned by single-entity lookups when no row matches.
// Handlers map it to a 404.
var ErrNotFound = errors.New("not found")

// ListOptions captures the common list query parameters: pagination,
// free-text search, equality filters and a single sort column.
type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filters   map[string]string
}

// Normalize applies the defaults used across all list endpoints.
func (o *ListOptions) Normalize(defaultSort string) {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 || o.Limit > 100 {
		o.Limit = 20
	}
	if o.SortBy == "" {
		o.SortBy = defaultSort
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "asc"
	}
	if o.Filters == nil {
		o.Filters = map[string]string{}
	}
}

// Offset returns the row offset for the current page.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Pagination is the envelope block returned alongside list data.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count from a total row count.
func NewPagination(opts ListOptions, total int64) Pagination {
	return Pagination{
		Page:  opts.Page,
		Limit: opts.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(opts.Limit))),
	}
}

// executor covers both *sql.DB and *sql.Tx so repository writes can run
// inside or outside a transaction.
type executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// exec picks the transaction when one is supplied.
func exec(db *sql.DB, tx *sql.Tx) executor {
	if tx != nil {
		return tx
	}
	return db
}

// nullStr converts an optional string for SQL parameters.
func nullStr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// strPtr converts a scanned nullable column back to an optional string.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
