package models

import "time"

// Metric names written by the aggregation reporter.
const (
	MetricMonthlySpend    = "monthly_spend"
	MetricMonthlyCount    = "monthly_invoice_count"
	MetricAvgInvoiceValue = "avg_invoice_value"
)

// Metric categories.
const (
	MetricCategoryFinancial   = "financial"
	MetricCategoryOperational = "operational"
)

// AnalyticsRow is a derived metric value for one month bucket. Rows are a
// cache of aggregates over invoices: regenerable at any time, never edited
// by hand.
type AnalyticsRow struct {
	ID       int64     `json:"id"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Period   time.Time `json:"period"`
	Category string    `json:"category"`
}
