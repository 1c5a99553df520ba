package analytics

import (
	"fmt"
	"time"

	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"go.uber.org/zap"
)

// departmentNames is the fixed placeholder partition used until invoices
// carry real department data. Invoices are dealt out round-robin.
var departmentNames = []string{"IT", "Finance", "Operations", "Marketing", "HR"}

// budgetFactor derives an allocated budget from observed spend.
const budgetFactor = 1.3

// Service computes the dashboard read views on demand.
type Service struct {
	invoices  *repository.InvoiceRepository
	documents *repository.DocumentRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an analytics service.
func NewService(invoices *repository.InvoiceRepository, documents *repository.DocumentRepository, logger *zap.Logger) *Service {
	return &Service{
		invoices:  invoices,
		documents: documents,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Overview returns the headline stats: year-to-date spend over settled and
// open invoices, processed invoice count, this month's document uploads and
// the all-time average invoice value.
func (s *Service) Overview() (*models.OverviewStats, error) {
	now := s.now()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	spend, err := s.invoices.SpendSince(yearStart)
	if err != nil {
		return nil, err
	}
	count, err := s.invoices.CountProcessed()
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.CountSince(monthStart)
	if err != nil {
		return nil, err
	}
	avg, err := s.invoices.AverageValue()
	if err != nil {
		return nil, err
	}

	return &models.OverviewStats{
		TotalSpend:          spend,
		TotalInvoices:       count,
		DocumentsUploaded:   docs,
		AverageInvoiceValue: avg,
	}, nil
}

// Trends returns invoice count and value per month over the trailing six
// months.
func (s *Service) Trends() ([]models.MonthlyTrend, error) {
	since := s.now().AddDate(0, -6, 0)
	return s.invoices.MonthlyTrends(since)
}

// TopVendors ranks the ten biggest vendors by settled and open spend.
func (s *Service) TopVendors() ([]models.VendorSpend, error) {
	return s.invoices.TopVendorsBySpend(10)
}

// CategorySpend returns total spend per invoice category.
func (s *Service) CategorySpend() ([]models.CategorySpend, error) {
	return s.invoices.CategorySpend()
}

// CashOutflow returns the pending invoice totals grouped by due date over the
// next thirty days.
func (s *Service) CashOutflow() ([]models.CashOutflowBucket, error) {
	now := s.now()
	return s.invoices.CashOutflow(now, now.AddDate(0, 0, 30))
}

// Departments deals all invoices round-robin across the placeholder
// department names and aggregates spend per bucket. Budget figures are
// derived from observed spend, not tracked.
func (s *Service) Departments() ([]models.DepartmentAnalytics, error) {
	summaries, err := s.invoices.ListSummaries()
	if err != nil {
		return nil, err
	}

	result := make([]models.DepartmentAnalytics, len(departmentNames))
	for i, name := range departmentNames {
		result[i].Department = name
	}

	for i, inv := range summaries {
		d := &result[i%len(departmentNames)]
		d.TotalSpend += inv.TotalAmount
		d.InvoiceCount++
	}

	for i := range result {
		d := &result[i]
		if d.InvoiceCount > 0 {
			d.AvgInvoiceValue = d.TotalSpend / float64(d.InvoiceCount)
		}
		d.BudgetAllocated = d.TotalSpend * budgetFactor
		d.BudgetUtilized = d.TotalSpend
	}
	return result, nil
}

// DepartmentTrends returns the monthly totals formatted as "YYYY-MM" buckets
// over the trailing six months.
func (s *Service) DepartmentTrends() ([]models.DepartmentTrend, error) {
	trends, err := s.Trends()
	if err != nil {
		return nil, err
	}

	result := make([]models.DepartmentTrend, 0, len(trends))
	for _, t := range trends {
		result = append(result, models.DepartmentTrend{
			Month:        fmt.Sprintf("%04d-%02d", t.Year, t.Month),
			TotalAmount:  t.TotalValue,
			InvoiceCount: t.InvoiceCount,
		})
	}
	return result, nil
}
