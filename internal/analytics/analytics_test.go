package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/pkg/database"
)

// fixedNow keeps month buckets deterministic across the suite.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db        *database.DB
	vendors   *repository.VendorRepository
	invoices  *repository.InvoiceRepository
	documents *repository.DocumentRepository
	analytics *repository.AnalyticsRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations("../../migrations"))

	return &testEnv{
		db:        db,
		vendors:   repository.NewVendorRepository(db.DB, logger),
		invoices:  repository.NewInvoiceRepository(db.DB, logger),
		documents: repository.NewDocumentRepository(db.DB, logger),
		analytics: repository.NewAnalyticsRepository(db.DB, logger),
	}
}

func (e *testEnv) seedVendor(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, e.vendors.Create(nil, &models.Vendor{ID: id, Name: name}))
}

func (e *testEnv) seedInvoice(t *testing.T, id, vendorID string, issued time.Time, total float64, status models.InvoiceStatus) {
	t.Helper()
	category := "General"
	require.NoError(t, e.invoices.Create(nil, &models.Invoice{
		ID:            id,
		InvoiceNumber: "N-" + id,
		VendorID:      vendorID,
		IssueDate:     issued,
		Subtotal:      total,
		TotalAmount:   total,
		Currency:      "EUR",
		Status:        status,
		Category:      &category,
	}))
}

func (e *testEnv) newReporter(t *testing.T) *Reporter {
	t.Helper()
	r := NewReporter(e.db, e.invoices, e.analytics, zap.NewNop())
	r.now = func() time.Time { return fixedNow }
	return r
}

func (e *testEnv) newService(t *testing.T) *Service {
	t.Helper()
	s := NewService(e.invoices, e.documents, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestReporterWritesMonthlyMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")

	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	env.seedInvoice(t, "i1", "v1", may.AddDate(0, 0, 4), 100, models.StatusPaid)
	env.seedInvoice(t, "i2", "v1", may.AddDate(0, 0, 20), 300, models.StatusPending)
	env.seedInvoice(t, "i3", "v1", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), 50, models.StatusPending)

	require.NoError(t, env.newReporter(t).Run())

	spend, err := env.analytics.ListByMetric(models.MetricMonthlySpend)
	require.NoError(t, err)
	require.Len(t, spend, 2)
	assert.Equal(t, 400.0, spend[0].Value)
	assert.Equal(t, models.MetricCategoryFinancial, spend[0].Category)
	assert.Equal(t, 50.0, spend[1].Value)

	counts, err := env.analytics.ListByMetric(models.MetricMonthlyCount)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 2.0, counts[0].Value)
	assert.Equal(t, models.MetricCategoryOperational, counts[0].Category)

	avgs, err := env.analytics.ListByMetric(models.MetricAvgInvoiceValue)
	require.NoError(t, err)
	require.Len(t, avgs, 2)
	assert.Equal(t, 200.0, avgs[0].Value)
}

func TestReporterSkipsEmptyMonths(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 100, models.StatusPaid)

	require.NoError(t, env.newReporter(t).Run())

	spend, err := env.analytics.ListByMetric(models.MetricMonthlySpend)
	require.NoError(t, err)
	assert.Len(t, spend, 1)
}

func TestReporterIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), 100, models.StatusPaid)

	reporter := env.newReporter(t)
	require.NoError(t, reporter.Run())
	require.NoError(t, reporter.Run())

	spend, err := env.analytics.ListByMetric(models.MetricMonthlySpend)
	require.NoError(t, err)
	assert.Len(t, spend, 1)
}

func TestServiceOverview(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 100, models.StatusPaid)
	env.seedInvoice(t, "i2", "v1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 200, models.StatusPending)
	// Cancelled invoices never count towards spend.
	env.seedInvoice(t, "i3", "v1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), 999, models.StatusCancelled)
	// Prior-year invoices are outside the YTD spend window.
	env.seedInvoice(t, "i4", "v1", time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC), 400, models.StatusPaid)

	stats, err := env.newService(t).Overview()
	require.NoError(t, err)

	assert.Equal(t, 300.0, stats.TotalSpend)
	assert.Equal(t, int64(3), stats.TotalInvoices)
	assert.InDelta(t, (100.0+200+999+400)/4, stats.AverageInvoiceValue, 0.01)
}

func TestServiceTopVendors(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	env.seedVendor(t, "v2", "Globex")
	env.seedVendor(t, "v3", "Idle Vendor")
	env.seedInvoice(t, "i1", "v1", fixedNow, 100, models.StatusPaid)
	env.seedInvoice(t, "i2", "v2", fixedNow, 500, models.StatusPending)

	vendors, err := env.newService(t).TopVendors()
	require.NoError(t, err)

	require.Len(t, vendors, 2)
	assert.Equal(t, "Globex", vendors[0].Name)
	assert.Equal(t, 500.0, vendors[0].TotalSpend)
	assert.Equal(t, "Acme", vendors[1].Name)
}

func TestServiceDepartmentsRoundRobin(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	for i := 0; i < 7; i++ {
		env.seedInvoice(t, string(rune('a'+i)), "v1",
			fixedNow.AddDate(0, 0, -i), 100, models.StatusPaid)
	}

	departments, err := env.newService(t).Departments()
	require.NoError(t, err)
	require.Len(t, departments, 5)

	// Seven invoices deal out 2/2/1/1/1 across the five names.
	assert.Equal(t, "IT", departments[0].Department)
	assert.Equal(t, 2, departments[0].InvoiceCount)
	assert.Equal(t, 200.0, departments[0].TotalSpend)
	assert.Equal(t, 1, departments[2].InvoiceCount)
	assert.InDelta(t, 260.0, departments[0].BudgetAllocated, 0.01)
	assert.Equal(t, 100.0, departments[0].AvgInvoiceValue)
}

func TestServiceDepartmentTrendsFormat(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), 150, models.StatusPaid)

	trends, err := env.newService(t).DepartmentTrends()
	require.NoError(t, err)

	require.Len(t, trends, 1)
	assert.Equal(t, "2024-04", trends[0].Month)
	assert.Equal(t, 150.0, trends[0].TotalAmount)
	assert.Equal(t, int64(1), trends[0].InvoiceCount)
}

func TestServiceCashOutflow(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "v1", "Acme")

	due := fixedNow.AddDate(0, 0, 10)
	category := "General"
	require.NoError(t, env.invoices.Create(nil, &models.Invoice{
		ID: "i1", InvoiceNumber: "N-1", VendorID: "v1",
		IssueDate: fixedNow.AddDate(0, 0, -20), DueDate: &due,
		TotalAmount: 750, Currency: "EUR",
		Status: models.StatusPending, Category: &category,
	}))

	buckets, err := env.newService(t).CashOutflow()
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, 750.0, buckets[0].TotalAmount)
	assert.Equal(t, int64(1), buckets[0].InvoiceCount)
}
