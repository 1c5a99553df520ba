// Package export writes spend reports as Excel workbooks.
package export

import (
	"fmt"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportWriter builds the spend report workbook: a summary sheet from the
// analytics views plus the full invoice list.
type ReportWriter struct {
	service  *analytics.Service
	invoices *repository.InvoiceRepository
	logger   *zap.Logger
}

// NewReportWriter creates a report writer.
func NewReportWriter(service *analytics.Service, invoices *repository.InvoiceRepository, logger *zap.Logger) *ReportWriter {
	return &ReportWriter{
		service:  service,
		invoices: invoices,
		logger:   logger,
	}
}

// Write builds the workbook and saves it to outputPath.
func (w *ReportWriter) Write(outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f); err != nil {
		return err
	}
	if err := w.writeInvoices(f); err != nil {
		return err
	}

	// Drop the default sheet created by excelize.
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
		f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	w.logger.Info("Report written", zap.String("output_path", outputPath))
	return nil
}

func (w *ReportWriter) writeSummary(f *excelize.File) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	overview, err := w.service.Overview()
	if err != nil {
		return err
	}

	w.setCell(f, sheet, "A1", "Metric")
	w.setCell(f, sheet, "B1", "Value")
	w.setCell(f, sheet, "A2", "Total spend (YTD)")
	w.setCell(f, sheet, "B2", fmt.Sprintf("%.2f", overview.TotalSpend))
	w.setCell(f, sheet, "A3", "Invoices processed")
	w.setCell(f, sheet, "B3", fmt.Sprintf("%d", overview.TotalInvoices))
	w.setCell(f, sheet, "A4", "Documents this month")
	w.setCell(f, sheet, "B4", fmt.Sprintf("%d", overview.DocumentsUploaded))
	w.setCell(f, sheet, "A5", "Average invoice value")
	w.setCell(f, sheet, "B5", fmt.Sprintf("%.2f", overview.AverageInvoiceValue))

	vendors, err := w.service.TopVendors()
	if err != nil {
		return err
	}
	w.setCell(f, sheet, "A7", "Top vendors")
	for i, v := range vendors {
		row := 8 + i
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), v.Name)
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%.2f", v.TotalSpend))
	}

	return nil
}

func (w *ReportWriter) writeInvoices(f *excelize.File) error {
	const sheet = "Invoices"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create invoices sheet: %w", err)
	}

	headers := []string{"Invoice Number", "Vendor", "Issue Date", "Due Date", "Subtotal", "Tax", "Total", "Currency", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		w.setCell(f, sheet, cell, h)
	}

	row := 2
	page := 1
	for {
		invoices, pagination, err := w.invoices.List(
			repository.ListOptions{Page: page, Limit: 100, SortBy: "issueDate", SortOrder: "asc"},
			repository.InvoiceFilter{},
		)
		if err != nil {
			return err
		}
		for i := range invoices {
			w.writeInvoiceRow(f, sheet, row, &invoices[i])
			row++
		}
		if page >= pagination.Pages {
			break
		}
		page++
	}

	return nil
}

func (w *ReportWriter) writeInvoiceRow(f *excelize.File, sheet string, row int, inv *models.Invoice) {
	vendorName := ""
	if inv.Vendor != nil {
		vendorName = inv.Vendor.Name
	}
	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format("2006-01-02")
	}

	values := []string{
		inv.InvoiceNumber,
		vendorName,
		inv.IssueDate.Format("2006-01-02"),
		dueDate,
		fmt.Sprintf("%.2f", inv.Subtotal),
		fmt.Sprintf("%.2f", inv.TaxAmount),
		fmt.Sprintf("%.2f", inv.TotalAmount),
		inv.Currency,
		string(inv.Status),
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		w.setCell(f, sheet, cell, v)
	}
}

// setCell sets a cell value, logging instead of failing on errors.
func (w *ReportWriter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
