package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	"github.com/viaticos-app/viaticos-api/pkg/export"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered report file.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a report with its expenses into downloadable files.
type ExportService struct {
	reports  *ReportService
	expenses *ExpenseService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reports *ReportService, expenses *ExpenseService, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, expenses: expenses, csv: csv, pdf: pdf, logger: logger}
}

// Render builds the report dataset and renders it in the requested format,
// honoring the same visibility rules as the read endpoints.
func (s *ExportService) Render(ctx context.Context, reportID string, format ExportFormat, lang workflow.Language, actor *models.JWTClaims) (*ExportResult, error) {
	report, err := s.reports.Get(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByReport(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}

	dataset := buildReportDataset(report, expenses, lang)
	title := fmt.Sprintf("Expense Report %s", report.ID)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    buildExportFilename(report, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildReportDataset(report *models.Report, expenses []models.Expense, lang workflow.Language) export.Dataset {
	rows := make([]map[string]string, 0, len(expenses))
	for _, expense := range expenses {
		reason := ""
		if expense.RejectionReason != nil {
			reason = *expense.RejectionReason
		}
		rows = append(rows, map[string]string{
			"Date":             expense.ExpenseDate.Format("2006-01-02"),
			"Category":         expense.CategoryName,
			"Purpose":          expense.Purpose,
			"Amount":           expense.Amount.StringFixed(2),
			"Currency":         expense.CurrencyCode,
			"Status":           workflow.ExpenseLabel(expense.Status, lang),
			"Rejection Reason": reason,
		})
	}
	rows = append(rows, map[string]string{
		"Date":             "",
		"Category":         "Total",
		"Purpose":          report.Reason,
		"Amount":           report.TotalExpenses.StringFixed(2),
		"Currency":         report.CurrencyCode,
		"Status":           workflow.Label(report.Status, lang),
		"Rejection Reason": "",
	})
	return export.Dataset{
		Headers: []string{"Date", "Category", "Purpose", "Amount", "Currency", "Status", "Rejection Reason"},
		Rows:    rows,
	}
}

func buildExportFilename(report *models.Report, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	kind := strings.ToLower(string(report.ReportType))
	return fmt.Sprintf("report_%s_%s_%s.%s", kind, report.ID, timestamp, format)
}
