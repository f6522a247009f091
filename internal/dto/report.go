package dto

import (
	"github.com/shopspring/decimal"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

// CreateReportRequest opens a new draft report.
type CreateReportRequest struct {
	ReportType         models.ReportType `json:"report_type" binding:"required" validate:"required,oneof=PREPAYMENT REIMBURSEMENT"`
	Reason             string            `json:"reason" validate:"required"`
	DestinationCountry string            `json:"destination_country" validate:"required"`
	CurrencyCode       string            `json:"currency_code" validate:"required,len=3"`
	PrepaidAmount      decimal.Decimal   `json:"prepaid_amount"`
	StartDate          string            `json:"start_date" validate:"required"`
	EndDate            string            `json:"end_date" validate:"required"`
}

// UpdateReportRequest edits a draft report; only legal while PENDING.
type UpdateReportRequest struct {
	Reason             string          `json:"reason" validate:"required"`
	DestinationCountry string          `json:"destination_country" validate:"required"`
	CurrencyCode       string          `json:"currency_code" validate:"required,len=3"`
	PrepaidAmount      decimal.Decimal `json:"prepaid_amount"`
	StartDate          string          `json:"start_date" validate:"required"`
	EndDate            string          `json:"end_date" validate:"required"`
}

// ReportView decorates a report with its localized label and the viewer's
// affordances.
type ReportView struct {
	models.Report
	StatusLabel string             `json:"status_label"`
	ViewerRole  workflow.Role      `json:"viewer_role"`
	Actions     workflow.ActionSet `json:"actions"`
}

// NewReportView projects a report for the given display language. The viewer
// role is derived from the report status alone.
func NewReportView(report models.Report, lang workflow.Language) ReportView {
	role := workflow.ReviewerFor(report.Status)
	return ReportView{
		Report:      report,
		StatusLabel: workflow.Label(report.Status, lang),
		ViewerRole:  role,
		Actions:     workflow.ActionsFor(report.Status, role),
	}
}
