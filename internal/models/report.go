package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

// ReportType distinguishes the two reimbursement flows.
type ReportType string

const (
	ReportTypePrepayment    ReportType = "PREPAYMENT"
	ReportTypeReimbursement ReportType = "REIMBURSEMENT"
)

// Report is a travel expense report owned by an employee.
type Report struct {
	ID                 string                `db:"id" json:"id"`
	EmployeeID         string                `db:"employee_id" json:"employee_id"`
	ReportType         ReportType            `db:"report_type" json:"report_type"`
	Status             workflow.ReportStatus `db:"status" json:"status"`
	Reason             string                `db:"reason" json:"reason"`
	DestinationCountry string                `db:"destination_country" json:"destination_country"`
	CurrencyCode       string                `db:"currency_code" json:"currency_code"`
	PrepaidAmount      decimal.Decimal       `db:"prepaid_amount" json:"prepaid_amount"`
	TotalExpenses      decimal.Decimal       `db:"total_expenses" json:"total_expenses"`
	StartDate          time.Time             `db:"start_date" json:"start_date"`
	EndDate            time.Time             `db:"end_date" json:"end_date"`
	CreatedAt          time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time             `db:"updated_at" json:"updated_at"`
}

// ReportFilter constrains report listing queries.
type ReportFilter struct {
	EmployeeID string
	Status     []workflow.ReportStatus
	Type       ReportType
	Page       int
	PageSize   int
}
