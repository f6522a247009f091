package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

// Expense is a single line item belonging to exactly one report.
type Expense struct {
	ID              string                 `db:"id" json:"id"`
	ReportID        string                 `db:"report_id" json:"report_id"`
	CategoryName    string                 `db:"category_name" json:"category_name"`
	Purpose         string                 `db:"purpose" json:"purpose"`
	Amount          decimal.Decimal        `db:"amount" json:"amount"`
	CurrencyCode    string                 `db:"currency_code" json:"currency_code"`
	ExpenseDate     time.Time              `db:"expense_date" json:"expense_date"`
	Status          workflow.ExpenseStatus `db:"status" json:"status"`
	RejectionReason *string                `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `db:"updated_at" json:"updated_at"`
}

// ExpenseRejection pairs an expense with the reviewer's reason.
type ExpenseRejection struct {
	ExpenseID       string `json:"expense_id"`
	RejectionReason string `json:"rejection_reason"`
}
