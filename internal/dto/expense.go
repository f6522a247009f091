package dto

import (
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest adds a line item to a draft report.
type CreateExpenseRequest struct {
	ReportID     string          `json:"report_id" binding:"required" validate:"required"`
	CategoryName string          `json:"category_name" validate:"required"`
	Purpose      string          `json:"purpose" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	ExpenseDate  string          `json:"expense_date" validate:"required"`
}

// UpdateExpenseRequest edits a line item; only legal while the owning report
// is PENDING.
type UpdateExpenseRequest struct {
	CategoryName string          `json:"category_name" validate:"required"`
	Purpose      string          `json:"purpose" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	ExpenseDate  string          `json:"expense_date" validate:"required"`
}
