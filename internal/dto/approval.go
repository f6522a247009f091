package dto

import (
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

// ReviewReportRequest carries a whole-report approve/reject decision. Reject
// requires at least one expense rejection with a non-empty reason.
type ReviewReportRequest struct {
	Action            workflow.Action           `json:"action" binding:"required"`
	ExpenseRejections []models.ExpenseRejection `json:"expense_rejections,omitempty"`
}

// RejectExpenseRequest carries a per-expense rejection in the accounting flow.
type RejectExpenseRequest struct {
	Action          workflow.Action `json:"action"`
	RejectionReason string          `json:"rejection_reason" binding:"required"`
}

// ExpenseDecisionResponse is the per-expense endpoint reply. The
// report_status_changed flag tells the client the owning report moved past
// accounting and the view should close.
type ExpenseDecisionResponse struct {
	Expense             models.Expense        `json:"expense"`
	ReportStatusChanged bool                  `json:"report_status_changed"`
	ReportStatus        workflow.ReportStatus `json:"report_status"`
}

// ReportTransitionResponse is the reply for report-level transitions.
type ReportTransitionResponse struct {
	ReportID string                `json:"report_id"`
	Status   workflow.ReportStatus `json:"status"`
}
