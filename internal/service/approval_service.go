package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type approvalReportStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
	UpdateStatus(ctx context.Context, id string, from, to workflow.ReportStatus) error
	UpdateTotals(ctx context.Context, id string, total decimal.Decimal) error
}

type approvalExpenseStore interface {
	GetByID(ctx context.Context, id string) (*models.Expense, error)
	ListByReport(ctx context.Context, reportID string) ([]models.Expense, error)
	UpdateStatus(ctx context.Context, id string, status workflow.ExpenseStatus, rejectionReason *string) error
	ResetStatuses(ctx context.Context, reportID string) error
	CountPending(ctx context.Context, reportID string) (int, error)
	CountByStatus(ctx context.Context, reportID string, status workflow.ExpenseStatus) (int, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApprovalService drives reports through the review pipeline: submission,
// whole-report decisions, per-expense accounting review, resumption of
// rejected drafts, and prepayment reconciliation.
type ApprovalService struct {
	reports  approvalReportStore
	expenses approvalExpenseStore
	audit    auditLogger
	cache    *CacheService
	logger   *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(reports approvalReportStore, expenses approvalExpenseStore, audit auditLogger, cache *CacheService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{reports: reports, expenses: expenses, audit: audit, cache: cache, logger: logger}
}

// Submit moves a draft into the pipeline. Only the owner may submit, and only
// a report that carries at least one expense.
func (s *ApprovalService) Submit(ctx context.Context, reportID string, actor *models.JWTClaims) (*dto.ReportTransitionResponse, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(report, actor); err != nil {
		return nil, err
	}

	next, err := workflow.NextOnSubmit(report.Status)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
	}

	expenses, err := s.expenses.ListByReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	if len(expenses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report has no expenses to submit")
	}

	// A resumed draft may still carry decisions from the previous round.
	if err := s.expenses.ResetStatuses(ctx, reportID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset expense statuses")
	}

	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}
	if err := s.reports.UpdateTotals(ctx, reportID, total); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report totals")
	}

	if err := s.transition(ctx, report.ID, report.Status, next); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionReportSubmit, report.ID, report.Status, next)
	s.invalidate(ctx, report.ID)
	return &dto.ReportTransitionResponse{ReportID: report.ID, Status: next}, nil
}

// ReviewReport applies a whole-report approve or reject decision by the
// reviewer implied by the report's current stage. Rejections must name at
// least one expense with a non-empty reason; those reasons are persisted onto
// the expenses so the employee sees them when reopening the draft.
func (s *ApprovalService) ReviewReport(ctx context.Context, reportID string, req dto.ReviewReportRequest, actor *models.JWTClaims) (*dto.ReportTransitionResponse, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	role := reviewerRole(actor)
	if actor != nil && actor.Role == models.RoleAdmin {
		// Admins act as the reviewer the current stage expects.
		role = workflow.ReviewerFor(report.Status)
	}
	if !workflow.Actionable(report.Status, role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not review a %s report", role, report.Status))
	}

	var next workflow.ReportStatus
	switch req.Action {
	case workflow.ActionApprove:
		// The client blocks this combination before sending; never trust it.
		for _, rejection := range req.ExpenseRejections {
			if strings.TrimSpace(rejection.RejectionReason) != "" {
				return nil, appErrors.Clone(appErrors.ErrValidation, "cannot approve a report that carries rejection reasons")
			}
		}
		next, err = workflow.NextOnApprove(report.Status, report.ReportType == models.ReportTypeReimbursement)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
		}
	case workflow.ActionReject:
		next, err = workflow.NextOnReject(report.Status)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
		}
		rejections, err := normalizeRejections(req.ExpenseRejections)
		if err != nil {
			return nil, err
		}
		for _, rejection := range rejections {
			reason := rejection.RejectionReason
			if err := s.expenses.UpdateStatus(ctx, rejection.ExpenseID, workflow.ExpenseRejected, &reason); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("expense %s is not pending", rejection.ExpenseID))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record expense rejection")
			}
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
	}

	if err := s.transition(ctx, report.ID, report.Status, next); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionReportReview, report.ID, report.Status, next)
	s.invalidate(ctx, report.ID)
	return &dto.ReportTransitionResponse{ReportID: report.ID, Status: next}, nil
}

// ApproveExpense records an accounting approval on a single expense.
func (s *ApprovalService) ApproveExpense(ctx context.Context, expenseID string, actor *models.JWTClaims) (*dto.ExpenseDecisionResponse, error) {
	return s.decideExpense(ctx, expenseID, workflow.ExpenseApproved, nil, actor)
}

// RejectExpense records an accounting rejection. The reason is mandatory and
// capped at the maximum rejection reason length.
func (s *ApprovalService) RejectExpense(ctx context.Context, expenseID string, req dto.RejectExpenseRequest, actor *models.JWTClaims) (*dto.ExpenseDecisionResponse, error) {
	reason := strings.TrimSpace(req.RejectionReason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	if len([]rune(reason)) > workflow.MaxRejectionReasonLength {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("rejection reason must be at most %d characters", workflow.MaxRejectionReasonLength))
	}
	return s.decideExpense(ctx, expenseID, workflow.ExpenseRejected, &reason, actor)
}

func (s *ApprovalService) decideExpense(ctx context.Context, expenseID string, status workflow.ExpenseStatus, reason *string, actor *models.JWTClaims) (*dto.ExpenseDecisionResponse, error) {
	if reviewerRole(actor) != workflow.RoleAccounting {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only accounting reviews individual expenses")
	}
	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expense")
	}
	report, err := s.loadReport(ctx, expense.ReportID)
	if err != nil {
		return nil, err
	}
	if report.Status != workflow.StatusAccountingPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("report %s is not under accounting review", report.ID))
	}

	if err := s.expenses.UpdateStatus(ctx, expenseID, status, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "expense already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record expense decision")
	}
	expense.Status = status
	expense.RejectionReason = reason
	expense.UpdatedAt = time.Now().UTC()

	response := &dto.ExpenseDecisionResponse{Expense: *expense, ReportStatus: report.Status}

	pending, err := s.expenses.CountPending(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending expenses")
	}
	if pending == 0 {
		approved, err := s.expenses.CountByStatus(ctx, report.ID, workflow.ExpenseApproved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved expenses")
		}
		next := workflow.NextOnAccountingComplete(approved > 0)
		if err := s.transition(ctx, report.ID, report.Status, next); err != nil {
			return nil, err
		}
		response.ReportStatusChanged = true
		response.ReportStatus = next
		s.emitAudit(ctx, actor, models.AuditActionReportReview, report.ID, workflow.StatusAccountingPending, next)
	}

	s.emitAudit(ctx, actor, models.AuditActionExpenseReview, expense.ID, "", workflow.ReportStatus(status))
	s.invalidate(ctx, report.ID)
	return response, nil
}

// Resume covers two stalls. A REJECTED report is reopened by its owner as an
// editable draft; prior rejection reasons stay on the expenses until the next
// submission clears them. An ACCOUNTING_PENDING report whose expenses are all
// decided re-runs the completion transition, covering a completion signal the
// client never received.
func (s *ApprovalService) Resume(ctx context.Context, reportID string, actor *models.JWTClaims) (*dto.ReportTransitionResponse, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	var next workflow.ReportStatus
	switch report.Status {
	case workflow.StatusRejected:
		if err := requireOwner(report, actor); err != nil {
			return nil, err
		}
		next = workflow.StatusPending
	case workflow.StatusAccountingPending:
		if reviewerRole(actor) != workflow.RoleAccounting {
			if err := requireOwner(report, actor); err != nil {
				return nil, err
			}
		}
		pending, err := s.expenses.CountPending(ctx, report.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending expenses")
		}
		if pending > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "expenses still await review")
		}
		approved, err := s.expenses.CountByStatus(ctx, report.ID, workflow.ExpenseApproved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved expenses")
		}
		next = workflow.NextOnAccountingComplete(approved > 0)
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("no resume transition from %s", report.Status))
	}

	if err := s.transition(ctx, report.ID, report.Status, next); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionReportResume, report.ID, report.Status, next)
	s.invalidate(ctx, report.ID)
	return &dto.ReportTransitionResponse{ReportID: report.ID, Status: next}, nil
}

// Reconcile settles a disbursed prepayment against the actual spend. The
// outcome picks the settlement branch: equal spend closes the report, lower
// spend queues a funds return, higher spend queues a top-up review.
func (s *ApprovalService) Reconcile(ctx context.Context, reportID string, actor *models.JWTClaims) (*dto.ReportTransitionResponse, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(report, actor); err != nil {
		return nil, err
	}

	expenses, err := s.expenses.ListByReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	spend := decimal.Zero
	for _, expense := range expenses {
		if expense.Status == workflow.ExpenseApproved {
			spend = spend.Add(expense.Amount)
		}
	}

	outcome := workflow.SpendMatchesPrepaid
	switch spend.Cmp(report.PrepaidAmount) {
	case -1:
		outcome = workflow.SpendBelowPrepaid
	case 1:
		outcome = workflow.SpendAbovePrepaid
	}
	next, err := workflow.NextOnReconcile(report.Status, outcome)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
	}

	if err := s.reports.UpdateTotals(ctx, reportID, spend); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report totals")
	}
	if err := s.transition(ctx, report.ID, report.Status, next); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionReportReconcile, report.ID, report.Status, next)
	s.invalidate(ctx, report.ID)
	return &dto.ReportTransitionResponse{ReportID: report.ID, Status: next}, nil
}

func (s *ApprovalService) loadReport(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// transition applies a guarded status update. A zero-row update means another
// reviewer won the race, surfaced as a conflict rather than a retry.
func (s *ApprovalService) transition(ctx context.Context, id string, from, to workflow.ReportStatus) error {
	if err := s.reports.UpdateStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "report status changed concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report status")
	}
	return nil
}

func (s *ApprovalService) invalidate(ctx context.Context, reportID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, expenseCacheKey(reportID)); err != nil {
		s.logger.Warn("failed to invalidate expense cache", zap.String("report_id", reportID), zap.Error(err))
	}
}

func (s *ApprovalService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, resourceID string, from, to workflow.ReportStatus) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"from": from, "to": to})
	var userID *string
	if actor != nil {
		userID = &actor.UserID
	}
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "reports",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "approval-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func reviewerRole(actor *models.JWTClaims) workflow.Role {
	if actor == nil {
		return workflow.RoleOther
	}
	switch actor.Role {
	case models.RoleSupervisor:
		return workflow.RoleSupervisor
	case models.RoleAccounting:
		return workflow.RoleAccounting
	case models.RoleTreasury:
		return workflow.RoleTreasury
	default:
		return workflow.RoleOther
	}
}

func requireOwner(report *models.Report, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleAdmin || actor.UserID == report.EmployeeID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "report belongs to another employee")
}

// normalizeRejections trims reasons, drops empty pairs, and enforces the
// reason length cap. Clients truncate at input time, so an over-long reason
// here is a broken client and gets a validation error, not a silent trim. An
// empty result is a validation error too: a rejection must explain itself.
func normalizeRejections(rejections []models.ExpenseRejection) ([]models.ExpenseRejection, error) {
	result := make([]models.ExpenseRejection, 0, len(rejections))
	for _, rejection := range rejections {
		reason := strings.TrimSpace(rejection.RejectionReason)
		if rejection.ExpenseID == "" || reason == "" {
			continue
		}
		if len([]rune(reason)) > workflow.MaxRejectionReasonLength {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("rejection reason for expense %s must be at most %d characters", rejection.ExpenseID, workflow.MaxRejectionReasonLength))
		}
		result = append(result, models.ExpenseRejection{ExpenseID: rejection.ExpenseID, RejectionReason: reason})
	}
	if len(result) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one expense rejection with a reason is required")
	}
	return result, nil
}
