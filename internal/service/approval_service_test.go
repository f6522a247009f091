package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type mockReportStore struct {
	reports      map[string]*models.Report
	statusErr    error
	transitions  []workflow.ReportStatus
	totalUpdates []decimal.Decimal
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if report, ok := m.reports[id]; ok {
		copy := *report
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStore) UpdateStatus(ctx context.Context, id string, from, to workflow.ReportStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	report, ok := m.reports[id]
	if !ok || report.Status != from {
		return sql.ErrNoRows
	}
	report.Status = to
	m.transitions = append(m.transitions, to)
	return nil
}

func (m *mockReportStore) UpdateTotals(ctx context.Context, id string, total decimal.Decimal) error {
	m.totalUpdates = append(m.totalUpdates, total)
	return nil
}

type mockExpenseStore struct {
	expenses map[string]*models.Expense
	order    []string
	resets   int
}

func (m *mockExpenseStore) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	if expense, ok := m.expenses[id]; ok {
		copy := *expense
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExpenseStore) ListByReport(ctx context.Context, reportID string) ([]models.Expense, error) {
	var result []models.Expense
	for _, id := range m.order {
		if m.expenses[id].ReportID == reportID {
			result = append(result, *m.expenses[id])
		}
	}
	return result, nil
}

func (m *mockExpenseStore) UpdateStatus(ctx context.Context, id string, status workflow.ExpenseStatus, rejectionReason *string) error {
	expense, ok := m.expenses[id]
	if !ok || expense.Status != workflow.ExpensePending {
		return sql.ErrNoRows
	}
	expense.Status = status
	expense.RejectionReason = rejectionReason
	return nil
}

func (m *mockExpenseStore) ResetStatuses(ctx context.Context, reportID string) error {
	m.resets++
	for _, expense := range m.expenses {
		if expense.ReportID == reportID {
			expense.Status = workflow.ExpensePending
			expense.RejectionReason = nil
		}
	}
	return nil
}

func (m *mockExpenseStore) CountPending(ctx context.Context, reportID string) (int, error) {
	return m.countByStatus(reportID, workflow.ExpensePending), nil
}

func (m *mockExpenseStore) CountByStatus(ctx context.Context, reportID string, status workflow.ExpenseStatus) (int, error) {
	return m.countByStatus(reportID, status), nil
}

func (m *mockExpenseStore) countByStatus(reportID string, status workflow.ExpenseStatus) int {
	count := 0
	for _, expense := range m.expenses {
		if expense.ReportID == reportID && expense.Status == status {
			count++
		}
	}
	return count
}

type mockAudit struct {
	logs []*models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func approvalFixture(status workflow.ReportStatus, reportType models.ReportType) (*ApprovalService, *mockReportStore, *mockExpenseStore, *mockAudit) {
	reports := &mockReportStore{reports: map[string]*models.Report{
		"r1": {ID: "r1", EmployeeID: "emp1", ReportType: reportType, Status: status, PrepaidAmount: decimal.NewFromInt(100)},
	}}
	expenses := &mockExpenseStore{
		expenses: map[string]*models.Expense{
			"e1": {ID: "e1", ReportID: "r1", Amount: decimal.NewFromInt(60), Status: workflow.ExpensePending},
			"e2": {ID: "e2", ReportID: "r1", Amount: decimal.NewFromInt(40), Status: workflow.ExpensePending},
		},
		order: []string{"e1", "e2"},
	}
	audit := &mockAudit{}
	svc := NewApprovalService(reports, expenses, audit, nil, zap.NewNop())
	return svc, reports, expenses, audit
}

func claims(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func TestApprovalSubmit(t *testing.T) {
	svc, reports, expenses, audit := approvalFixture(workflow.StatusPending, models.ReportTypePrepayment)

	result, err := svc.Submit(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSupervisorPending, result.Status)
	assert.Equal(t, workflow.StatusSupervisorPending, reports.reports["r1"].Status)
	assert.Equal(t, 1, expenses.resets)
	require.Len(t, reports.totalUpdates, 1)
	assert.True(t, reports.totalUpdates[0].Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, audit.logs)
}

func TestApprovalSubmitRequiresOwner(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusPending, models.ReportTypePrepayment)

	_, err := svc.Submit(context.Background(), "r1", claims("other", models.RoleEmployee))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestApprovalSubmitRejectsEmptyReport(t *testing.T) {
	svc, _, expenses, _ := approvalFixture(workflow.StatusPending, models.ReportTypePrepayment)
	expenses.expenses = map[string]*models.Expense{}
	expenses.order = nil

	_, err := svc.Submit(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestApprovalSubmitWrongStage(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusApproved, models.ReportTypePrepayment)

	_, err := svc.Submit(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestSupervisorApproveAdvancesToAccounting(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	result, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("sup1", models.RoleSupervisor))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccountingPending, result.Status)
	assert.Equal(t, workflow.StatusAccountingPending, reports.reports["r1"].Status)
}

func TestApproveBlockedBySubmittedRejectionReason(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	_, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{
		Action:            workflow.ActionApprove,
		ExpenseRejections: []models.ExpenseRejection{{ExpenseID: "e2", RejectionReason: "bad receipt"}},
	}, claims("sup1", models.RoleSupervisor))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, workflow.StatusSupervisorPending, reports.reports["r1"].Status)
}

func TestApproveIgnoresWhitespaceRejectionReasons(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	result, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{
		Action:            workflow.ActionApprove,
		ExpenseRejections: []models.ExpenseRejection{{ExpenseID: "e2", RejectionReason: "   "}},
	}, claims("sup1", models.RoleSupervisor))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccountingPending, result.Status)
	assert.Equal(t, workflow.StatusAccountingPending, reports.reports["r1"].Status)
}

func TestAdminReviewsAnyStage(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	result, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("adm1", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccountingPending, result.Status)
	assert.Equal(t, workflow.StatusAccountingPending, reports.reports["r1"].Status)

	// Stages without a reviewer stay closed to admins too.
	svc, _, _, _ = approvalFixture(workflow.StatusPending, models.ReportTypePrepayment)
	_, err = svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("adm1", models.RoleAdmin))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSupervisorRejectRequiresReasons(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	_, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{
		Action:            workflow.ActionReject,
		ExpenseRejections: []models.ExpenseRejection{{ExpenseID: "e1", RejectionReason: "   "}},
	}, claims("sup1", models.RoleSupervisor))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSupervisorRejectPersistsReasonsOnExpenses(t *testing.T) {
	svc, reports, expenses, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	result, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{
		Action:            workflow.ActionReject,
		ExpenseRejections: []models.ExpenseRejection{{ExpenseID: "e1", RejectionReason: "  duplicate charge  "}},
	}, claims("sup1", models.RoleSupervisor))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, result.Status)
	assert.Equal(t, workflow.StatusRejected, reports.reports["r1"].Status)
	require.NotNil(t, expenses.expenses["e1"].RejectionReason)
	assert.Equal(t, "duplicate charge", *expenses.expenses["e1"].RejectionReason)
	assert.Equal(t, workflow.ExpenseRejected, expenses.expenses["e1"].Status)
}

func TestReviewReportRoleStageMismatch(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)

	_, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("t1", models.RoleTreasury))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestTreasuryApproveBranchesOnReportType(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusTreasuryPending, models.ReportTypePrepayment)
	result, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("t1", models.RoleTreasury))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, result.Status)
	assert.Equal(t, workflow.StatusApproved, reports.reports["r1"].Status)

	svc, reports, _, _ = approvalFixture(workflow.StatusTreasuryPending, models.ReportTypeReimbursement)
	result, err = svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("t1", models.RoleTreasury))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApprovedForReimburse, result.Status)
	assert.Equal(t, workflow.StatusApprovedForReimburse, reports.reports["r1"].Status)
}

func TestApproveExpenseRequiresAccountingRole(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.ApproveExpense(context.Background(), "e1", claims("sup1", models.RoleSupervisor))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestApproveExpenseNoCompletionWhilePendingRemain(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	result, err := svc.ApproveExpense(context.Background(), "e1", claims("acc1", models.RoleAccounting))
	require.NoError(t, err)
	assert.False(t, result.ReportStatusChanged)
	assert.Equal(t, workflow.StatusAccountingPending, result.ReportStatus)
	assert.Equal(t, workflow.ExpenseApproved, result.Expense.Status)
	assert.Equal(t, workflow.StatusAccountingPending, reports.reports["r1"].Status)
}

func TestLastExpenseDecisionCompletesReport(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.ApproveExpense(context.Background(), "e1", claims("acc1", models.RoleAccounting))
	require.NoError(t, err)

	result, err := svc.RejectExpense(context.Background(), "e2", dto.RejectExpenseRequest{RejectionReason: "no receipt"}, claims("acc1", models.RoleAccounting))
	require.NoError(t, err)
	assert.True(t, result.ReportStatusChanged)
	assert.Equal(t, workflow.StatusTreasuryPending, result.ReportStatus)
	assert.Equal(t, workflow.StatusTreasuryPending, reports.reports["r1"].Status)
}

func TestAllExpensesRejectedRejectsReport(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.RejectExpense(context.Background(), "e1", dto.RejectExpenseRequest{RejectionReason: "personal expense"}, claims("acc1", models.RoleAccounting))
	require.NoError(t, err)

	result, err := svc.RejectExpense(context.Background(), "e2", dto.RejectExpenseRequest{RejectionReason: "duplicate"}, claims("acc1", models.RoleAccounting))
	require.NoError(t, err)
	assert.True(t, result.ReportStatusChanged)
	assert.Equal(t, workflow.StatusRejected, result.ReportStatus)
	assert.Equal(t, workflow.StatusRejected, reports.reports["r1"].Status)
}

func TestRejectExpenseRequiresReason(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.RejectExpense(context.Background(), "e1", dto.RejectExpenseRequest{RejectionReason: "   "}, claims("acc1", models.RoleAccounting))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRejectExpenseReasonTooLong(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)
	long := strings.Repeat("x", workflow.MaxRejectionReasonLength+1)

	_, err := svc.RejectExpense(context.Background(), "e1", dto.RejectExpenseRequest{RejectionReason: long}, claims("acc1", models.RoleAccounting))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSupervisorRejectReasonTooLong(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)
	long := strings.Repeat("x", workflow.MaxRejectionReasonLength+1)

	_, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{
		Action:            workflow.ActionReject,
		ExpenseRejections: []models.ExpenseRejection{{ExpenseID: "e1", RejectionReason: long}},
	}, claims("sup1", models.RoleSupervisor))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, workflow.StatusSupervisorPending, reports.reports["r1"].Status)
}

func TestDecideExpenseTwiceConflicts(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.ApproveExpense(context.Background(), "e1", claims("acc1", models.RoleAccounting))
	require.NoError(t, err)

	_, err = svc.ApproveExpense(context.Background(), "e1", claims("acc1", models.RoleAccounting))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestResumeReopensRejectedReport(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusRejected, models.ReportTypePrepayment)

	result, err := svc.Resume(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, result.Status)
	assert.Equal(t, workflow.StatusPending, reports.reports["r1"].Status)
}

func TestResumeCompletesStalledAccountingReview(t *testing.T) {
	svc, reports, expenses, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)
	expenses.expenses["e1"].Status = workflow.ExpenseApproved
	expenses.expenses["e2"].Status = workflow.ExpenseRejected

	result, err := svc.Resume(context.Background(), "r1", claims("acc1", models.RoleAccounting))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusTreasuryPending, result.Status)
	assert.Equal(t, workflow.StatusTreasuryPending, reports.reports["r1"].Status)
}

func TestResumeAccountingRequiresResolvedExpenses(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusAccountingPending, models.ReportTypePrepayment)

	_, err := svc.Resume(context.Background(), "r1", claims("acc1", models.RoleAccounting))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestResumeOnlyFromRejectedOrAccounting(t *testing.T) {
	svc, _, _, _ := approvalFixture(workflow.StatusApproved, models.ReportTypePrepayment)

	_, err := svc.Resume(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReconcileBranches(t *testing.T) {
	cases := []struct {
		name     string
		approved []string
		want     workflow.ReportStatus
	}{
		{"equal spend settles", []string{"e1", "e2"}, workflow.StatusApprovedExpenses},
		{"lower spend queues funds return", []string{"e1"}, workflow.StatusFundsReturnPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, reports, expenses, _ := approvalFixture(workflow.StatusApproved, models.ReportTypePrepayment)
			for _, id := range tc.approved {
				expenses.expenses[id].Status = workflow.ExpenseApproved
			}

			result, err := svc.Reconcile(context.Background(), "r1", claims("emp1", models.RoleEmployee))
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Status)
			assert.Equal(t, tc.want, reports.reports["r1"].Status)
		})
	}
}

func TestReconcileOverspendQueuesReview(t *testing.T) {
	svc, reports, expenses, _ := approvalFixture(workflow.StatusApproved, models.ReportTypePrepayment)
	expenses.expenses["e1"].Status = workflow.ExpenseApproved
	expenses.expenses["e1"].Amount = decimal.NewFromInt(150)

	result, err := svc.Reconcile(context.Background(), "r1", claims("emp1", models.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReviewReturn, result.Status)
	assert.Equal(t, workflow.StatusReviewReturn, reports.reports["r1"].Status)
}

func TestConcurrentTransitionSurfacesConflict(t *testing.T) {
	svc, reports, _, _ := approvalFixture(workflow.StatusSupervisorPending, models.ReportTypePrepayment)
	reports.statusErr = sql.ErrNoRows

	_, err := svc.ReviewReport(context.Background(), "r1", dto.ReviewReportRequest{Action: workflow.ActionApprove}, claims("sup1", models.RoleSupervisor))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}
