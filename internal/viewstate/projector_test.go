package viewstate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

func day(offset int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func testReport(status workflow.ReportStatus) models.Report {
	return models.Report{ID: "r1", EmployeeID: "emp1", ReportType: models.ReportTypePrepayment, Status: status}
}

func testExpenses() []models.Expense {
	return []models.Expense{
		{ID: "e1", ReportID: "r1", CategoryName: "Meals", ExpenseDate: day(0), Status: workflow.ExpensePending},
		{ID: "e2", ReportID: "r1", CategoryName: "Hotel", ExpenseDate: day(2), Status: workflow.ExpensePending},
		{ID: "e3", ReportID: "r1", CategoryName: "Taxi", ExpenseDate: day(2), Status: workflow.ExpensePending},
	}
}

func TestNewOrdersExpensesForDisplay(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)
	got := p.Expenses()
	require.Len(t, got, 3)
	// Date descending first, category ascending for the tie.
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e3", got[1].ID)
	assert.Equal(t, "e1", got[2].ID)
}

func TestNewExpandsRowsWithPersistedReasons(t *testing.T) {
	expenses := testExpenses()
	reason := "missing receipt"
	expenses[0].RejectionReason = &reason
	expenses[0].Status = workflow.ExpenseRejected

	p := New(testReport(workflow.StatusPending), expenses, workflow.RoleOther, workflow.LangEN)
	assert.True(t, p.Expanded("e1"))
	assert.False(t, p.Expanded("e2"))
}

func TestToggleExpanded(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)
	assert.False(t, p.Expanded("e1"))
	p.ToggleExpanded("e1")
	assert.True(t, p.Expanded("e1"))
	p.ToggleExpanded("e1")
	assert.False(t, p.Expanded("e1"))
}

func TestDraftsAreTruncatedAtInput(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	long := strings.Repeat("x", workflow.MaxRejectionReasonLength+50)
	p.SetReportDraft("e1", long)
	assert.Len(t, []rune(p.ReportDraft("e1")), workflow.MaxRejectionReasonLength)

	p.SetAccountingDraft("e1", long)
	assert.Len(t, []rune(p.AccountingDraft("e1")), workflow.MaxRejectionReasonLength)
}

func TestReportAndAccountingDraftsAreIndependent(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	p.SetReportDraft("e1", "supervisor note")
	p.SetAccountingDraft("e1", "accounting note")
	assert.Equal(t, "supervisor note", p.ReportDraft("e1"))
	assert.Equal(t, "accounting note", p.AccountingDraft("e1"))
}

func TestBeginApproveReportBlockedByDraftRejection(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	p.SetReportDraft("e2", "amount looks wrong")

	err := p.BeginApproveReport()
	require.ErrorIs(t, err, ErrBlockingRejection)
	assert.False(t, p.Submitting())
	assert.NotEmpty(t, p.Alert())
}

func TestBeginApproveReportWhitespaceDraftDoesNotBlock(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	p.SetReportDraft("e2", "   ")

	require.NoError(t, p.BeginApproveReport())
	assert.True(t, p.Submitting())
	assert.Empty(t, p.Alert())
}

func TestBeginRejectReportRequiresReason(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	_, err := p.BeginRejectReport()
	require.ErrorIs(t, err, ErrNoRejections)
	assert.False(t, p.Submitting())
	assert.NotEmpty(t, p.Alert())
}

func TestBeginRejectReportCollectsPayloadInDisplayOrder(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	p.SetReportDraft("e1", "  no receipt  ")
	p.SetReportDraft("e3", "wrong category")
	p.SetReportDraft("e2", "   ")

	rejections, err := p.BeginRejectReport()
	require.NoError(t, err)
	require.Len(t, rejections, 2)
	assert.Equal(t, "e3", rejections[0].ExpenseID)
	assert.Equal(t, "wrong category", rejections[0].RejectionReason)
	assert.Equal(t, "e1", rejections[1].ExpenseID)
	assert.Equal(t, "no receipt", rejections[1].RejectionReason)
	assert.True(t, p.Submitting())
}

func TestBeginRejectExpenseWithoutReasonExpandsRow(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)

	err := p.BeginRejectExpense("e1")
	require.ErrorIs(t, err, ErrReasonRequired)
	assert.True(t, p.Expanded("e1"))
	assert.NotEmpty(t, p.RowError("e1"))
	assert.False(t, p.Submitting())
}

func TestBeginExpenseDecisionGuards(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)

	assert.ErrorIs(t, p.BeginApproveExpense("nope"), ErrUnknownExpense)

	require.NoError(t, p.BeginApproveExpense("e1"))
	assert.ErrorIs(t, p.BeginApproveExpense("e2"), ErrSubmissionInFlight)

	p.ApplyExpenseDecision(Decision{ExpenseID: "e1", Status: workflow.ExpenseApproved})
	assert.ErrorIs(t, p.BeginApproveExpense("e1"), ErrExpenseResolved)
}

func TestBeginExpenseDecisionWrongStage(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	assert.ErrorIs(t, p.BeginApproveExpense("e1"), ErrNotReviewable)
}

func TestApplyExpenseDecisionPatchesAfterSuccessOnly(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)
	p.SetAccountingDraft("e1", "over budget")
	require.NoError(t, p.BeginRejectExpense("e1"))
	assert.Equal(t, "over budget", p.PendingReason())

	// Row is untouched while the request is in flight.
	for _, exp := range p.Expenses() {
		if exp.ID == "e1" {
			assert.Equal(t, workflow.ExpensePending, exp.Status)
		}
	}

	p.ApplyExpenseDecision(Decision{ExpenseID: "e1", Status: workflow.ExpenseRejected, RejectionReason: "over budget"})
	for _, exp := range p.Expenses() {
		if exp.ID == "e1" {
			assert.Equal(t, workflow.ExpenseRejected, exp.Status)
			require.NotNil(t, exp.RejectionReason)
			assert.Equal(t, "over budget", *exp.RejectionReason)
		}
	}
	assert.False(t, p.Submitting())
	assert.Empty(t, p.AccountingDraft("e1"))
	assert.False(t, p.Done())
}

func TestFailSubmissionDiscardsPendingWithoutPatching(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)
	require.NoError(t, p.BeginApproveExpense("e1"))

	p.FailSubmission("expense already decided")
	assert.False(t, p.Submitting())
	assert.Equal(t, "expense already decided", p.Alert())
	assert.Empty(t, p.PendingReason())
	for _, exp := range p.Expenses() {
		assert.Equal(t, workflow.ExpensePending, exp.Status, exp.ID)
	}
	// The view can retry immediately.
	require.NoError(t, p.BeginApproveExpense("e1"))
}

func TestCompletionFlagClosesView(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)

	for _, id := range []string{"e1", "e2"} {
		require.NoError(t, p.BeginApproveExpense(id))
		p.ApplyExpenseDecision(Decision{ExpenseID: id, Status: workflow.ExpenseApproved})
		assert.False(t, p.Done())
	}

	require.NoError(t, p.BeginApproveExpense("e3"))
	p.ApplyExpenseDecision(Decision{
		ExpenseID:           "e3",
		Status:              workflow.ExpenseApproved,
		ReportStatusChanged: true,
		ReportStatus:        workflow.StatusTreasuryPending,
	})
	assert.True(t, p.Done())
	assert.Equal(t, workflow.StatusTreasuryPending, p.Report().Status)
}

func TestCompleteReportDecision(t *testing.T) {
	p := New(testReport(workflow.StatusSupervisorPending), testExpenses(), workflow.RoleSupervisor, workflow.LangEN)
	require.NoError(t, p.BeginApproveReport())

	p.CompleteReportDecision(workflow.StatusAccountingPending)
	assert.True(t, p.Done())
	assert.False(t, p.Submitting())
	assert.Equal(t, workflow.StatusAccountingPending, p.Report().Status)
}

func TestCanResumeOnlyWhenAllResolvedWithoutCompletionSignal(t *testing.T) {
	p := New(testReport(workflow.StatusAccountingPending), testExpenses(), workflow.RoleAccounting, workflow.LangEN)
	assert.False(t, p.CanResume())

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, p.BeginApproveExpense(id))
		p.ApplyExpenseDecision(Decision{ExpenseID: id, Status: workflow.ExpenseApproved})
	}
	assert.True(t, p.AllResolved())
	assert.True(t, p.AnyApproved())
	assert.True(t, p.CanResume())

	p.CompleteReportDecision(workflow.StatusTreasuryPending)
	assert.False(t, p.CanResume())
}

func TestStatusLabelFallsBackVerbatim(t *testing.T) {
	report := testReport(workflow.ReportStatus("LEGACY_STATE"))
	p := New(report, nil, workflow.RoleOther, workflow.LangES)
	assert.Equal(t, "LEGACY_STATE", p.StatusLabel())
}
