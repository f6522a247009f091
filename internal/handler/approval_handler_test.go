package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/middleware"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/service"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

type reportStoreStub struct {
	report *models.Report
}

func (s *reportStoreStub) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if s.report == nil || s.report.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *s.report
	return &copy, nil
}

func (s *reportStoreStub) UpdateStatus(ctx context.Context, id string, from, to workflow.ReportStatus) error {
	if s.report == nil || s.report.Status != from {
		return sql.ErrNoRows
	}
	s.report.Status = to
	return nil
}

func (s *reportStoreStub) UpdateTotals(ctx context.Context, id string, total decimal.Decimal) error {
	s.report.TotalExpenses = total
	return nil
}

type expenseStoreStub struct {
	expenses []models.Expense
}

func (s *expenseStoreStub) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			copy := s.expenses[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *expenseStoreStub) ListByReport(ctx context.Context, reportID string) ([]models.Expense, error) {
	return s.expenses, nil
}

func (s *expenseStoreStub) UpdateStatus(ctx context.Context, id string, status workflow.ExpenseStatus, rejectionReason *string) error {
	for i := range s.expenses {
		if s.expenses[i].ID == id && s.expenses[i].Status == workflow.ExpensePending {
			s.expenses[i].Status = status
			s.expenses[i].RejectionReason = rejectionReason
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *expenseStoreStub) ResetStatuses(ctx context.Context, reportID string) error {
	for i := range s.expenses {
		s.expenses[i].Status = workflow.ExpensePending
		s.expenses[i].RejectionReason = nil
	}
	return nil
}

func (s *expenseStoreStub) CountPending(ctx context.Context, reportID string) (int, error) {
	count := 0
	for i := range s.expenses {
		if s.expenses[i].Status == workflow.ExpensePending {
			count++
		}
	}
	return count, nil
}

func (s *expenseStoreStub) CountByStatus(ctx context.Context, reportID string, status workflow.ExpenseStatus) (int, error) {
	count := 0
	for i := range s.expenses {
		if s.expenses[i].Status == status {
			count++
		}
	}
	return count, nil
}

type auditStub struct{}

func (auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error { return nil }

func approvalTestContext(t *testing.T, method, path string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func newApprovalHandlerFixture(status workflow.ReportStatus) (*ApprovalHandler, *reportStoreStub, *expenseStoreStub) {
	reports := &reportStoreStub{report: &models.Report{
		ID:            "rep-1",
		EmployeeID:    "emp-1",
		ReportType:    models.ReportTypePrepayment,
		Status:        status,
		PrepaidAmount: decimal.NewFromInt(200),
	}}
	expenses := &expenseStoreStub{expenses: []models.Expense{
		{ID: "exp-1", ReportID: "rep-1", Amount: decimal.NewFromInt(200), Status: workflow.ExpensePending},
	}}
	svc := service.NewApprovalService(reports, expenses, auditStub{}, nil, nil)
	return NewApprovalHandler(svc), reports, expenses
}

func TestApprovalHandlerSubmit(t *testing.T) {
	handler, reports, _ := newApprovalHandlerFixture(workflow.StatusPending)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/submit", nil,
		&models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.StatusSupervisorPending, reports.report.Status)
}

func TestApprovalHandlerSubmitForeignReport(t *testing.T) {
	handler, _, _ := newApprovalHandlerFixture(workflow.StatusPending)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/submit", nil,
		&models.JWTClaims{UserID: "someone-else", Role: models.RoleEmployee})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Submit(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalHandlerReviewApprove(t *testing.T) {
	handler, reports, _ := newApprovalHandlerFixture(workflow.StatusSupervisorPending)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/approve",
		dto.ReviewReportRequest{Action: workflow.ActionApprove},
		&models.JWTClaims{UserID: "sup-1", Role: models.RoleSupervisor})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.StatusAccountingPending, reports.report.Status)
}

func TestApprovalHandlerReviewInvalidBody(t *testing.T) {
	handler, _, _ := newApprovalHandlerFixture(workflow.StatusSupervisorPending)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/approve", nil,
		&models.JWTClaims{UserID: "sup-1", Role: models.RoleSupervisor})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Review(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalHandlerRejectExpenseClosesReport(t *testing.T) {
	handler, reports, expenses := newApprovalHandlerFixture(workflow.StatusAccountingPending)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/expenses/exp-1/reject",
		dto.RejectExpenseRequest{RejectionReason: "no receipt"},
		&models.JWTClaims{UserID: "acc-1", Role: models.RoleAccounting})
	c.Params = gin.Params{{Key: "id", Value: "exp-1"}}

	handler.RejectExpense(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.ExpenseDecisionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.ReportStatusChanged)
	assert.Equal(t, workflow.StatusRejected, envelope.Data.ReportStatus)
	assert.Equal(t, workflow.StatusRejected, reports.report.Status)
	assert.Equal(t, workflow.ExpenseRejected, expenses.expenses[0].Status)
}

func TestApprovalHandlerApproveExpenseConflict(t *testing.T) {
	handler, _, expenses := newApprovalHandlerFixture(workflow.StatusAccountingPending)
	expenses.expenses[0].Status = workflow.ExpenseApproved
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/expenses/exp-1/approve", nil,
		&models.JWTClaims{UserID: "acc-1", Role: models.RoleAccounting})
	c.Params = gin.Params{{Key: "id", Value: "exp-1"}}

	handler.ApproveExpense(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApprovalHandlerResume(t *testing.T) {
	handler, reports, _ := newApprovalHandlerFixture(workflow.StatusRejected)
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/resume", nil,
		&models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Resume(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.StatusPending, reports.report.Status)
}

func TestApprovalHandlerReconcile(t *testing.T) {
	handler, reports, expenses := newApprovalHandlerFixture(workflow.StatusApproved)
	expenses.expenses[0].Status = workflow.ExpenseApproved
	c, w := approvalTestContext(t, http.MethodPost, "/approvals/reports/rep-1/reconcile", nil,
		&models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee})
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}

	handler.Reconcile(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.StatusApprovedExpenses, reports.report.Status)
}
