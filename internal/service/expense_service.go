package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type expenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id string) (*models.Expense, error)
	ListByReport(ctx context.Context, reportID string) ([]models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id string) error
}

type expenseReportStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
}

// ExpenseService manages line items of a draft report. Review decisions on
// expenses belong to ApprovalService.
type ExpenseService struct {
	repo      expenseStore
	reports   expenseReportStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewExpenseService constructs the service.
func NewExpenseService(repo expenseStore, reports expenseReportStore, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ExpenseService{repo: repo, reports: reports, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ListByReport returns the report's expenses in display order, serving from
// cache when possible.
func (s *ExpenseService) ListByReport(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.Expense, error) {
	if _, err := s.visibleReport(ctx, reportID, actor); err != nil {
		return nil, err
	}

	key := expenseCacheKey(reportID)
	var cached []models.Expense
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	expenses, err := s.repo.ListByReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, expenses, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache expense list", zap.String("report_id", reportID), zap.Error(err))
		}
	}
	return expenses, nil
}

// Get loads one expense, enforcing the owning report's visibility.
func (s *ExpenseService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Expense, error) {
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleReport(ctx, expense.ReportID, actor); err != nil {
		return nil, err
	}
	return expense, nil
}

// Create adds a line item to a draft owned by the actor.
func (s *ExpenseService) Create(ctx context.Context, req dto.CreateExpenseRequest, actor *models.JWTClaims) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create expense payload")
	}
	report, err := s.editableReport(ctx, req.ReportID, actor)
	if err != nil {
		return nil, err
	}
	expenseDate, err := parseExpenseDate(req.ExpenseDate)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ReportID:     report.ID,
		CategoryName: req.CategoryName,
		Purpose:      req.Purpose,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		ExpenseDate:  expenseDate,
		Status:       workflow.ExpensePending,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expense")
	}

	s.invalidate(ctx, report.ID)
	return expense, nil
}

// Update edits a line item while the owning report is still a draft.
func (s *ExpenseService) Update(ctx context.Context, id string, req dto.UpdateExpenseRequest, actor *models.JWTClaims) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update expense payload")
	}
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return nil, err
	}
	expenseDate, err := parseExpenseDate(req.ExpenseDate)
	if err != nil {
		return nil, err
	}

	expense.CategoryName = req.CategoryName
	expense.Purpose = req.Purpose
	expense.Amount = req.Amount
	expense.CurrencyCode = req.CurrencyCode
	expense.ExpenseDate = expenseDate

	if err := s.repo.Update(ctx, expense); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update expense")
	}

	s.invalidate(ctx, expense.ReportID)
	return expense, nil
}

// Delete removes a line item while the owning report is still a draft.
func (s *ExpenseService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expense")
	}

	s.invalidate(ctx, expense.ReportID)
	return nil
}

func (s *ExpenseService) loadExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expense")
	}
	return expense, nil
}

func (s *ExpenseService) visibleReport(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if actor.Role == models.RoleEmployee && report.EmployeeID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another employee")
	}
	return report, nil
}

func (s *ExpenseService) editableReport(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.visibleReport(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(report, actor); err != nil {
		return nil, err
	}
	if report.Status != workflow.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrReportLocked, "expenses are only editable while the report is pending")
	}
	return report, nil
}

func (s *ExpenseService) invalidate(ctx context.Context, reportID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, expenseCacheKey(reportID)); err != nil {
		s.logger.Warn("failed to invalidate expense cache", zap.String("report_id", reportID), zap.Error(err))
	}
}

func expenseCacheKey(reportID string) string {
	return fmt.Sprintf("expenses:report:%s", reportID)
}

func parseExpenseDate(raw string) (time.Time, error) {
	expenseDate, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "expense_date must be YYYY-MM-DD")
	}
	return expenseDate, nil
}
