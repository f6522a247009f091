package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

const expenseColumns = `id, report_id, category_name, purpose, amount, currency_code, expense_date,
       status, rejection_reason, created_at, updated_at`

// ExpenseRepository persists report line items.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs the repository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts a new expense row.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.Status == "" {
		expense.Status = workflow.ExpensePending
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	const query = `INSERT INTO expenses
	(id, report_id, category_name, purpose, amount, currency_code, expense_date, status, rejection_reason, created_at, updated_at)
	VALUES (:id, :report_id, :category_name, :purpose, :amount, :currency_code, :expense_date, :status, :rejection_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetByID fetches an expense by identifier.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE id = $1`, expenseColumns)
	var expense models.Expense
	if err := r.db.GetContext(ctx, &expense, query, id); err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListByReport returns every expense of a report in display order:
// date descending, category ascending.
func (r *ExpenseRepository) ListByReport(ctx context.Context, reportID string) ([]models.Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE report_id = $1 ORDER BY expense_date DESC, category_name ASC`, expenseColumns)
	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query, reportID); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Update persists mutable line item fields.
func (r *ExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().UTC()
	const query = `UPDATE expenses SET category_name = :category_name, purpose = :purpose, amount = :amount,
	currency_code = :currency_code, expense_date = :expense_date, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, expense)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRowsAffected(result, "update expense")
}

// UpdateStatus records a review decision on a single expense. Only PENDING
// expenses may be decided; approved decisions clear any stale reason.
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id string, status workflow.ExpenseStatus, rejectionReason *string) error {
	query := fmt.Sprintf(`UPDATE expenses SET status = $2, rejection_reason = $3, updated_at = $4
	WHERE id = $1 AND status = '%s'`, workflow.ExpensePending)
	result, err := r.db.ExecContext(ctx, query, id, status, rejectionReason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update expense status: %w", err)
	}
	return requireRowsAffected(result, "update expense status")
}

// ResetStatuses returns every expense of a report to PENDING and clears
// rejection reasons, ahead of a fresh review round.
func (r *ExpenseRepository) ResetStatuses(ctx context.Context, reportID string) error {
	const query = `UPDATE expenses SET status = $2, rejection_reason = NULL, updated_at = $3 WHERE report_id = $1`
	if _, err := r.db.ExecContext(ctx, query, reportID, workflow.ExpensePending, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset expense statuses: %w", err)
	}
	return nil
}

// Delete removes an expense row.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM expenses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRowsAffected(result, "delete expense")
}

// CountPending returns how many expenses of the report are still PENDING.
func (r *ExpenseRepository) CountPending(ctx context.Context, reportID string) (int, error) {
	const query = `SELECT COUNT(*) FROM expenses WHERE report_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, reportID, workflow.ExpensePending); err != nil {
		return 0, fmt.Errorf("count pending expenses: %w", err)
	}
	return count, nil
}

// CountByStatus returns how many expenses of the report carry the status.
func (r *ExpenseRepository) CountByStatus(ctx context.Context, reportID string, status workflow.ExpenseStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM expenses WHERE report_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, reportID, status); err != nil {
		return 0, fmt.Errorf("count expenses by status: %w", err)
	}
	return count, nil
}
