package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

const reportColumns = `id, employee_id, report_type, status, reason, destination_country, currency_code,
       prepaid_amount, total_expenses, start_date, end_date, created_at, updated_at`

// ReportRepository persists travel expense reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new draft report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = workflow.StatusPending
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO reports
	(id, employee_id, report_type, status, reason, destination_country, currency_code, prepaid_amount, total_expenses, start_date, end_date, created_at, updated_at)
	VALUES (:id, :employee_id, :report_type, :status, :reason, :destination_country, :currency_code, :prepaid_amount, :total_expenses, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter, newest first, with total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	base := strings.Builder{}
	base.WriteString("FROM reports")
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 3)

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("report_type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		base.WriteString(" WHERE ")
		base.WriteString(strings.Join(conditions, " AND "))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		reportColumns, base.String(), pageSize, offset)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base.String())
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	return reports, total, nil
}

// Update persists mutable draft fields; only PENDING reports are editable.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE reports SET reason = :reason, destination_country = :destination_country,
	currency_code = :currency_code, prepaid_amount = :prepaid_amount, start_date = :start_date,
	end_date = :end_date, updated_at = :updated_at WHERE id = :id AND status = '%s'`, workflow.StatusPending)
	result, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return requireRowsAffected(result, "update report")
}

// UpdateStatus advances a report along the transition graph. The expected
// status guards against concurrent reviewers racing the same transition.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, from, to workflow.ReportStatus) error {
	const query = `UPDATE reports SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return requireRowsAffected(result, "update report status")
}

// UpdateTotals refreshes the aggregated expense total.
func (r *ReportRepository) UpdateTotals(ctx context.Context, id string, total decimal.Decimal) error {
	const query = `UPDATE reports SET total_expenses = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, total, time.Now().UTC()); err != nil {
		return fmt.Errorf("update report totals: %w", err)
	}
	return nil
}

// Delete removes a draft report; reports already in the pipeline stay.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM reports WHERE id = $1 AND status = '%s'`, workflow.StatusPending)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return requireRowsAffected(result, "delete report")
}

func requireRowsAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
