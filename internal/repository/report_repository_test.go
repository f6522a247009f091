package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reportRows(id string, status workflow.ReportStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "employee_id", "report_type", "status", "reason", "destination_country", "currency_code", "prepaid_amount", "total_expenses", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow(id, "emp-1", "PREPAYMENT", string(status), "conference", "MX", "USD", "500", "0", now, now.AddDate(0, 0, 3), now, now)
}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{
		EmployeeID:         "emp-1",
		ReportType:         models.ReportTypePrepayment,
		Reason:             "conference",
		DestinationCountry: "MX",
		CurrencyCode:       "USD",
		PrepaidAmount:      decimal.NewFromInt(500),
	}
	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)
	require.Equal(t, workflow.StatusPending, report.Status)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id, report_type")).
		WithArgs(report.ID).
		WillReturnRows(reportRows(report.ID, workflow.StatusPending))

	found, err := repo.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, found.ID)
	require.Equal(t, workflow.StatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id, report_type")).
		WithArgs("emp-1", "SUPERVISOR_PENDING").
		WillReturnRows(reportRows("rep-1", workflow.StatusSupervisorPending))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("emp-1", "SUPERVISOR_PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{
		EmployeeID: "emp-1",
		Status:     []workflow.ReportStatus{workflow.StatusSupervisorPending},
		Page:       1,
		PageSize:   20,
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "rep-1", reports[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateOnlyDrafts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	report := &models.Report{ID: "rep-1", Reason: "updated trip", CurrencyCode: "USD"}
	require.NoError(t, repo.Update(context.Background(), report))

	// A report past PENDING matches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), report)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET status")).
		WithArgs("rep-1", "SUPERVISOR_PENDING", "ACCOUNTING_PENDING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "rep-1", workflow.StatusSupervisorPending, workflow.StatusAccountingPending))

	// Another reviewer already moved the report; the guard matches nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET status")).
		WithArgs("rep-1", "SUPERVISOR_PENDING", "ACCOUNTING_PENDING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "rep-1", workflow.StatusSupervisorPending, workflow.StatusAccountingPending)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteOnlyDrafts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports")).
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "rep-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
