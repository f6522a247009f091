package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type mockReportRepo struct {
	reports    map[string]*models.Report
	lastFilter models.ReportFilter
	updateErr  error
	deleteErr  error
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	report.ID = "rep-new"
	if m.reports == nil {
		m.reports = map[string]*models.Report{}
	}
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if report, ok := m.reports[id]; ok {
		copy := *report
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportRepo) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	m.lastFilter = filter
	var result []models.Report
	for _, report := range m.reports {
		result = append(result, *report)
	}
	return result, len(result), nil
}

func (m *mockReportRepo) Update(ctx context.Context, report *models.Report) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.reports, id)
	return nil
}

func validCreateReportRequest() dto.CreateReportRequest {
	return dto.CreateReportRequest{
		ReportType:         models.ReportTypePrepayment,
		Reason:             "quarterly planning offsite",
		DestinationCountry: "MX",
		CurrencyCode:       "USD",
		PrepaidAmount:      decimal.NewFromInt(400),
		StartDate:          "2026-04-01",
		EndDate:            "2026-04-05",
	}
}

func TestReportServiceCreate(t *testing.T) {
	repo := &mockReportRepo{}
	svc := NewReportService(repo, nil, nil, nil)

	report, err := svc.Create(context.Background(), validCreateReportRequest(), claims("emp-1", models.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, "emp-1", report.EmployeeID)
	assert.Equal(t, workflow.StatusPending, report.Status)
	assert.Equal(t, "2026-04-01", report.StartDate.Format("2006-01-02"))
}

func TestReportServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, nil, nil, nil)
	req := validCreateReportRequest()
	req.StartDate = "2026-04-05"
	req.EndDate = "2026-04-01"

	_, err := svc.Create(context.Background(), req, claims("emp-1", models.RoleEmployee))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceGetVisibility(t *testing.T) {
	repo := &mockReportRepo{reports: map[string]*models.Report{
		"rep-1": {ID: "rep-1", EmployeeID: "emp-1", Status: workflow.StatusPending},
	}}
	svc := NewReportService(repo, nil, nil, nil)

	_, err := svc.Get(context.Background(), "rep-1", claims("emp-1", models.RoleEmployee))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "rep-1", claims("emp-2", models.RoleEmployee))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Reviewers see reports they do not own.
	_, err = svc.Get(context.Background(), "rep-1", claims("sup-1", models.RoleSupervisor))
	require.NoError(t, err)
}

func TestReportServiceListPinsEmployees(t *testing.T) {
	repo := &mockReportRepo{reports: map[string]*models.Report{}}
	svc := NewReportService(repo, nil, nil, nil)

	_, _, err := svc.List(context.Background(), models.ReportFilter{}, claims("emp-1", models.RoleEmployee))
	require.NoError(t, err)
	assert.Equal(t, "emp-1", repo.lastFilter.EmployeeID)
}

func TestReportServiceListDefaultsReviewerStages(t *testing.T) {
	repo := &mockReportRepo{reports: map[string]*models.Report{}}
	svc := NewReportService(repo, nil, nil, nil)

	_, _, err := svc.List(context.Background(), models.ReportFilter{}, claims("sup-1", models.RoleSupervisor))
	require.NoError(t, err)
	assert.Equal(t, []workflow.ReportStatus{workflow.StatusSupervisorPending}, repo.lastFilter.Status)

	_, _, err = svc.List(context.Background(), models.ReportFilter{}, claims("t-1", models.RoleTreasury))
	require.NoError(t, err)
	assert.Len(t, repo.lastFilter.Status, 4)

	// An explicit filter wins over the default.
	_, _, err = svc.List(context.Background(), models.ReportFilter{
		Status: []workflow.ReportStatus{workflow.StatusRejected},
	}, claims("sup-1", models.RoleSupervisor))
	require.NoError(t, err)
	assert.Equal(t, []workflow.ReportStatus{workflow.StatusRejected}, repo.lastFilter.Status)
}

func TestReportServiceUpdateLockedReport(t *testing.T) {
	repo := &mockReportRepo{
		reports: map[string]*models.Report{
			"rep-1": {ID: "rep-1", EmployeeID: "emp-1", Status: workflow.StatusSupervisorPending},
		},
		updateErr: sql.ErrNoRows,
	}
	svc := NewReportService(repo, nil, nil, nil)

	req := dto.UpdateReportRequest{
		Reason:             "extended trip",
		DestinationCountry: "MX",
		CurrencyCode:       "USD",
		StartDate:          "2026-04-01",
		EndDate:            "2026-04-07",
	}
	_, err := svc.Update(context.Background(), "rep-1", req, claims("emp-1", models.RoleEmployee))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReportLocked.Code, appErrors.FromError(err).Code)
}

func TestReportServiceDelete(t *testing.T) {
	repo := &mockReportRepo{reports: map[string]*models.Report{
		"rep-1": {ID: "rep-1", EmployeeID: "emp-1", Status: workflow.StatusPending},
	}}
	svc := NewReportService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "rep-1", claims("emp-1", models.RoleEmployee)))
	_, ok := repo.reports["rep-1"]
	assert.False(t, ok)
}
