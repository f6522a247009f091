package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id string) error
}

// ReportService manages report drafts and listings. Pipeline transitions live
// in ApprovalService; this service only ever touches PENDING drafts.
type ReportService struct {
	repo      reportStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(repo reportStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create opens a new draft owned by the actor.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create report payload")
	}
	startDate, endDate, err := parseTripDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		EmployeeID:         actor.UserID,
		ReportType:         req.ReportType,
		Status:             workflow.StatusPending,
		Reason:             req.Reason,
		DestinationCountry: req.DestinationCountry,
		CurrencyCode:       req.CurrencyCode,
		PrepaidAmount:      req.PrepaidAmount,
		StartDate:          startDate,
		EndDate:            endDate,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.recordAudit(ctx, actor, models.AuditActionReportCreate, report.ID, nil, report)
	return report, nil
}

// Get loads a report enforcing visibility: employees see their own reports,
// reviewers and admins see everything.
func (s *ReportService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.repo.GetByID(ctx, id)
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

// List returns reports visible to the actor. Employees are pinned to their
// own reports; reviewers default to the stages awaiting their decision unless
// an explicit status filter is present.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter, actor *models.JWTClaims) ([]models.Report, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleEmployee:
		filter.EmployeeID = actor.UserID
	case models.RoleSupervisor:
		if len(filter.Status) == 0 {
			filter.Status = []workflow.ReportStatus{workflow.StatusSupervisorPending}
		}
	case models.RoleAccounting:
		if len(filter.Status) == 0 {
			filter.Status = []workflow.ReportStatus{workflow.StatusAccountingPending}
		}
	case models.RoleTreasury:
		if len(filter.Status) == 0 {
			filter.Status = []workflow.ReportStatus{
				workflow.StatusTreasuryPending,
				workflow.StatusApprovedForReimburse,
				workflow.StatusFundsReturnPending,
				workflow.StatusReviewReturn,
			}
		}
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return reports, pagination, nil
}

// Update edits a draft. Only the owner may edit, and only while PENDING.
func (s *ReportService) Update(ctx context.Context, id string, req dto.UpdateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update report payload")
	}
	report, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(report, actor); err != nil {
		return nil, err
	}
	startDate, endDate, err := parseTripDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	before, _ := json.Marshal(report)

	report.Reason = req.Reason
	report.DestinationCountry = req.DestinationCountry
	report.CurrencyCode = req.CurrencyCode
	report.PrepaidAmount = req.PrepaidAmount
	report.StartDate = startDate
	report.EndDate = endDate

	if err := s.repo.Update(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReportLocked, "report is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}

	s.recordAuditRaw(ctx, actor, models.AuditActionReportUpdate, report.ID, before, report)
	return report, nil
}

// Delete removes a draft. Only the owner may delete, and only while PENDING.
func (s *ReportService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	report, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := requireOwner(report, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrReportLocked, "report is no longer editable")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}

	s.recordAudit(ctx, actor, models.AuditActionReportDelete, id, report, nil)
	return nil
}

func (s *ReportService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, oldValue, newValue interface{}) {
	var before []byte
	if oldValue != nil {
		before, _ = json.Marshal(oldValue)
	}
	s.recordAuditRaw(ctx, actor, action, resourceID, before, newValue)
}

func (s *ReportService) recordAuditRaw(ctx context.Context, actor *models.JWTClaims, action, resourceID string, before []byte, newValue interface{}) {
	if s.audit == nil || actor == nil {
		return
	}
	var after []byte
	if newValue != nil {
		after, _ = json.Marshal(newValue)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "reports",
		ResourceID: &resourceID,
		OldValues:  before,
		NewValues:  after,
		IPAddress:  "system",
		UserAgent:  "report-service",
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func parseTripDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	return startDate, endDate, nil
}
