package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/service"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
	"github.com/viaticos-app/viaticos-api/pkg/response"
)

// ReportHandler exposes report CRUD and export endpoints.
type ReportHandler struct {
	service *service.ReportService
	exports *service.ExportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List reports
// @Description List reports visible to the caller with pagination and filtering
// @Tags Reports
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Comma separated status filter"
// @Param type query string false "Report type filter"
// @Param lang query string false "Label language (en or es)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var filter models.ReportFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := workflow.ParseStatus(part)
			if !ok {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status filter "+part))
				return
			}
			filter.Status = append(filter.Status, status)
		}
	}
	if reportType := c.Query("type"); reportType != "" {
		filter.Type = models.ReportType(strings.ToUpper(reportType))
	}

	reports, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	lang := languageFromQuery(c)
	views := make([]dto.ReportView, 0, len(reports))
	for _, report := range reports {
		views = append(views, dto.NewReportView(report, lang))
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// Get godoc
// @Summary Get report
// @Description Get a report with its localized status label and viewer affordances
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Param lang query string false "Label language (en or es)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewReportView(*report, languageFromQuery(c)), nil)
}

// Create godoc
// @Summary Create report
// @Description Open a new draft report owned by the caller
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Create report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Update report
// @Description Edit a pending draft report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete report
// @Description Delete a pending draft report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export report
// @Description Download a report with its expenses as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Report ID"
// @Param format query string false "Export format (csv or pdf)"
// @Param lang query string false "Label language (en or es)"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.Render(c.Request.Context(), c.Param("id"), format, languageFromQuery(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func languageFromQuery(c *gin.Context) workflow.Language {
	if strings.EqualFold(c.Query("lang"), string(workflow.LangES)) {
		return workflow.LangES
	}
	return workflow.LangEN
}
