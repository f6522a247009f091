package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/service"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
	"github.com/viaticos-app/viaticos-api/pkg/response"
)

// ApprovalHandler exposes the pipeline transition endpoints.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Submit godoc
// @Summary Submit report
// @Description Submit a pending draft into the approval pipeline
// @Tags Approvals
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/reports/{id}/submit [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Review godoc
// @Summary Review report
// @Description Apply a whole-report approve or reject decision; rejections carry per-expense reasons
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ReviewReportRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/reports/{id}/approve [post]
func (h *ApprovalHandler) Review(c *gin.Context) {
	var req dto.ReviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ReviewReport(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Resume godoc
// @Summary Resume report
// @Description Reopen a rejected report as a draft, or re-run a stalled accounting completion
// @Tags Approvals
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/reports/{id}/resume [post]
func (h *ApprovalHandler) Resume(c *gin.Context) {
	result, err := h.service.Resume(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reconcile godoc
// @Summary Reconcile report
// @Description Settle a disbursed prepayment against actual spend
// @Tags Approvals
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/reports/{id}/reconcile [post]
func (h *ApprovalHandler) Reconcile(c *gin.Context) {
	result, err := h.service.Reconcile(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ApproveExpense godoc
// @Summary Approve expense
// @Description Record an accounting approval on one expense
// @Tags Approvals
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/expenses/{id}/approve [post]
func (h *ApprovalHandler) ApproveExpense(c *gin.Context) {
	result, err := h.service.ApproveExpense(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RejectExpense godoc
// @Summary Reject expense
// @Description Record an accounting rejection with a mandatory reason
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param payload body dto.RejectExpenseRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/expenses/{id}/reject [post]
func (h *ApprovalHandler) RejectExpense(c *gin.Context) {
	var req dto.RejectExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.RejectExpense(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
