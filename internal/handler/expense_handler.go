package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/service"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
	"github.com/viaticos-app/viaticos-api/pkg/response"
)

// ExpenseHandler exposes expense line item endpoints.
type ExpenseHandler struct {
	service *service.ExpenseService
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: svc}
}

// List godoc
// @Summary List expenses
// @Description List a report's expenses in display order (date desc, category asc)
// @Tags Expenses
// @Produce json
// @Param report_id query string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	reportID := c.Query("report_id")
	if reportID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "report_id is required"))
		return
	}
	expenses, err := h.service.ListByReport(c.Request.Context(), reportID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expenses, nil)
}

// Get godoc
// @Summary Get expense
// @Description Get a single expense line item
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	expense, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// Create godoc
// @Summary Create expense
// @Description Add a line item to a pending draft report
// @Tags Expenses
// @Accept json
// @Produce json
// @Param payload body dto.CreateExpenseRequest true "Create expense payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	expense, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expense)
}

// Update godoc
// @Summary Update expense
// @Description Edit a line item while the owning report is pending
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param payload body dto.UpdateExpenseRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	expense, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// Delete godoc
// @Summary Delete expense
// @Description Remove a line item while the owning report is pending
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
