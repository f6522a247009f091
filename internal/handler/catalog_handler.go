package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/service"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
	"github.com/viaticos-app/viaticos-api/pkg/response"
)

// CatalogHandler exposes the reference data endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListCountries godoc
// @Summary List countries
// @Tags Catalog
// @Produce json
// @Param active query bool false "Only active entries"
// @Success 200 {object} response.Envelope
// @Router /countries [get]
func (h *CatalogHandler) ListCountries(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "true"))
	countries, err := h.service.ListCountries(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, countries, nil)
}

// UpsertCountry godoc
// @Summary Upsert country
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.UpsertCountryRequest true "Country payload"
// @Success 200 {object} response.Envelope
// @Router /countries [put]
func (h *CatalogHandler) UpsertCountry(c *gin.Context) {
	var req dto.UpsertCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	country, err := h.service.UpsertCountry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, country, nil)
}

// DeactivateCountry godoc
// @Summary Deactivate country
// @Tags Catalog
// @Produce json
// @Param code path string true "Country code"
// @Success 204 {object} response.Envelope
// @Router /countries/{code} [delete]
func (h *CatalogHandler) DeactivateCountry(c *gin.Context) {
	if err := h.service.DeactivateCountry(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCurrencies godoc
// @Summary List currencies
// @Tags Catalog
// @Produce json
// @Param active query bool false "Only active entries"
// @Success 200 {object} response.Envelope
// @Router /currencies [get]
func (h *CatalogHandler) ListCurrencies(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "true"))
	currencies, err := h.service.ListCurrencies(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, currencies, nil)
}

// UpsertCurrency godoc
// @Summary Upsert currency
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.UpsertCurrencyRequest true "Currency payload"
// @Success 200 {object} response.Envelope
// @Router /currencies [put]
func (h *CatalogHandler) UpsertCurrency(c *gin.Context) {
	var req dto.UpsertCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	currency, err := h.service.UpsertCurrency(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, currency, nil)
}

// DeactivateCurrency godoc
// @Summary Deactivate currency
// @Tags Catalog
// @Produce json
// @Param code path string true "Currency code"
// @Success 204 {object} response.Envelope
// @Router /currencies/{code} [delete]
func (h *CatalogHandler) DeactivateCurrency(c *gin.Context) {
	if err := h.service.DeactivateCurrency(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTaxes godoc
// @Summary List taxes
// @Tags Catalog
// @Produce json
// @Param country query string false "Country code filter"
// @Success 200 {object} response.Envelope
// @Router /taxes [get]
func (h *CatalogHandler) ListTaxes(c *gin.Context) {
	taxes, err := h.service.ListTaxes(c.Request.Context(), c.Query("country"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, taxes, nil)
}

// CreateTax godoc
// @Summary Create tax
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.UpsertTaxRequest true "Tax payload"
// @Success 201 {object} response.Envelope
// @Router /taxes [post]
func (h *CatalogHandler) CreateTax(c *gin.Context) {
	var req dto.UpsertTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tax, err := h.service.CreateTax(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tax)
}

// UpdateTax godoc
// @Summary Update tax
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Tax ID"
// @Param payload body dto.UpsertTaxRequest true "Tax payload"
// @Success 200 {object} response.Envelope
// @Router /taxes/{id} [put]
func (h *CatalogHandler) UpdateTax(c *gin.Context) {
	var req dto.UpsertTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tax, err := h.service.UpdateTax(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tax, nil)
}

// DeleteTax godoc
// @Summary Delete tax
// @Tags Catalog
// @Produce json
// @Param id path string true "Tax ID"
// @Success 204 {object} response.Envelope
// @Router /taxes/{id} [delete]
func (h *CatalogHandler) DeleteTax(c *gin.Context) {
	if err := h.service.DeleteTax(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
