package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/viaticos-app/viaticos-api/internal/dto"
	"github.com/viaticos-app/viaticos-api/internal/models"
	appErrors "github.com/viaticos-app/viaticos-api/pkg/errors"
)

type countryStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.Country, error)
	GetByCode(ctx context.Context, code string) (*models.Country, error)
	Upsert(ctx context.Context, country *models.Country) error
	Deactivate(ctx context.Context, code string) error
}

type currencyStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.Currency, error)
	GetByCode(ctx context.Context, code string) (*models.Currency, error)
	Upsert(ctx context.Context, currency *models.Currency) error
	Deactivate(ctx context.Context, code string) error
}

type taxStore interface {
	List(ctx context.Context, countryCode string) ([]models.Tax, error)
	GetByID(ctx context.Context, id string) (*models.Tax, error)
	Create(ctx context.Context, tax *models.Tax) error
	Update(ctx context.Context, tax *models.Tax) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the reference data reports draw from: destination
// countries, currencies, and per-country tax rates.
type CatalogService struct {
	countries  countryStore
	currencies currencyStore
	taxes      taxStore
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(countries countryStore, currencies currencyStore, taxes taxStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{countries: countries, currencies: currencies, taxes: taxes, validator: validate, logger: logger}
}

// ListCountries returns the country catalog.
func (s *CatalogService) ListCountries(ctx context.Context, activeOnly bool) ([]models.Country, error) {
	countries, err := s.countries.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list countries")
	}
	return countries, nil
}

// UpsertCountry creates or replaces a country catalog entry.
func (s *CatalogService) UpsertCountry(ctx context.Context, req dto.UpsertCountryRequest) (*models.Country, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid country payload")
	}
	country := &models.Country{
		Code:   strings.ToUpper(req.Code),
		NameEN: req.NameEN,
		NameES: req.NameES,
		Active: true,
	}
	if req.Active != nil {
		country.Active = *req.Active
	}
	if err := s.countries.Upsert(ctx, country); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert country")
	}
	return country, nil
}

// DeactivateCountry removes a country from active use.
func (s *CatalogService) DeactivateCountry(ctx context.Context, code string) error {
	if err := s.countries.Deactivate(ctx, strings.ToUpper(code)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "country not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate country")
	}
	return nil
}

// ListCurrencies returns the currency catalog.
func (s *CatalogService) ListCurrencies(ctx context.Context, activeOnly bool) ([]models.Currency, error) {
	currencies, err := s.currencies.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list currencies")
	}
	return currencies, nil
}

// UpsertCurrency creates or replaces a currency catalog entry.
func (s *CatalogService) UpsertCurrency(ctx context.Context, req dto.UpsertCurrencyRequest) (*models.Currency, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid currency payload")
	}
	currency := &models.Currency{
		Code:   strings.ToUpper(req.Code),
		Name:   req.Name,
		Symbol: req.Symbol,
		Active: true,
	}
	if req.Active != nil {
		currency.Active = *req.Active
	}
	if err := s.currencies.Upsert(ctx, currency); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert currency")
	}
	return currency, nil
}

// DeactivateCurrency removes a currency from active use.
func (s *CatalogService) DeactivateCurrency(ctx context.Context, code string) error {
	if err := s.currencies.Deactivate(ctx, strings.ToUpper(code)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "currency not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate currency")
	}
	return nil
}

// ListTaxes returns tax rates, optionally scoped to one country.
func (s *CatalogService) ListTaxes(ctx context.Context, countryCode string) ([]models.Tax, error) {
	taxes, err := s.taxes.List(ctx, strings.ToUpper(countryCode))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list taxes")
	}
	return taxes, nil
}

// CreateTax adds a per-country tax rate. The country must exist in the
// catalog.
func (s *CatalogService) CreateTax(ctx context.Context, req dto.UpsertTaxRequest) (*models.Tax, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tax payload")
	}
	code := strings.ToUpper(req.CountryCode)
	if _, err := s.countries.GetByCode(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "unknown country code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify country")
	}
	tax := &models.Tax{
		CountryCode: code,
		Name:        req.Name,
		Rate:        req.Rate,
		Active:      true,
	}
	if req.Active != nil {
		tax.Active = *req.Active
	}
	if err := s.taxes.Create(ctx, tax); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tax")
	}
	return tax, nil
}

// UpdateTax edits an existing tax rate.
func (s *CatalogService) UpdateTax(ctx context.Context, id string, req dto.UpsertTaxRequest) (*models.Tax, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tax payload")
	}
	tax, err := s.taxes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tax not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tax")
	}

	tax.CountryCode = strings.ToUpper(req.CountryCode)
	tax.Name = req.Name
	tax.Rate = req.Rate
	if req.Active != nil {
		tax.Active = *req.Active
	}

	if err := s.taxes.Update(ctx, tax); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tax not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tax")
	}
	return tax, nil
}

// DeleteTax removes a tax rate.
func (s *CatalogService) DeleteTax(ctx context.Context, id string) error {
	if err := s.taxes.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tax not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tax")
	}
	return nil
}
