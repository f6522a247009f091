package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/viaticos-app/viaticos-api/internal/models"
)

// CountryRepository persists the destination country catalog.
type CountryRepository struct {
	db *sqlx.DB
}

// NewCountryRepository constructs the repository.
func NewCountryRepository(db *sqlx.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

// List returns the catalog ordered by English name.
func (r *CountryRepository) List(ctx context.Context, activeOnly bool) ([]models.Country, error) {
	query := `SELECT code, name_en, name_es, active, created_at, updated_at FROM countries`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name_en ASC`
	var countries []models.Country
	if err := r.db.SelectContext(ctx, &countries, query); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}

// GetByCode fetches one country.
func (r *CountryRepository) GetByCode(ctx context.Context, code string) (*models.Country, error) {
	const query = `SELECT code, name_en, name_es, active, created_at, updated_at FROM countries WHERE code = $1`
	var country models.Country
	if err := r.db.GetContext(ctx, &country, query, code); err != nil {
		return nil, err
	}
	return &country, nil
}

// Upsert inserts or updates a catalog entry keyed by code.
func (r *CountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	now := time.Now().UTC()
	if country.CreatedAt.IsZero() {
		country.CreatedAt = now
	}
	country.UpdatedAt = now
	const query = `INSERT INTO countries (code, name_en, name_es, active, created_at, updated_at)
	VALUES (:code, :name_en, :name_es, :active, :created_at, :updated_at)
	ON CONFLICT (code) DO UPDATE SET name_en = :name_en, name_es = :name_es, active = :active, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, country); err != nil {
		return fmt.Errorf("upsert country: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a country from the catalog.
func (r *CountryRepository) Deactivate(ctx context.Context, code string) error {
	const query = `UPDATE countries SET active = FALSE, updated_at = $2 WHERE code = $1`
	result, err := r.db.ExecContext(ctx, query, code, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate country: %w", err)
	}
	return requireRowsAffected(result, "deactivate country")
}

// CurrencyRepository persists the currency catalog.
type CurrencyRepository struct {
	db *sqlx.DB
}

// NewCurrencyRepository constructs the repository.
func NewCurrencyRepository(db *sqlx.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// List returns the catalog ordered by code.
func (r *CurrencyRepository) List(ctx context.Context, activeOnly bool) ([]models.Currency, error) {
	query := `SELECT code, name, symbol, active, created_at, updated_at FROM currencies`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY code ASC`
	var currencies []models.Currency
	if err := r.db.SelectContext(ctx, &currencies, query); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return currencies, nil
}

// GetByCode fetches one currency.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	const query = `SELECT code, name, symbol, active, created_at, updated_at FROM currencies WHERE code = $1`
	var currency models.Currency
	if err := r.db.GetContext(ctx, &currency, query, code); err != nil {
		return nil, err
	}
	return &currency, nil
}

// Upsert inserts or updates a catalog entry keyed by code.
func (r *CurrencyRepository) Upsert(ctx context.Context, currency *models.Currency) error {
	now := time.Now().UTC()
	if currency.CreatedAt.IsZero() {
		currency.CreatedAt = now
	}
	currency.UpdatedAt = now
	const query = `INSERT INTO currencies (code, name, symbol, active, created_at, updated_at)
	VALUES (:code, :name, :symbol, :active, :created_at, :updated_at)
	ON CONFLICT (code) DO UPDATE SET name = :name, symbol = :symbol, active = :active, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, currency); err != nil {
		return fmt.Errorf("upsert currency: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a currency from the catalog.
func (r *CurrencyRepository) Deactivate(ctx context.Context, code string) error {
	const query = `UPDATE currencies SET active = FALSE, updated_at = $2 WHERE code = $1`
	result, err := r.db.ExecContext(ctx, query, code, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate currency: %w", err)
	}
	return requireRowsAffected(result, "deactivate currency")
}

// TaxRepository persists per-country tax rates.
type TaxRepository struct {
	db *sqlx.DB
}

// NewTaxRepository constructs the repository.
func NewTaxRepository(db *sqlx.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

// List returns taxes, optionally scoped to one country.
func (r *TaxRepository) List(ctx context.Context, countryCode string) ([]models.Tax, error) {
	query := `SELECT id, country_code, name, rate, active, created_at, updated_at FROM taxes`
	args := []interface{}{}
	if countryCode != "" {
		query += ` WHERE country_code = $1`
		args = append(args, countryCode)
	}
	query += ` ORDER BY country_code ASC, name ASC`
	var taxes []models.Tax
	if err := r.db.SelectContext(ctx, &taxes, query, args...); err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	return taxes, nil
}

// GetByID fetches one tax entry.
func (r *TaxRepository) GetByID(ctx context.Context, id string) (*models.Tax, error) {
	const query = `SELECT id, country_code, name, rate, active, created_at, updated_at FROM taxes WHERE id = $1`
	var tax models.Tax
	if err := r.db.GetContext(ctx, &tax, query, id); err != nil {
		return nil, err
	}
	return &tax, nil
}

// Create inserts a new tax entry.
func (r *TaxRepository) Create(ctx context.Context, tax *models.Tax) error {
	if tax.ID == "" {
		tax.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tax.CreatedAt.IsZero() {
		tax.CreatedAt = now
	}
	tax.UpdatedAt = now
	const query = `INSERT INTO taxes (id, country_code, name, rate, active, created_at, updated_at)
	VALUES (:id, :country_code, :name, :rate, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tax); err != nil {
		return fmt.Errorf("create tax: %w", err)
	}
	return nil
}

// Update persists mutable tax fields.
func (r *TaxRepository) Update(ctx context.Context, tax *models.Tax) error {
	tax.UpdatedAt = time.Now().UTC()
	const query = `UPDATE taxes SET country_code = :country_code, name = :name, rate = :rate, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, tax)
	if err != nil {
		return fmt.Errorf("update tax: %w", err)
	}
	return requireRowsAffected(result, "update tax")
}

// Delete removes a tax entry.
func (r *TaxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM taxes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tax: %w", err)
	}
	return requireRowsAffected(result, "delete tax")
}
