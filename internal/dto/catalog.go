package dto

import "github.com/shopspring/decimal"

// UpsertCountryRequest creates or updates a country catalog entry.
type UpsertCountryRequest struct {
	Code   string `json:"code" binding:"required" validate:"required,len=2"`
	NameEN string `json:"name_en" validate:"required"`
	NameES string `json:"name_es" validate:"required"`
	Active *bool  `json:"active"`
}

// UpsertCurrencyRequest creates or updates a currency catalog entry.
type UpsertCurrencyRequest struct {
	Code   string `json:"code" binding:"required" validate:"required,len=3"`
	Name   string `json:"name" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
	Active *bool  `json:"active"`
}

// UpsertTaxRequest creates or updates a per-country tax rate.
type UpsertTaxRequest struct {
	CountryCode string          `json:"country_code" binding:"required" validate:"required,len=2"`
	Name        string          `json:"name" validate:"required"`
	Rate        decimal.Decimal `json:"rate" validate:"required"`
	Active      *bool           `json:"active"`
}
