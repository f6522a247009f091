package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Country is an admin-managed destination catalog entry.
type Country struct {
	Code      string    `db:"code" json:"code"`
	NameEN    string    `db:"name_en" json:"name_en"`
	NameES    string    `db:"name_es" json:"name_es"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Currency is an admin-managed currency catalog entry.
type Currency struct {
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Symbol    string    `db:"symbol" json:"symbol"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Tax is a per-country tax rate managed by administrators.
type Tax struct {
	ID          string          `db:"id" json:"id"`
	CountryCode string          `db:"country_code" json:"country_code"`
	Name        string          `db:"name" json:"name"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
