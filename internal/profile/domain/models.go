// Package domain contains the business profile model. The profile is a
// singleton row holding the issuer identity and the global invoicing
// defaults that terminate the terms and tax cascades.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type BusinessProfile struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	CompanyName string `gorm:"type:text;not null" json:"company_name"`
	OwnerName   string `gorm:"type:text" json:"owner_name"`
	Email       string `gorm:"type:text" json:"email"`
	Phone       string `gorm:"type:text" json:"phone"`
	Address     string `gorm:"type:text" json:"address"`
	TaxID       string `gorm:"column:tax_id;type:text" json:"tax_id"`

	DefaultCurrency  string `gorm:"type:text;not null;default:'EUR'" json:"default_currency"`
	DefaultTermsDays int    `gorm:"not null;default:30" json:"default_terms_days"`

	TaxEnabled bool            `gorm:"not null;default:false" json:"tax_enabled"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	TaxName    string          `gorm:"type:text" json:"tax_name"`

	// PaymentDetails is free text printed on every document, typically bank
	// account information.
	PaymentDetails string `gorm:"type:text" json:"payment_details"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (BusinessProfile) TableName() string { return "business_profiles" }
