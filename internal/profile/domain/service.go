package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidCompanyName = errors.New("invalid_company_name")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidTermsDays   = errors.New("invalid_terms_days")
	ErrInvalidTaxRate     = errors.New("invalid_tax_rate")
)

type Service interface {
	// Get returns the profile, creating the default row on first call.
	Get(ctx context.Context) (BusinessProfile, error)
	Update(ctx context.Context, req UpdateProfileRequest) (BusinessProfile, error)
}

type UpdateProfileRequest struct {
	CompanyName *string `json:"company_name,omitempty"`
	OwnerName   *string `json:"owner_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	TaxID       *string `json:"tax_id,omitempty"`

	DefaultCurrency  *string `json:"default_currency,omitempty"`
	DefaultTermsDays *int    `json:"default_terms_days,omitempty"`

	TaxEnabled *bool            `json:"tax_enabled,omitempty"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxName    *string          `json:"tax_name,omitempty"`

	PaymentDetails *string `json:"payment_details,omitempty"`
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB) (*BusinessProfile, error)
	Insert(ctx context.Context, db *gorm.DB, profile *BusinessProfile) error
	Update(ctx context.Context, db *gorm.DB, profile *BusinessProfile) error
}
