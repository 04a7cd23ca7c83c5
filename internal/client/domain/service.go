package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidTermsDays = errors.New("invalid_terms_days")
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
)

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	Update(ctx context.Context, req UpdateClientRequest) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

type CreateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`

	Currency         string `json:"currency"`
	PaymentTermsDays *int   `json:"payment_terms_days,omitempty"`

	TaxEnabled *bool           `json:"tax_enabled,omitempty"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	TaxName    string          `json:"tax_name"`

	Notes string `json:"notes"`
}

type UpdateClientRequest struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`

	Currency         *string `json:"currency,omitempty"`
	PaymentTermsDays *int    `json:"payment_terms_days,omitempty"`
	// ClearPaymentTerms resets the terms override back to inherit.
	ClearPaymentTerms bool `json:"clear_payment_terms,omitempty"`

	TaxEnabled *bool            `json:"tax_enabled,omitempty"`
	ClearTax   bool             `json:"clear_tax,omitempty"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxName    *string          `json:"tax_name,omitempty"`

	Notes *string `json:"notes,omitempty"`
}

type ListClientRequest struct {
	Query    string `form:"q"`
	Archived bool   `form:"archived"`
	pagination.Pagination
}

type ListClientResponse struct {
	Clients  []Client            `json:"clients"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type ListClientFilter struct {
	Query    string
	Archived bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
}
