package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)

	MarkSent(ctx context.Context, id string) (Invoice, error)
	MarkPaid(ctx context.Context, id string) (Invoice, error)
	Cancel(ctx context.Context, id string) (Invoice, error)
	ConvertQuote(ctx context.Context, id string) (Invoice, error)

	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Events returns the append-only history of a document, oldest first.
	Events(ctx context.Context, id string) ([]DocumentEvent, error)
}

type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitType    string          `json:"unit_type"`
}

type TaxInput struct {
	Enabled *bool           `json:"enabled,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Name    string          `json:"name"`
}

type CreateRequest struct {
	Kind      DocumentKind `json:"kind"`
	ClientID  *string      `json:"client_id,omitempty"`
	IssueDate *time.Time   `json:"issue_date,omitempty"`
	DueDate   *time.Time   `json:"due_date,omitempty"` // explicit override, sticky
	TermsDays *int         `json:"terms_days,omitempty"`
	Currency  string       `json:"currency,omitempty"`
	Tax       TaxInput     `json:"tax"`
	Items     []ItemInput  `json:"items"`
	Notes     string       `json:"notes"`
}

type UpdateRequest struct {
	ID        string       `json:"id"`
	IssueDate *time.Time   `json:"issue_date,omitempty"`
	DueDate   *time.Time   `json:"due_date,omitempty"`
	TermsDays *int         `json:"terms_days,omitempty"`
	Currency  *string      `json:"currency,omitempty"`
	Tax       *TaxInput    `json:"tax,omitempty"`
	Items     *[]ItemInput `json:"items,omitempty"`
	Notes     *string      `json:"notes,omitempty"`
}

type ListFilter struct {
	Kind     DocumentKind
	Status   InvoiceStatus
	ClientID string
	Query    string
	Trashed  bool
}

type ListRequest struct {
	ListFilter
	Page pagination.Pagination
}

type ListResponse struct {
	Invoices []Invoice           `json:"invoices"`
	PageInfo pagination.PageInfo `json:"page_info"`
}
