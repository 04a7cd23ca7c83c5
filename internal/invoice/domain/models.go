// Package domain contains the invoice/quote model, the document numbering
// engine and the terms/tax cascade.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes invoices from quotes. The two kinds share the
// table but occupy independent number sequences.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindQuote   DocumentKind = "quote"
)

// InvoiceStatus represents stored lifecycle states. Overdue is never stored;
// it is derived from the due date, see EffectiveStatus.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusCancelled InvoiceStatus = "cancelled"

	// StatusOverdue is a computed presentation state.
	StatusOverdue InvoiceStatus = "overdue"
)

// Invoice represents an invoice or quote document.
//
// Client display fields are denormalized at creation time so that editing or
// deleting a client never changes historical documents.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Kind           DocumentKind  `gorm:"type:text;not null;default:'invoice';index" json:"kind"`
	DocumentNumber string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_document_number" json:"document_number"`
	ClientID       *snowflake.ID `gorm:"index" json:"client_id,omitempty"`

	ClientName    string `gorm:"type:text" json:"client_name"`
	ClientEmail   string `gorm:"type:text" json:"client_email"`
	ClientAddress string `gorm:"type:text" json:"client_address"`

	IssueDate time.Time `gorm:"not null;index" json:"issue_date"`
	DueDate   time.Time `gorm:"not null" json:"due_date"`
	// DueDateExplicit marks a due date the user set by hand. An explicit due
	// date is sticky: later edits to issue date or terms never recompute it.
	DueDateExplicit  bool `gorm:"not null;default:false" json:"due_date_explicit"`
	PaymentTermsDays int  `gorm:"not null;default:30" json:"payment_terms_days"`

	Currency   string          `gorm:"type:text;not null" json:"currency"`
	TaxEnabled bool            `gorm:"not null;default:false" json:"tax_enabled"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	TaxName    string          `gorm:"type:text" json:"tax_name"`

	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`

	Status InvoiceStatus `gorm:"type:text;not null;default:'draft';index" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	TrashedAt   *time.Time `gorm:"index" json:"trashed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents an ordered line on an invoice or quote.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitType    string          `gorm:"type:text" json:"unit_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// LineTotal is quantity times unit price.
func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ComputeTotals recalculates subtotal, tax amount and total from the line
// items and the stored tax settings. Totals are reproducible from inputs: the
// tax amount rounds to the currency minor unit, nothing else rounds.
func (inv *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for idx := range inv.Items {
		amount := inv.Items[idx].LineTotal()
		inv.Items[idx].Amount = amount
		subtotal = subtotal.Add(amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = TaxAmount(subtotal, TaxSettings{Enabled: inv.TaxEnabled, Rate: inv.TaxRate, Name: inv.TaxName})
	inv.Total = subtotal.Add(inv.TaxAmount)
}

// EffectiveStatus derives the presentation status at a point in time. A sent
// invoice past its due date reads as overdue; paid and cancelled are final.
func (inv *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if inv.Status == StatusSent && now.After(inv.DueDate) {
		return StatusOverdue
	}
	return inv.Status
}

// Trashed reports whether the document sits in the trash.
func (inv *Invoice) Trashed() bool { return inv.TrashedAt != nil }
