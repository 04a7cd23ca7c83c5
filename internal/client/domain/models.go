// Package domain contains the client model and its per-client override
// fields for the terms and tax cascades.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Client represents a billed party. The override columns are nullable on
// purpose: nil means the client inherits the profile default, a value stops
// the cascade at the client level.
type Client struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	Name    string       `gorm:"type:text;not null" json:"name"`
	Email   string       `gorm:"type:text" json:"email"`
	Phone   string       `gorm:"type:text" json:"phone"`
	Address string       `gorm:"type:text" json:"address"`
	TaxID   string       `gorm:"column:tax_id;type:text" json:"tax_id"`

	Currency         string `gorm:"type:text" json:"currency"`
	PaymentTermsDays *int   `json:"payment_terms_days,omitempty"`

	TaxEnabled *bool           `json:"tax_enabled,omitempty"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	TaxName    string          `gorm:"type:text" json:"tax_name"`

	Notes string `gorm:"type:text" json:"notes"`

	ArchivedAt *time.Time `gorm:"index" json:"archived_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }

// Archived reports whether the client is hidden from pickers and lists.
// Archiving never touches documents that snapshot this client.
func (c *Client) Archived() bool { return c.ArchivedAt != nil }
