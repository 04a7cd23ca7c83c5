package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Document event types.
const (
	EventCreated    = "created"
	EventSent       = "sent"
	EventPaid       = "paid"
	EventCancelled  = "cancelled"
	EventConverted  = "converted"
	EventRenumbered = "renumbered"
	EventTrashed    = "trashed"
	EventRestored   = "restored"
)

// DocumentEvent is an append-only history entry for a document. Events
// survive edits, so the history stays true even after renumbering.
type DocumentEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID      `gorm:"not null;index" json:"invoice_id"`
	EventType string            `gorm:"type:text;not null" json:"event_type"`
	Payload   datatypes.JSONMap `json:"payload,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (DocumentEvent) TableName() string { return "document_events" }
