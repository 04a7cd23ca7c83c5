// Package domain contains recurring schedule models and the next-fire-date
// calculator.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
)

// Schedule generates one invoice per occurrence. ScheduleDay is the weekday
// for weekly schedules (0 is Monday) and the anchor day of month otherwise;
// the anchor never drifts, short months clamp to their last day.
type Schedule struct {
	ID       snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name     string        `gorm:"type:text;not null" json:"name"`
	ClientID *snowflake.ID `gorm:"index" json:"client_id,omitempty"`

	Frequency   Frequency `gorm:"type:text;not null" json:"frequency"`
	ScheduleDay int       `gorm:"not null;default:1" json:"schedule_day"`
	// ScheduleMonth is the month of year for yearly schedules, 1..12.
	ScheduleMonth int `gorm:"not null;default:1" json:"schedule_month"`
	// QuarterMonth is the month within the quarter for quarterly schedules,
	// 1..3. A value of 1 fires in January, April, July and October.
	QuarterMonth int `gorm:"not null;default:1" json:"quarter_month"`

	Active          bool      `gorm:"not null;default:true;index" json:"active"`
	NextInvoiceDate time.Time `gorm:"not null;index" json:"next_invoice_date"`

	Currency  string `gorm:"type:text" json:"currency"`
	TermsDays *int   `json:"terms_days,omitempty"`

	TaxEnabled *bool           `json:"tax_enabled,omitempty"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	TaxName    string          `gorm:"type:text" json:"tax_name"`

	Notes string `gorm:"type:text" json:"notes"`

	Items []ScheduleItem `gorm:"foreignKey:ScheduleID" json:"items"`

	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Schedule) TableName() string { return "recurring_schedules" }

// ScheduleItem is a template line copied onto every generated invoice.
type ScheduleItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	ScheduleID  snowflake.ID    `gorm:"not null;index" json:"schedule_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitType    string          `gorm:"type:text" json:"unit_type"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (ScheduleItem) TableName() string { return "recurring_schedule_items" }
