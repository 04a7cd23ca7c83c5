package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateScheduleRequest) (Schedule, error)
	Update(ctx context.Context, req UpdateScheduleRequest) (Schedule, error)
	GetByID(ctx context.Context, id string) (Schedule, error)
	List(ctx context.Context, req ListScheduleRequest) (ListScheduleResponse, error)
	Delete(ctx context.Context, id string) error

	Pause(ctx context.Context, id string) (Schedule, error)
	Resume(ctx context.Context, id string) (Schedule, error)

	// TriggerNow generates one invoice from the schedule immediately and
	// advances the schedule from today.
	TriggerNow(ctx context.Context, id string) (invoicedomain.Invoice, error)

	// GenerateDue fires the schedules due on the given day, oldest first,
	// at most batchSize per call (non-positive means no bound). Failures
	// are isolated per schedule and every fired schedule advances, so one
	// broken schedule can neither block the batch nor fire twice.
	GenerateDue(ctx context.Context, today time.Time, batchSize int) (GenerateReport, error)
}

type ScheduleItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitType    string          `json:"unit_type"`
}

type CreateScheduleRequest struct {
	Name     string  `json:"name"`
	ClientID *string `json:"client_id,omitempty"`

	Frequency     Frequency `json:"frequency"`
	ScheduleDay   int       `json:"schedule_day"`
	ScheduleMonth int       `json:"schedule_month"`
	QuarterMonth  int       `json:"quarter_month"`

	// StartDate bounds the first occurrence; when nil the cadence starts
	// counting from today.
	StartDate *time.Time `json:"start_date,omitempty"`

	Currency  string `json:"currency"`
	TermsDays *int   `json:"terms_days,omitempty"`

	TaxEnabled *bool           `json:"tax_enabled,omitempty"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	TaxName    string          `json:"tax_name"`

	Notes string              `json:"notes"`
	Items []ScheduleItemInput `json:"items"`
}

type UpdateScheduleRequest struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`

	Frequency     *Frequency `json:"frequency,omitempty"`
	ScheduleDay   *int       `json:"schedule_day,omitempty"`
	ScheduleMonth *int       `json:"schedule_month,omitempty"`
	QuarterMonth  *int       `json:"quarter_month,omitempty"`

	Currency  *string `json:"currency,omitempty"`
	TermsDays *int    `json:"terms_days,omitempty"`

	TaxEnabled *bool            `json:"tax_enabled,omitempty"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxName    *string          `json:"tax_name,omitempty"`

	Notes *string              `json:"notes,omitempty"`
	Items *[]ScheduleItemInput `json:"items,omitempty"`
}

type ListScheduleRequest struct {
	Active *bool `form:"active"`
	pagination.Pagination
}

type ListScheduleResponse struct {
	Schedules []Schedule          `json:"schedules"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

type ListScheduleFilter struct {
	Active *bool
}

// GenerateReport summarizes one sweep pass.
type GenerateReport struct {
	Generated int
	Failed    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, s *Schedule) error
	Update(ctx context.Context, db *gorm.DB, s *Schedule) error
	ReplaceItems(ctx context.Context, db *gorm.DB, scheduleID snowflake.ID, items []ScheduleItem) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Schedule, error)
	List(ctx context.Context, db *gorm.DB, filter ListScheduleFilter, page pagination.Pagination) ([]*Schedule, error)
	ListDue(ctx context.Context, db *gorm.DB, today time.Time, limit int) ([]*Schedule, error)
}
