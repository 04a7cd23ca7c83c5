package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	Update(ctx context.Context, db *gorm.DB, inv *Invoice) error
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []InvoiceItem) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)

	// NumbersForPrefix returns every document number beginning with
	// prefix+"-", trashed rows included, excluding excludeID when nonzero.
	NumbersForPrefix(ctx context.Context, db *gorm.DB, prefix string, excludeID snowflake.ID) ([]string, error)

	SetTrashed(ctx context.Context, db *gorm.DB, id snowflake.ID, trashedAt *time.Time, updatedAt time.Time) error
	PurgeTrashedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)

	InsertEvent(ctx context.Context, db *gorm.DB, event *DocumentEvent) error
	ListEvents(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]DocumentEvent, error)
}
