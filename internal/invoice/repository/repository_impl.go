package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/pkg/db/option"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, kind, document_number, client_id,
			client_name, client_email, client_address,
			issue_date, due_date, due_date_explicit, payment_terms_days,
			currency, tax_enabled, tax_rate, tax_name,
			subtotal, tax_amount, total,
			status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Kind,
		inv.DocumentNumber,
		inv.ClientID,
		inv.ClientName,
		inv.ClientEmail,
		inv.ClientAddress,
		inv.IssueDate,
		inv.DueDate,
		inv.DueDateExplicit,
		inv.PaymentTermsDays,
		inv.Currency,
		inv.TaxEnabled,
		inv.TaxRate,
		inv.TaxName,
		inv.Subtotal,
		inv.TaxAmount,
		inv.Total,
		inv.Status,
		inv.Notes,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, db, inv.Items)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET
			document_number = ?, client_id = ?,
			client_name = ?, client_email = ?, client_address = ?,
			issue_date = ?, due_date = ?, due_date_explicit = ?, payment_terms_days = ?,
			currency = ?, tax_enabled = ?, tax_rate = ?, tax_name = ?,
			subtotal = ?, tax_amount = ?, total = ?,
			status = ?, notes = ?,
			sent_at = ?, paid_at = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		inv.DocumentNumber,
		inv.ClientID,
		inv.ClientName,
		inv.ClientEmail,
		inv.ClientAddress,
		inv.IssueDate,
		inv.DueDate,
		inv.DueDateExplicit,
		inv.PaymentTermsDays,
		inv.Currency,
		inv.TaxEnabled,
		inv.TaxRate,
		inv.TaxName,
		inv.Subtotal,
		inv.TaxAmount,
		inv.Total,
		inv.Status,
		inv.Notes,
		inv.SentAt,
		inv.PaidAt,
		inv.CancelledAt,
		inv.UpdatedAt,
		inv.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, db, items)
}

func (r *repo) insertItems(ctx context.Context, db *gorm.DB, items []domain.InvoiceItem) error {
	for i := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, unit_type, amount, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].InvoiceID,
			items[i].Position,
			items[i].Description,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].UnitType,
			items[i].Amount,
			items[i].CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE id = ?`, id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}

	err = db.WithContext(ctx).Raw(
		`SELECT * FROM invoice_items WHERE invoice_id = ? ORDER BY position ASC`, id,
	).Scan(&inv.Items).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.Trashed {
		stmt = stmt.Where("trashed_at IS NOT NULL")
	} else {
		stmt = stmt.Where("trashed_at IS NULL")
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != "" {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		stmt = stmt.Where(
			"document_number LIKE ? OR client_name LIKE ? OR notes LIKE ?",
			like, like, like,
		)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) NumbersForPrefix(ctx context.Context, db *gorm.DB, prefix string, excludeID snowflake.ID) ([]string, error) {
	// trashed documents keep their numbers reserved, so no trash filter here
	var numbers []string
	stmt := db.WithContext(ctx).Raw(
		`SELECT document_number FROM invoices WHERE document_number LIKE ? AND id <> ?`,
		prefix+"-%",
		excludeID,
	)
	if err := stmt.Scan(&numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *repo) SetTrashed(ctx context.Context, db *gorm.DB, id snowflake.ID, trashedAt *time.Time, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET trashed_at = ?, updated_at = ? WHERE id = ?`,
		trashedAt,
		updatedAt,
		id,
	).Error
}

func (r *repo) PurgeTrashedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE trashed_at IS NOT NULL AND trashed_at < ?)`,
		cutoff,
	).Error
	if err != nil {
		return 0, err
	}
	err = db.WithContext(ctx).Exec(
		`DELETE FROM document_events WHERE invoice_id IN (SELECT id FROM invoices WHERE trashed_at IS NOT NULL AND trashed_at < ?)`,
		cutoff,
	).Error
	if err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE trashed_at IS NOT NULL AND trashed_at < ?`,
		cutoff,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.DocumentEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO document_events (id, invoice_id, event_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.InvoiceID,
		event.EventType,
		event.Payload,
		event.CreatedAt,
	).Error
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.DocumentEvent, error) {
	var events []domain.DocumentEvent
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM document_events WHERE invoice_id = ? ORDER BY created_at ASC, id ASC`, invoiceID).
		Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
