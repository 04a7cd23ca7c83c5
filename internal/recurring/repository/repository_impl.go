package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/recurring/domain"
	"github.com/smallfirm/fakturo/pkg/db/option"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO recurring_schedules (
			id, name, client_id,
			frequency, schedule_day, schedule_month, quarter_month,
			active, next_invoice_date,
			currency, terms_days,
			tax_enabled, tax_rate, tax_name,
			notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.Name,
		s.ClientID,
		s.Frequency,
		s.ScheduleDay,
		s.ScheduleMonth,
		s.QuarterMonth,
		s.Active,
		s.NextInvoiceDate,
		s.Currency,
		s.TermsDays,
		s.TaxEnabled,
		s.TaxRate,
		s.TaxName,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, db, s.Items)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recurring_schedules SET
			name = ?, client_id = ?,
			frequency = ?, schedule_day = ?, schedule_month = ?, quarter_month = ?,
			active = ?, next_invoice_date = ?,
			currency = ?, terms_days = ?,
			tax_enabled = ?, tax_rate = ?, tax_name = ?,
			notes = ?, last_run_at = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name,
		s.ClientID,
		s.Frequency,
		s.ScheduleDay,
		s.ScheduleMonth,
		s.QuarterMonth,
		s.Active,
		s.NextInvoiceDate,
		s.Currency,
		s.TermsDays,
		s.TaxEnabled,
		s.TaxRate,
		s.TaxName,
		s.Notes,
		s.LastRunAt,
		s.UpdatedAt,
		s.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, scheduleID snowflake.ID, items []domain.ScheduleItem) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM recurring_schedule_items WHERE schedule_id = ?`, scheduleID,
	).Error
	if err != nil {
		return err
	}
	return r.insertItems(ctx, db, items)
}

func (r *repo) insertItems(ctx context.Context, db *gorm.DB, items []domain.ScheduleItem) error {
	for i := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO recurring_schedule_items (id, schedule_id, position, description, quantity, unit_price, unit_type, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].ScheduleID,
			items[i].Position,
			items[i].Description,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].UnitType,
			items[i].CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM recurring_schedule_items WHERE schedule_id = ?`, id,
	).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM recurring_schedules WHERE id = ?`, id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Schedule, error) {
	var s domain.Schedule
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM recurring_schedules WHERE id = ?`, id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}

	err = db.WithContext(ctx).Raw(
		`SELECT * FROM recurring_schedule_items WHERE schedule_id = ? ORDER BY position ASC`, id,
	).Scan(&s.Items).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListScheduleFilter, page pagination.Pagination) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	stmt := db.WithContext(ctx).Model(&domain.Schedule{})
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, today time.Time, limit int) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	stmt := db.WithContext(ctx)
	if limit > 0 {
		stmt = stmt.Raw(
			`SELECT * FROM recurring_schedules
			 WHERE active = ? AND next_invoice_date <= ?
			 ORDER BY next_invoice_date ASC, id ASC
			 LIMIT ?`,
			true,
			today,
			limit,
		)
	} else {
		stmt = stmt.Raw(
			`SELECT * FROM recurring_schedules
			 WHERE active = ? AND next_invoice_date <= ?
			 ORDER BY next_invoice_date ASC, id ASC`,
			true,
			today,
		)
	}
	if err := stmt.Scan(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
