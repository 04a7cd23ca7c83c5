package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/client/domain"
	"github.com/smallfirm/fakturo/pkg/db/option"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (
			id, name, email, phone, address, tax_id,
			currency, payment_terms_days,
			tax_enabled, tax_rate, tax_name,
			notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		client.TaxID,
		client.Currency,
		client.PaymentTermsDays,
		client.TaxEnabled,
		client.TaxRate,
		client.TaxName,
		client.Notes,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clients SET
			name = ?, email = ?, phone = ?, address = ?, tax_id = ?,
			currency = ?, payment_terms_days = ?,
			tax_enabled = ?, tax_rate = ?, tax_name = ?,
			notes = ?, archived_at = ?, updated_at = ?
		 WHERE id = ?`,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		client.TaxID,
		client.Currency,
		client.PaymentTermsDays,
		client.TaxEnabled,
		client.TaxRate,
		client.TaxName,
		client.Notes,
		client.ArchivedAt,
		client.UpdatedAt,
		client.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM clients WHERE id = ?`, id,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListClientFilter, page pagination.Pagination) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := db.WithContext(ctx).Model(&domain.Client{})
	if filter.Archived {
		stmt = stmt.Where("archived_at IS NOT NULL")
	} else {
		stmt = stmt.Where("archived_at IS NULL")
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		stmt = stmt.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}
