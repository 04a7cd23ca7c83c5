package repository

import (
	"context"

	"github.com/smallfirm/fakturo/internal/profile/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM business_profiles ORDER BY id ASC LIMIT 1`,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.BusinessProfile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO business_profiles (
			id, company_name, owner_name, email, phone, address, tax_id,
			default_currency, default_terms_days,
			tax_enabled, tax_rate, tax_name,
			payment_details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.CompanyName,
		profile.OwnerName,
		profile.Email,
		profile.Phone,
		profile.Address,
		profile.TaxID,
		profile.DefaultCurrency,
		profile.DefaultTermsDays,
		profile.TaxEnabled,
		profile.TaxRate,
		profile.TaxName,
		profile.PaymentDetails,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, profile *domain.BusinessProfile) error {
	return db.WithContext(ctx).Exec(
		`UPDATE business_profiles SET
			company_name = ?, owner_name = ?, email = ?, phone = ?, address = ?, tax_id = ?,
			default_currency = ?, default_terms_days = ?,
			tax_enabled = ?, tax_rate = ?, tax_name = ?,
			payment_details = ?, updated_at = ?
		 WHERE id = ?`,
		profile.CompanyName,
		profile.OwnerName,
		profile.Email,
		profile.Phone,
		profile.Address,
		profile.TaxID,
		profile.DefaultCurrency,
		profile.DefaultTermsDays,
		profile.TaxEnabled,
		profile.TaxRate,
		profile.TaxName,
		profile.PaymentDetails,
		profile.UpdatedAt,
		profile.ID,
	).Error
}
