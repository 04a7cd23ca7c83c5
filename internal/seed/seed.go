// Package seed bootstraps the default rows a fresh install needs.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	"gorm.io/gorm"
)

const defaultCompanyName = "My Business"

// EnsureProfile seeds the singleton business profile so the app is usable
// before the owner fills in their details.
func EnsureProfile(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&profiledomain.BusinessProfile{}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		profile := profiledomain.BusinessProfile{
			ID:               node.Generate(),
			CompanyName:      defaultCompanyName,
			DefaultCurrency:  "EUR",
			DefaultTermsDays: 30,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.WithContext(ctx).Create(&profile).Error
	})
}
