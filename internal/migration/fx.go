package migration

import (
	"github.com/smallfirm/fakturo/internal/config"
	"github.com/smallfirm/fakturo/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
			return err
		}

		return seed.EnsureProfile(conn)
	}),
)
