package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("profile.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (domain.BusinessProfile, error) {
	profile, err := s.repo.Find(ctx, s.db)
	if err != nil {
		return domain.BusinessProfile{}, err
	}
	if profile != nil {
		return *profile, nil
	}

	now := s.clock.Now()
	created := domain.BusinessProfile{
		ID:               s.genID.Generate(),
		CompanyName:      "My Business",
		DefaultCurrency:  "EUR",
		DefaultTermsDays: 30,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, &created); err != nil {
		// a concurrent first call may have inserted the row already
		if existing, findErr := s.repo.Find(ctx, s.db); findErr == nil && existing != nil {
			return *existing, nil
		}
		return domain.BusinessProfile{}, err
	}
	s.log.Info("created default business profile", zap.String("profile_id", created.ID.String()))
	return created, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProfileRequest) (domain.BusinessProfile, error) {
	profile, err := s.Get(ctx)
	if err != nil {
		return domain.BusinessProfile{}, err
	}

	if req.CompanyName != nil {
		name := strings.TrimSpace(*req.CompanyName)
		if name == "" {
			return domain.BusinessProfile{}, domain.ErrInvalidCompanyName
		}
		profile.CompanyName = name
	}
	if req.OwnerName != nil {
		profile.OwnerName = strings.TrimSpace(*req.OwnerName)
	}
	if req.Email != nil {
		profile.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		profile.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.TaxID != nil {
		profile.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.DefaultCurrency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.DefaultCurrency))
		if len(currency) != 3 {
			return domain.BusinessProfile{}, domain.ErrInvalidCurrency
		}
		profile.DefaultCurrency = currency
	}
	if req.DefaultTermsDays != nil {
		if *req.DefaultTermsDays < 0 {
			return domain.BusinessProfile{}, domain.ErrInvalidTermsDays
		}
		profile.DefaultTermsDays = *req.DefaultTermsDays
	}
	if req.TaxEnabled != nil {
		profile.TaxEnabled = *req.TaxEnabled
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return domain.BusinessProfile{}, domain.ErrInvalidTaxRate
		}
		profile.TaxRate = *req.TaxRate
	}
	if req.TaxName != nil {
		profile.TaxName = strings.TrimSpace(*req.TaxName)
	}
	if req.PaymentDetails != nil {
		profile.PaymentDetails = *req.PaymentDetails
	}

	profile.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &profile); err != nil {
		return domain.BusinessProfile{}, err
	}
	return profile, nil
}
