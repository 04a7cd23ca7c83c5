package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/client/domain"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
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
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return domain.Client{}, err
	}
	if req.PaymentTermsDays != nil && *req.PaymentTermsDays < 0 {
		return domain.Client{}, domain.ErrInvalidTermsDays
	}
	if req.TaxRate.IsNegative() {
		return domain.Client{}, domain.ErrInvalidTaxRate
	}

	now := s.clock.Now()
	client := domain.Client{
		ID:               s.genID.Generate(),
		Name:             name,
		Email:            strings.TrimSpace(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		Address:          req.Address,
		TaxID:            strings.TrimSpace(req.TaxID),
		Currency:         currency,
		PaymentTermsDays: req.PaymentTermsDays,
		TaxEnabled:       req.TaxEnabled,
		TaxRate:          req.TaxRate,
		TaxName:          strings.TrimSpace(req.TaxName),
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClientRequest) (domain.Client, error) {
	client, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Client{}, domain.ErrInvalidName
		}
		client.Name = name
	}
	if req.Email != nil {
		client.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.TaxID != nil {
		client.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.Currency != nil {
		currency, err := normalizeCurrency(*req.Currency)
		if err != nil {
			return domain.Client{}, err
		}
		client.Currency = currency
	}

	switch {
	case req.ClearPaymentTerms:
		client.PaymentTermsDays = nil
	case req.PaymentTermsDays != nil:
		if *req.PaymentTermsDays < 0 {
			return domain.Client{}, domain.ErrInvalidTermsDays
		}
		client.PaymentTermsDays = req.PaymentTermsDays
	}

	switch {
	case req.ClearTax:
		client.TaxEnabled = nil
	case req.TaxEnabled != nil:
		client.TaxEnabled = req.TaxEnabled
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return domain.Client{}, domain.ErrInvalidTaxRate
		}
		client.TaxRate = *req.TaxRate
	}
	if req.TaxName != nil {
		client.TaxName = strings.TrimSpace(*req.TaxName)
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	client.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, client); err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.load(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	filter := domain.ListClientFilter{
		Query:    strings.TrimSpace(req.Query),
		Archived: req.Archived,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.Client) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.ID.String(),
			CreatedAt: client.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListClientResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) error {
	client, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if client.Archived() {
		return nil
	}
	now := s.clock.Now()
	client.ArchivedAt = &now
	client.UpdatedAt = now
	return s.repo.Update(ctx, s.db, client)
}

func (s *Service) Unarchive(ctx context.Context, id string) error {
	client, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !client.Archived() {
		return nil
	}
	client.ArchivedAt = nil
	client.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, client)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Client, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	client, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "", nil
	}
	if len(currency) != 3 {
		return "", domain.ErrInvalidCurrency
	}
	return currency, nil
}
