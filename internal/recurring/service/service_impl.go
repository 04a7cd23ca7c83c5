package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/clock"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/internal/recurring/domain"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Invoices invoicedomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	invoices invoicedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("recurring.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		invoices: p.Invoices,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateScheduleRequest) (domain.Schedule, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Schedule{}, domain.ErrInvalidName
	}
	if len(req.Items) == 0 {
		return domain.Schedule{}, domain.ErrNoItems
	}

	now := s.clock.Now()
	schedule := domain.Schedule{
		ID:            s.genID.Generate(),
		Name:          name,
		Frequency:     req.Frequency,
		ScheduleDay:   req.ScheduleDay,
		ScheduleMonth: req.ScheduleMonth,
		QuarterMonth:  req.QuarterMonth,
		Active:        true,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		TermsDays:     req.TermsDays,
		TaxEnabled:    req.TaxEnabled,
		TaxRate:       req.TaxRate,
		TaxName:       strings.TrimSpace(req.TaxName),
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := schedule.Validate(); err != nil {
		return domain.Schedule{}, err
	}
	if req.ClientID != nil && *req.ClientID != "" {
		parsed, err := snowflake.ParseString(*req.ClientID)
		if err != nil || parsed == 0 {
			return domain.Schedule{}, domain.ErrInvalidID
		}
		schedule.ClientID = &parsed
	}

	// the first occurrence may fall on the start day itself
	start := clock.Today(s.clock)
	if req.StartDate != nil {
		start = clock.DateOf(*req.StartDate)
	}
	schedule.NextInvoiceDate = domain.NextFireDate(&schedule, start.AddDate(0, 0, -1))

	schedule.Items = buildItems(s.genID, schedule.ID, req.Items, now)
	if err := s.repo.Insert(ctx, s.db, &schedule); err != nil {
		return domain.Schedule{}, err
	}
	return schedule, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateScheduleRequest) (domain.Schedule, error) {
	schedule, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Schedule{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Schedule{}, domain.ErrInvalidName
		}
		schedule.Name = name
	}

	cadenceChanged := false
	if req.Frequency != nil {
		schedule.Frequency = *req.Frequency
		cadenceChanged = true
	}
	if req.ScheduleDay != nil {
		schedule.ScheduleDay = *req.ScheduleDay
		cadenceChanged = true
	}
	if req.ScheduleMonth != nil {
		schedule.ScheduleMonth = *req.ScheduleMonth
		cadenceChanged = true
	}
	if req.QuarterMonth != nil {
		schedule.QuarterMonth = *req.QuarterMonth
		cadenceChanged = true
	}
	if err := schedule.Validate(); err != nil {
		return domain.Schedule{}, err
	}
	if cadenceChanged {
		schedule.NextInvoiceDate = domain.NextFireDate(schedule, clock.Today(s.clock).AddDate(0, 0, -1))
	}

	if req.Currency != nil {
		schedule.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.TermsDays != nil {
		schedule.TermsDays = req.TermsDays
	}
	if req.TaxEnabled != nil {
		schedule.TaxEnabled = req.TaxEnabled
	}
	if req.TaxRate != nil {
		schedule.TaxRate = *req.TaxRate
	}
	if req.TaxName != nil {
		schedule.TaxName = strings.TrimSpace(*req.TaxName)
	}
	if req.Notes != nil {
		schedule.Notes = *req.Notes
	}

	replaceItems := false
	if req.Items != nil {
		if len(*req.Items) == 0 {
			return domain.Schedule{}, domain.ErrNoItems
		}
		schedule.Items = buildItems(s.genID, schedule.ID, *req.Items, s.clock.Now())
		replaceItems = true
	}

	schedule.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, schedule); err != nil {
			return err
		}
		if replaceItems {
			return s.repo.ReplaceItems(ctx, tx, schedule.ID, schedule.Items)
		}
		return nil
	})
	if err != nil {
		return domain.Schedule{}, err
	}
	return *schedule, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	return *schedule, nil
}

func (s *Service) List(ctx context.Context, req domain.ListScheduleRequest) (domain.ListScheduleResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListScheduleFilter{Active: req.Active}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListScheduleResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(schedule *domain.Schedule) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        schedule.ID.String(),
			CreatedAt: schedule.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	schedules := make([]domain.Schedule, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		schedules = append(schedules, *item)
	}

	resp := domain.ListScheduleResponse{Schedules: schedules}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, schedule.ID)
}

func (s *Service) Pause(ctx context.Context, id string) (domain.Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	schedule.Active = false
	schedule.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, schedule); err != nil {
		return domain.Schedule{}, err
	}
	return *schedule, nil
}

// Resume reactivates a schedule. The next date recomputes from today so a
// long pause never produces a burst of catch-up invoices.
func (s *Service) Resume(ctx context.Context, id string) (domain.Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	schedule.Active = true
	if schedule.NextInvoiceDate.Before(clock.Today(s.clock)) {
		schedule.NextInvoiceDate = domain.NextFireDate(schedule, clock.Today(s.clock).AddDate(0, 0, -1))
	}
	schedule.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, schedule); err != nil {
		return domain.Schedule{}, err
	}
	return *schedule, nil
}

func (s *Service) TriggerNow(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !schedule.Active {
		return invoicedomain.Invoice{}, domain.ErrNotActive
	}

	today := clock.Today(s.clock)
	inv, err := s.generate(ctx, schedule, today)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := s.advance(ctx, schedule, today); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}

func (s *Service) GenerateDue(ctx context.Context, today time.Time, batchSize int) (domain.GenerateReport, error) {
	today = clock.DateOf(today)
	due, err := s.repo.ListDue(ctx, s.db, today, batchSize)
	if err != nil {
		return domain.GenerateReport{}, err
	}

	var report domain.GenerateReport
	var errs []error
	for _, schedule := range due {
		full, err := s.repo.FindByID(ctx, s.db, schedule.ID)
		if err != nil || full == nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("schedule %s: %w", schedule.ID, err))
			continue
		}

		if _, err := s.generate(ctx, full, today); err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("schedule %s: %w", full.ID, err))
			s.log.Error("recurring invoice generation failed",
				zap.String("schedule_id", full.ID.String()),
				zap.Error(err),
			)
		} else {
			report.Generated++
		}

		// advance regardless of the outcome so a broken schedule cannot
		// refire the same occurrence on every sweep
		if err := s.advance(ctx, full, today); err != nil {
			errs = append(errs, fmt.Errorf("advance schedule %s: %w", full.ID, err))
		}
	}
	return report, errors.Join(errs...)
}

func (s *Service) generate(ctx context.Context, schedule *domain.Schedule, today time.Time) (invoicedomain.Invoice, error) {
	req := invoicedomain.CreateRequest{
		Kind:      invoicedomain.KindInvoice,
		IssueDate: &today,
		TermsDays: schedule.TermsDays,
		Currency:  schedule.Currency,
		Tax: invoicedomain.TaxInput{
			Enabled: schedule.TaxEnabled,
			Rate:    schedule.TaxRate,
			Name:    schedule.TaxName,
		},
		Notes: schedule.Notes,
	}
	if schedule.ClientID != nil {
		id := schedule.ClientID.String()
		req.ClientID = &id
	}
	req.Items = make([]invoicedomain.ItemInput, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		req.Items = append(req.Items, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitType:    item.UnitType,
		})
	}

	inv, err := s.invoices.Create(ctx, req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	s.log.Info("recurring invoice generated",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("document_number", inv.DocumentNumber),
	)
	return inv, nil
}

func (s *Service) advance(ctx context.Context, schedule *domain.Schedule, today time.Time) error {
	domain.Advance(schedule, today)
	now := s.clock.Now()
	schedule.LastRunAt = &now
	schedule.UpdatedAt = now
	return s.repo.Update(ctx, s.db, schedule)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Schedule, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	schedule, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, domain.ErrNotFound
	}
	return schedule, nil
}

func buildItems(genID *snowflake.Node, scheduleID snowflake.ID, inputs []domain.ScheduleItemInput, now time.Time) []domain.ScheduleItem {
	items := make([]domain.ScheduleItem, 0, len(inputs))
	for i, input := range inputs {
		items = append(items, domain.ScheduleItem{
			ID:          genID.Generate(),
			ScheduleID:  scheduleID,
			Position:    i + 1,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			UnitType:    input.UnitType,
			CreatedAt:   now,
		})
	}
	return items
}
