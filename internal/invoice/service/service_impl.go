package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallfirm/fakturo/internal/client/domain"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/internal/observability/metrics"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	"github.com/smallfirm/fakturo/pkg/db"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// numberAttempts bounds how often a losing racer re-reads the sequence and
// retries the insert before giving up with ErrNumberConflict.
const numberAttempts = 3

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Clients clientdomain.Service
	Profile profiledomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	clients clientdomain.Service
	profile profiledomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		clients: p.Clients,
		profile: p.Profile,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Invoice, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.KindInvoice
	}
	if kind != domain.KindInvoice && kind != domain.KindQuote {
		return domain.Invoice{}, domain.ErrInvalidKind
	}
	items, err := buildItems(s.genID, req.Items, s.clock.Now())
	if err != nil {
		return domain.Invoice{}, err
	}
	if req.TermsDays != nil {
		if err := domain.ValidateTermsDays(*req.TermsDays); err != nil {
			return domain.Invoice{}, err
		}
	}
	if err := domain.ValidateTaxRate(req.Tax.Rate); err != nil {
		return domain.Invoice{}, err
	}

	profile, err := s.profile.Get(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	issueDate := clock.Today(s.clock)
	if req.IssueDate != nil {
		issueDate = clock.DateOf(*req.IssueDate)
	}

	now := s.clock.Now()
	inv := domain.Invoice{
		ID:               s.genID.Generate(),
		Kind:             kind,
		IssueDate:        issueDate,
		PaymentTermsDays: profile.DefaultTermsDays,
		Currency:         profile.DefaultCurrency,
		Status:           domain.StatusDraft,
		Notes:            req.Notes,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
	}

	var clientTerms *int
	clientTax := domain.TaxOverride{}
	if req.ClientID != nil && *req.ClientID != "" {
		client, err := s.clients.GetByID(ctx, *req.ClientID)
		if err != nil {
			return domain.Invoice{}, err
		}
		inv.ClientID = &client.ID
		inv.ClientName = client.Name
		inv.ClientEmail = client.Email
		inv.ClientAddress = client.Address
		if client.Currency != "" {
			inv.Currency = client.Currency
		}
		clientTerms = client.PaymentTermsDays
		clientTax = domain.TaxOverrideFromNullable(client.TaxEnabled, client.TaxRate, client.TaxName)
	}
	if req.Currency != "" {
		inv.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	}

	inv.PaymentTermsDays = domain.ResolveTermsDays(req.TermsDays, clientTerms, profile.DefaultTermsDays)
	if req.DueDate != nil {
		inv.DueDate = clock.DateOf(*req.DueDate)
		inv.DueDateExplicit = true
	} else {
		inv.DueDate = domain.ResolveDueDate(issueDate, nil, req.TermsDays, clientTerms, profile.DefaultTermsDays)
	}

	invoiceTax := domain.TaxOverrideFromNullable(req.Tax.Enabled, req.Tax.Rate, req.Tax.Name)
	tax := domain.ResolveTax(invoiceTax, clientTax, domain.TaxSettings{
		Enabled: profile.TaxEnabled,
		Rate:    profile.TaxRate,
		Name:    profile.TaxName,
	})
	inv.TaxEnabled = tax.Enabled
	inv.TaxRate = tax.Rate
	inv.TaxName = tax.Name
	inv.ComputeTotals()

	if err := s.insertNumbered(ctx, &inv); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("document created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("document_number", inv.DocumentNumber),
		zap.String("kind", string(inv.Kind)),
	)
	s.recordEvent(ctx, inv.ID, domain.EventCreated, map[string]any{
		"document_number": inv.DocumentNumber,
		"kind":            string(inv.Kind),
	})
	return inv, nil
}

// recordEvent appends a history entry. History is best effort: a failed
// write is logged, it never fails the operation that caused it.
func (s *Service) recordEvent(ctx context.Context, invoiceID snowflake.ID, eventType string, payload map[string]any) {
	event := domain.DocumentEvent{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		EventType: eventType,
		Payload:   datatypes.JSONMap(payload),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertEvent(ctx, s.db, &event); err != nil {
		s.log.Warn("document event not recorded",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *Service) Events(ctx context.Context, id string) ([]domain.DocumentEvent, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, s.db, inv.ID)
}

// insertNumbered assigns the next document number and inserts inside one
// transaction. The unique index on document_number arbitrates concurrent
// racers; the loser re-reads and retries with a fresh sequence value.
func (s *Service) insertNumbered(ctx context.Context, inv *domain.Invoice) error {
	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			numbers, err := s.repo.NumbersForPrefix(ctx, tx, domain.DatePrefix(inv.IssueDate, inv.Kind), inv.ID)
			if err != nil {
				return err
			}
			inv.DocumentNumber = domain.NextDocumentNumber(inv.IssueDate, inv.Kind, numbers)
			return s.repo.Insert(ctx, tx, inv)
		})
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		lastErr = err
		metrics.Sweep().IncNumberConflict()
		s.log.Warn("document number taken, retrying",
			zap.String("document_number", inv.DocumentNumber),
			zap.Int("attempt", attempt+1),
		)
	}
	s.log.Error("document number assignment exhausted retries", zap.Error(lastErr))
	return domain.ErrNumberConflict
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (domain.Invoice, error) {
	inv, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if inv.Trashed() {
		return domain.Invoice{}, domain.ErrTrashed
	}

	renumber := false
	if req.IssueDate != nil {
		issueDate := clock.DateOf(*req.IssueDate)
		if !issueDate.Equal(inv.IssueDate) {
			inv.IssueDate = issueDate
			renumber = true
		}
	}
	if req.TermsDays != nil {
		if err := domain.ValidateTermsDays(*req.TermsDays); err != nil {
			return domain.Invoice{}, err
		}
		inv.PaymentTermsDays = *req.TermsDays
	}
	switch {
	case req.DueDate != nil:
		inv.DueDate = clock.DateOf(*req.DueDate)
		inv.DueDateExplicit = true
	case !inv.DueDateExplicit:
		// derived due dates follow issue date and terms; explicit ones stay put
		inv.DueDate = inv.IssueDate.AddDate(0, 0, inv.PaymentTermsDays)
	}
	if req.Currency != nil {
		inv.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.Tax != nil {
		if err := domain.ValidateTaxRate(req.Tax.Rate); err != nil {
			return domain.Invoice{}, err
		}
		override := domain.TaxOverrideFromNullable(req.Tax.Enabled, req.Tax.Rate, req.Tax.Name)
		if override.Mode != domain.TaxInherit {
			tax := domain.ResolveTax(override, domain.TaxOverride{}, domain.TaxSettings{})
			inv.TaxEnabled = tax.Enabled
			inv.TaxRate = tax.Rate
			inv.TaxName = tax.Name
		}
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}

	replaceItems := false
	if req.Items != nil {
		items, err := buildItems(s.genID, *req.Items, s.clock.Now())
		if err != nil {
			return domain.Invoice{}, err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		inv.Items = items
		replaceItems = true
	}
	inv.ComputeTotals()
	inv.UpdatedAt = s.clock.Now()

	if renumber {
		if err := s.updateRenumbered(ctx, inv, replaceItems); err != nil {
			return domain.Invoice{}, err
		}
		return *inv, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, inv); err != nil {
			return err
		}
		if replaceItems {
			return s.repo.ReplaceItems(ctx, tx, inv.ID, inv.Items)
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

// updateRenumbered persists an issue-date change. The document moves to the
// next free slot of the new day; its old number becomes a permanent gap.
func (s *Service) updateRenumbered(ctx context.Context, inv *domain.Invoice, replaceItems bool) error {
	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			numbers, err := s.repo.NumbersForPrefix(ctx, tx, domain.DatePrefix(inv.IssueDate, inv.Kind), inv.ID)
			if err != nil {
				return err
			}
			inv.DocumentNumber = domain.NextDocumentNumber(inv.IssueDate, inv.Kind, numbers)
			if err := s.repo.Update(ctx, tx, inv); err != nil {
				return err
			}
			if replaceItems {
				return s.repo.ReplaceItems(ctx, tx, inv.ID, inv.Items)
			}
			return nil
		})
		if err == nil {
			s.log.Info("document renumbered",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("document_number", inv.DocumentNumber),
			)
			s.recordEvent(ctx, inv.ID, domain.EventRenumbered, map[string]any{
				"document_number": inv.DocumentNumber,
			})
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		lastErr = err
		metrics.Sweep().IncNumberConflict()
	}
	s.log.Error("document renumbering exhausted retries", zap.Error(lastErr))
	return domain.ErrNumberConflict
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	out := *inv
	out.Status = out.EffectiveStatus(s.clock.Now())
	return out, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	pageSize := req.Page.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, req.ListFilter, pagination.Pagination{
		PageToken: req.Page.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(inv *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	now := s.clock.Now()
	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out := *item
		out.Status = out.EffectiveStatus(now)
		invoices = append(invoices, out)
	}

	resp := domain.ListResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkSent(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, domain.EventSent, func(inv *domain.Invoice, now time.Time) error {
		if inv.Status != domain.StatusDraft && inv.Status != domain.StatusSent {
			return domain.ErrInvalidStatus
		}
		if inv.SentAt == nil {
			inv.SentAt = &now
		}
		inv.Status = domain.StatusSent
		return nil
	})
}

func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, domain.EventPaid, func(inv *domain.Invoice, now time.Time) error {
		if inv.Kind != domain.KindInvoice {
			return domain.ErrInvalidStatus
		}
		if inv.Status != domain.StatusDraft && inv.Status != domain.StatusSent {
			return domain.ErrInvalidStatus
		}
		inv.Status = domain.StatusPaid
		inv.PaidAt = &now
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, domain.EventCancelled, func(inv *domain.Invoice, now time.Time) error {
		if inv.Status == domain.StatusPaid || inv.Status == domain.StatusCancelled {
			return domain.ErrInvalidStatus
		}
		inv.Status = domain.StatusCancelled
		inv.CancelledAt = &now
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id string, event string, apply func(*domain.Invoice, time.Time) error) (domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if inv.Trashed() {
		return domain.Invoice{}, domain.ErrTrashed
	}

	now := s.clock.Now()
	if err := apply(inv, now); err != nil {
		return domain.Invoice{}, err
	}
	inv.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, inv); err != nil {
		return domain.Invoice{}, err
	}
	s.recordEvent(ctx, inv.ID, event, nil)
	return *inv, nil
}

// ConvertQuote creates a fresh invoice from a quote. The invoice joins the
// invoice sequence of its own issue date; the quote keeps its number and
// stays untouched.
func (s *Service) ConvertQuote(ctx context.Context, id string) (domain.Invoice, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if quote.Trashed() {
		return domain.Invoice{}, domain.ErrTrashed
	}
	if quote.Kind != domain.KindQuote {
		return domain.Invoice{}, domain.ErrNotQuote
	}

	now := s.clock.Now()
	issueDate := clock.Today(s.clock)
	inv := domain.Invoice{
		ID:               s.genID.Generate(),
		Kind:             domain.KindInvoice,
		ClientID:         quote.ClientID,
		ClientName:       quote.ClientName,
		ClientEmail:      quote.ClientEmail,
		ClientAddress:    quote.ClientAddress,
		IssueDate:        issueDate,
		DueDate:          issueDate.AddDate(0, 0, quote.PaymentTermsDays),
		PaymentTermsDays: quote.PaymentTermsDays,
		Currency:         quote.Currency,
		TaxEnabled:       quote.TaxEnabled,
		TaxRate:          quote.TaxRate,
		TaxName:          quote.TaxName,
		Status:           domain.StatusDraft,
		Notes:            quote.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	inv.Items = make([]domain.InvoiceItem, 0, len(quote.Items))
	for _, item := range quote.Items {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   inv.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitType:    item.UnitType,
			CreatedAt:   now,
		})
	}
	inv.ComputeTotals()

	if err := s.insertNumbered(ctx, &inv); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("quote converted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("document_number", inv.DocumentNumber),
	)
	s.recordEvent(ctx, inv.ID, domain.EventConverted, map[string]any{
		"quote_id":     quote.ID.String(),
		"quote_number": quote.DocumentNumber,
	})
	return inv, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if inv.Trashed() {
		return domain.ErrTrashed
	}
	now := s.clock.Now()
	if err := s.repo.SetTrashed(ctx, s.db, inv.ID, &now, now); err != nil {
		return err
	}
	s.recordEvent(ctx, inv.ID, domain.EventTrashed, nil)
	return nil
}

func (s *Service) Restore(ctx context.Context, id string) error {
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !inv.Trashed() {
		return domain.ErrNotTrashed
	}
	if err := s.repo.SetTrashed(ctx, s.db, inv.ID, nil, s.clock.Now()); err != nil {
		return err
	}
	s.recordEvent(ctx, inv.ID, domain.EventRestored, nil)
	return nil
}

func (s *Service) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	purged, err := s.repo.PurgeTrashedBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.log.Info("purged trashed documents", zap.Int64("count", purged))
	}
	return int(purged), nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Invoice, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	inv, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func buildItems(genID *snowflake.Node, inputs []domain.ItemInput, now time.Time) ([]domain.InvoiceItem, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrNoItems
	}
	items := make([]domain.InvoiceItem, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.Description) == "" {
			return nil, domain.ErrNoItems
		}
		if input.Quantity.IsNegative() || input.Quantity.IsZero() {
			return nil, domain.ErrInvalidQuantity
		}
		items = append(items, domain.InvoiceItem{
			ID:          genID.Generate(),
			Position:    i + 1,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			UnitType:    input.UnitType,
			CreatedAt:   now,
		})
	}
	return items, nil
}
