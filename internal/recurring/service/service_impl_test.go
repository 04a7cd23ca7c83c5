package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallfirm/fakturo/internal/client/domain"
	clientrepository "github.com/smallfirm/fakturo/internal/client/repository"
	clientservice "github.com/smallfirm/fakturo/internal/client/service"
	"github.com/smallfirm/fakturo/internal/clock"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	invoicerepository "github.com/smallfirm/fakturo/internal/invoice/repository"
	invoiceservice "github.com/smallfirm/fakturo/internal/invoice/service"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	profilerepository "github.com/smallfirm/fakturo/internal/profile/repository"
	profileservice "github.com/smallfirm/fakturo/internal/profile/service"
	"github.com/smallfirm/fakturo/internal/recurring/domain"
	"github.com/smallfirm/fakturo/internal/recurring/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc      domain.Service
	invoices invoicedomain.Service
	clock    *clock.FakeClock
	db       *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.DocumentEvent{},
		&clientdomain.Client{},
		&profiledomain.BusinessProfile{},
		&domain.Schedule{},
		&domain.ScheduleItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, time.June, 23, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	profileSvc := profileservice.New(profileservice.Params{
		DB: db, Log: log, GenID: node, Clock: fc,
		Repo: profilerepository.Provide(),
	})
	clientSvc := clientservice.New(clientservice.Params{
		DB: db, Log: log, GenID: node, Clock: fc,
		Repo: clientrepository.Provide(),
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Clock: fc,
		Repo:    invoicerepository.Provide(),
		Clients: clientSvc,
		Profile: profileSvc,
	})
	recurringSvc := New(Params{
		DB: db, Log: log, GenID: node, Clock: fc,
		Repo:     repository.Provide(),
		Invoices: invoiceSvc,
	})

	return &fixture{
		svc:      recurringSvc,
		invoices: invoiceSvc,
		clock:    fc,
		db:       db,
	}
}

func monthlyRequest(name string, anchorDay int) domain.CreateScheduleRequest {
	return domain.CreateScheduleRequest{
		Name:        name,
		Frequency:   domain.FreqMonthly,
		ScheduleDay: anchorDay,
		Items: []domain.ScheduleItemInput{{
			Description: "Hosting",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(49),
			UnitType:    "month",
		}},
	}
}

func TestCreateSetsFirstFireDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// today is 2025-06-23, so an anchor on the 23rd fires today
	s, err := f.svc.Create(ctx, monthlyRequest("hosting", 23))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC), s.NextInvoiceDate)

	later, err := f.svc.Create(ctx, monthlyRequest("backups", 1))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), later.NextInvoiceDate)
}

func TestGenerateDueAdvancesAndCreatesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Create(ctx, monthlyRequest("hosting", 23))
	require.NoError(t, err)

	report, err := f.svc.GenerateDue(ctx, f.clock.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 0, report.Failed)

	got, err := f.svc.GetByID(ctx, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 23, 0, 0, 0, 0, time.UTC), got.NextInvoiceDate)
	assert.NotNil(t, got.LastRunAt)

	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, "20250623-1", resp.Invoices[0].DocumentNumber)
	assert.Equal(t, "49.00", resp.Invoices[0].Total.StringFixed(2))

	// the same day never fires twice
	report, err = f.svc.GenerateDue(ctx, f.clock.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generated)
}

func TestGenerateDueSkipsMissedOccurrences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, monthlyRequest("hosting", 23))
	require.NoError(t, err)

	// three missed months produce exactly one catch-up invoice
	f.clock.SetDate(2025, time.September, 25)
	report, err := f.svc.GenerateDue(ctx, f.clock.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)

	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, "20250925-1", resp.Invoices[0].DocumentNumber)
}

func TestGenerateDueIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken, err := f.svc.Create(ctx, monthlyRequest("broken", 23))
	require.NoError(t, err)
	healthy, err := f.svc.Create(ctx, monthlyRequest("healthy", 23))
	require.NoError(t, err)

	// strip the template so generation fails for the first schedule
	require.NoError(t, f.db.Exec(
		"DELETE FROM recurring_schedule_items WHERE schedule_id = ?", broken.ID,
	).Error)

	report, err := f.svc.GenerateDue(ctx, f.clock.Now(), 0)
	assert.Error(t, err)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 1, report.Failed)

	// both schedules advanced, including the broken one
	next := time.Date(2025, time.July, 23, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{broken.ID.String(), healthy.ID.String()} {
		got, err := f.svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, next, got.NextInvoiceDate)
	}
}

func TestGenerateDueHonorsBatchSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, monthlyRequest("hosting", 23))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, monthlyRequest("backups", 23))
	require.NoError(t, err)

	report, err := f.svc.GenerateDue(ctx, f.clock.Now(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)

	// the oldest schedule fired, the second stays due for the next sweep
	got, err := f.svc.GetByID(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 23, 0, 0, 0, 0, time.UTC), got.NextInvoiceDate)

	got, err = f.svc.GetByID(ctx, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC), got.NextInvoiceDate)

	report, err = f.svc.GenerateDue(ctx, f.clock.Now(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)
}

func TestTriggerNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Create(ctx, monthlyRequest("hosting", 1))
	require.NoError(t, err)

	inv, err := f.svc.TriggerNow(ctx, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "20250623-1", inv.DocumentNumber)
	assert.Equal(t, invoicedomain.StatusDraft, inv.Status)

	got, err := f.svc.GetByID(ctx, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), got.NextInvoiceDate)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Create(ctx, monthlyRequest("hosting", 23))
	require.NoError(t, err)

	_, err = f.svc.Pause(ctx, s.ID.String())
	require.NoError(t, err)

	report, err := f.svc.GenerateDue(ctx, f.clock.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generated)

	_, err = f.svc.TriggerNow(ctx, s.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotActive)

	// resuming after the date passed realigns instead of catching up
	f.clock.SetDate(2025, time.August, 1)
	resumed, err := f.svc.Resume(ctx, s.ID.String())
	require.NoError(t, err)
	assert.True(t, resumed.Active)
	assert.Equal(t, time.Date(2025, time.August, 23, 0, 0, 0, 0, time.UTC), resumed.NextInvoiceDate)
}

func TestCreateValidatesCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := monthlyRequest("bad", 0)
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidDay)

	req = monthlyRequest("bad", 1)
	req.Frequency = "fortnightly"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidFrequency)

	req = monthlyRequest("no items", 1)
	req.Items = nil
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrNoItems)
}
