package scheduler

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
	"github.com/smallfirm/fakturo/internal/config"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	invoicerepository "github.com/smallfirm/fakturo/internal/invoice/repository"
	invoiceservice "github.com/smallfirm/fakturo/internal/invoice/service"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	profilerepository "github.com/smallfirm/fakturo/internal/profile/repository"
	profileservice "github.com/smallfirm/fakturo/internal/profile/service"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
	recurringrepository "github.com/smallfirm/fakturo/internal/recurring/repository"
	recurringservice "github.com/smallfirm/fakturo/internal/recurring/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	sched     *Scheduler
	invoices  invoicedomain.Service
	recurring recurringdomain.Service
	clock     *clock.FakeClock
	db        *gorm.DB
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	return newFixtureOps(t, cfg, config.DefaultOperationalConfig())
}

func newFixtureOps(t *testing.T, cfg Config, ops config.OperationalConfig) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.DocumentEvent{},
		&clientdomain.Client{},
		&profiledomain.BusinessProfile{},
		&recurringdomain.Schedule{},
		&recurringdomain.ScheduleItem{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, time.June, 23, 6, 0, 0, 0, time.UTC))
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
	recurringSvc := recurringservice.New(recurringservice.Params{
		DB: db, Log: log, GenID: node, Clock: fc,
		Repo:     recurringrepository.Provide(),
		Invoices: invoiceSvc,
	})

	sched, err := New(Params{
		Log:          log,
		GenID:        node,
		Clock:        fc,
		InvoiceSvc:   invoiceSvc,
		RecurringSvc: recurringSvc,
		OpsConfig:    config.StaticOperationalConfig(ops),
		Config:       cfg,
	})
	require.NoError(t, err)

	return &fixture{
		sched:     sched,
		invoices:  invoiceSvc,
		recurring: recurringSvc,
		clock:     fc,
		db:        db,
	}
}

func monthlySchedule(t *testing.T, f *fixture, name string, anchorDay int) recurringdomain.Schedule {
	t.Helper()
	s, err := f.recurring.Create(context.Background(), recurringdomain.CreateScheduleRequest{
		Name:        name,
		Frequency:   recurringdomain.FreqMonthly,
		ScheduleDay: anchorDay,
		Items: []recurringdomain.ScheduleItemInput{{
			Description: "Retainer",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(500),
		}},
	})
	require.NoError(t, err)
	return s
}

func TestRunOnceGeneratesDueInvoices(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	s := monthlySchedule(t, f, "retainer", 23)
	require.NoError(t, f.sched.RunOnce(ctx))

	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, "20250623-1", resp.Invoices[0].DocumentNumber)

	got, err := f.recurring.GetByID(ctx, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 23, 0, 0, 0, 0, time.UTC), got.NextInvoiceDate)

	// a second sweep on the same day is a no-op
	require.NoError(t, f.sched.RunOnce(ctx))
	resp, err = f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)

	// the next anchor day fires again
	f.clock.SetDate(2025, time.July, 23)
	require.NoError(t, f.sched.RunOnce(ctx))
	resp, err = f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)
}

func TestRunOncePurgesExpiredTrash(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	inv, err := f.invoices.Create(ctx, invoicedomain.CreateRequest{
		Items: []invoicedomain.ItemInput{{
			Description: "One-off",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
		}},
	})
	require.NoError(t, err)
	require.NoError(t, f.invoices.Trash(ctx, inv.ID.String()))

	// still inside the retention window
	require.NoError(t, f.sched.RunOnce(ctx))
	_, err = f.invoices.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)

	f.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, f.sched.RunOnce(ctx))
	_, err = f.invoices.GetByID(ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestRunOnceHonorsEnabledJobs(t *testing.T) {
	f := newFixture(t, Config{EnabledJobs: []string{"purge_trash"}})
	ctx := context.Background()

	monthlySchedule(t, f, "retainer", 23)
	require.NoError(t, f.sched.RunOnce(ctx))

	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
}

func TestRunOnceIsolatesBrokenSchedules(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	broken := monthlySchedule(t, f, "broken", 23)
	monthlySchedule(t, f, "healthy", 23)

	// strip the template so generation fails for one schedule
	require.NoError(t, f.db.Exec(
		"DELETE FROM recurring_schedule_items WHERE schedule_id = ?", broken.ID,
	).Error)

	err := f.sched.RunOnce(ctx)
	assert.Error(t, err)

	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)
}

func TestRunOnceHonorsSweepBatchSize(t *testing.T) {
	ops := config.DefaultOperationalConfig()
	ops.SweepBatchSize = 1
	f := newFixtureOps(t, Config{}, ops)
	ctx := context.Background()

	monthlySchedule(t, f, "hosting", 23)
	monthlySchedule(t, f, "backups", 23)

	require.NoError(t, f.sched.RunOnce(ctx))
	resp, err := f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)

	// the leftover schedule is picked up by the next sweep
	require.NoError(t, f.sched.RunOnce(ctx))
	resp, err = f.invoices.List(ctx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)
}

func TestRunIntervalFollowsOperationalConfig(t *testing.T) {
	ops := config.DefaultOperationalConfig()
	ops.SweepIntervalHours = 6
	f := newFixtureOps(t, Config{RunInterval: time.Minute}, ops)

	assert.Equal(t, 6*time.Hour, f.sched.runInterval())

	// without an operational value the static config is the fallback
	f = newFixtureOps(t, Config{RunInterval: time.Minute}, config.OperationalConfig{
		TrashRetentionDays: 30,
	})
	assert.Equal(t, time.Minute, f.sched.runInterval())
}

func TestProvideConfigSeedsRunInterval(t *testing.T) {
	ops := config.DefaultOperationalConfig()
	ops.SweepIntervalHours = 12

	cfg := ProvideConfig(config.StaticOperationalConfig(ops))
	assert.Equal(t, 12*time.Hour, cfg.RunInterval)
	assert.Equal(t, DefaultConfig().JobTimeout, cfg.JobTimeout)
}
