// Package scheduler runs the periodic sweep: generating due recurring
// invoices and purging expired trash.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/config"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	obsmetrics "github.com/smallfirm/fakturo/internal/observability/metrics"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	InvoiceSvc   invoicedomain.Service
	RecurringSvc recurringdomain.Service
	OpsConfig    *config.OperationalConfigHolder
	Config       Config `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	genID        *snowflake.Node
	clock        clock.Clock
	invoiceSvc   invoicedomain.Service
	recurringSvc recurringdomain.Service
	opsConfig    *config.OperationalConfigHolder
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.InvoiceSvc == nil || p.RecurringSvc == nil || p.OpsConfig == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		genID:        p.GenID,
		clock:        p.Clock,
		invoiceSvc:   p.InvoiceSvc,
		recurringSvc: p.RecurringSvc,
		opsConfig:    p.OpsConfig,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(run)
	}
	sweepMetrics := obsmetrics.Sweep()
	sweepMetrics.IncJobRun(name)

	err := fn(ctx)
	sweepMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	sweepMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("sweep job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"recurring_invoices", s.RecurringInvoicesJob},
		{"purge_trash", s.PurgeTrashJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		timer := time.NewTimer(s.runInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runInterval re-reads the operational config each cycle so an interval
// change takes effect on the next sweep without a restart.
func (s *Scheduler) runInterval() time.Duration {
	if hours := s.opsConfig.Get().SweepIntervalHours; hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return s.cfg.RunInterval
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// RecurringInvoicesJob fires every due schedule once. Per-schedule failures
// count against the run but never abort it.
func (s *Scheduler) RecurringInvoicesJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "recurring_invoices")
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	report, err := s.recurringSvc.GenerateDue(ctx, s.clock.Now(), s.opsConfig.Get().SweepBatchSize)
	run.AddProcessed(report.Generated)
	sweepMetrics := obsmetrics.Sweep()
	for i := 0; i < report.Generated; i++ {
		sweepMetrics.IncTriggerSucceeded()
	}
	for i := 0; i < report.Failed; i++ {
		sweepMetrics.IncTriggerFailed()
		run.IncError()
	}
	return err
}

// PurgeTrashJob deletes documents whose trash retention has lapsed. The
// retention window comes from the hot-reloadable operational config.
func (s *Scheduler) PurgeTrashJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "purge_trash")
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	retentionDays := s.opsConfig.Get().TrashRetentionDays
	cutoff := clock.Today(s.clock).AddDate(0, 0, -retentionDays)

	purged, err := s.invoiceSvc.PurgeTrashedBefore(ctx, cutoff)
	if err != nil {
		run.IncError()
		return err
	}
	run.AddProcessed(purged)
	obsmetrics.Sweep().AddInvoicesPurged(purged)
	return nil
}
