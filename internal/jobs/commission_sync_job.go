package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/notify"
	"github.com/straye-as/commission-api/internal/service"
	"go.uber.org/zap"
)

// CommissionSyncJobName is the name of the daily customer and commission sync job
const CommissionSyncJobName = "commission_sync"

// Syncer runs one customer sync
type Syncer interface {
	RunSync(ctx context.Context) (*domain.SyncResult, error)
}

// CommissionSyncJob runs the customer sync on a schedule and mails the
// configured recipients when it fails or finishes with per-job errors.
type CommissionSyncJob struct {
	syncer   Syncer
	notifier notify.Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

// NewCommissionSyncJob creates a new sync job.
// The timeout bounds a whole run including the feed fetch.
func NewCommissionSyncJob(syncer Syncer, notifier notify.Notifier, logger *zap.Logger, timeout time.Duration) *CommissionSyncJob {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &CommissionSyncJob{
		syncer:   syncer,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes the sync. This is called by the scheduler.
func (j *CommissionSyncJob) Run() {
	_, _ = j.RunWithContext(context.Background())
}

// RunWithContext executes the sync under the job timeout and sends notifications.
func (j *CommissionSyncJob) RunWithContext(ctx context.Context) (*domain.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.syncer.RunSync(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			j.logger.Info("commission sync skipped, another run is in progress")
			return nil, err
		}

		j.logger.Error("commission sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		if nErr := j.notifier.NotifySyncFailure(ctx, err); nErr != nil {
			j.logger.Warn("failed to send sync failure notification", zap.Error(nErr))
		}
		return nil, err
	}

	if result.Partial() {
		j.logger.Warn("commission sync completed with errors",
			zap.Int("customers_processed", result.CustomersProcessed),
			zap.Int("errors", len(result.Errors)))
		if nErr := j.notifier.NotifySyncErrors(ctx, result); nErr != nil {
			j.logger.Warn("failed to send sync error notification", zap.Error(nErr))
		}
	}

	return result, nil
}

// RegisterCommissionSyncJob registers the sync job with the scheduler.
// If runOnStartup is true a run is also started in a background goroutine
// so it doesn't block API startup.
func RegisterCommissionSyncJob(scheduler *Scheduler, job *CommissionSyncJob, cronExpr string, runOnStartup bool) error {
	if err := scheduler.AddJob(CommissionSyncJobName, cronExpr, job.Run); err != nil {
		return err
	}

	if runOnStartup {
		go job.Run()
	}

	return nil
}
