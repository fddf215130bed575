package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/feed"
	"github.com/straye-as/commission-api/internal/logger"
	"github.com/straye-as/commission-api/internal/metrics"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrSyncInProgress is returned when a sync is started while another is running
var ErrSyncInProgress = fmt.Errorf("%w: a sync is already running", ErrConflict)

// UserFinder resolves free-text names from the CRM to users
type UserFinder interface {
	FindByName(ctx context.Context, name string) (*repository.NameMatch, error)
}

// CustomerUpserter writes synced customers keyed by name
type CustomerUpserter interface {
	UpsertByName(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

// DueRecomputer refreshes one due row
type DueRecomputer interface {
	RecomputeAndUpsertDue(ctx context.Context, userID, customerID int64, buildDate *time.Time) (int64, error)
}

// SyncService imports CRM jobs as customers and refreshes their commissions
type SyncService struct {
	feed        feed.JobFeed
	users       UserFinder
	customers   CustomerUpserter
	commissions DueRecomputer
	concurrency int
	running     atomic.Bool
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewSyncService(
	jobFeed feed.JobFeed,
	users UserFinder,
	customers CustomerUpserter,
	commissions DueRecomputer,
	concurrency int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		feed:        jobFeed,
		users:       users,
		customers:   customers,
		commissions: commissions,
		concurrency: concurrency,
		metrics:     m,
		logger:      logger,
	}
}

// syncErrors collects per-job errors from concurrent workers
type syncErrors struct {
	mu      sync.Mutex
	entries []indexedSyncError
}

type indexedSyncError struct {
	job int
	err domain.SyncError
}

func (e *syncErrors) add(job int, errs ...domain.SyncError) {
	if len(errs) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, se := range errs {
		e.entries = append(e.entries, indexedSyncError{job: job, err: se})
	}
}

// sorted returns the errors in feed order
func (e *syncErrors) sorted() []domain.SyncError {
	e.mu.Lock()
	defer e.mu.Unlock()
	sort.SliceStable(e.entries, func(i, j int) bool { return e.entries[i].job < e.entries[j].job })
	out := make([]domain.SyncError, len(e.entries))
	for i, entry := range e.entries {
		out[i] = entry.err
	}
	return out
}

// RunSync pulls every job from the feed and processes them independently.
// A feed failure aborts the run with a FeedError; anything that goes wrong
// for a single job is recorded in the result and the run carries on.
func (s *SyncService) RunSync(ctx context.Context) (*domain.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	s.logger.Info("Starting customer sync", zap.Int("concurrency", s.concurrency))

	jobs, err := s.feed.FetchJobs(ctx)
	if err != nil {
		s.metrics.ObserveSync(metrics.OutcomeFailed, 0, time.Since(start))
		s.logger.Error("Customer sync failed: job feed unavailable", zap.Error(err))
		return nil, &FeedError{Err: err}
	}

	var (
		processed atomic.Int64
		errs      syncErrors
		g         errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, group := range groupByCustomer(jobs) {
		g.Go(func() error {
			for _, i := range group {
				counted, jobErrs := s.processJob(ctx, jobs[i])
				if counted {
					processed.Add(1)
				}
				errs.add(i, jobErrs...)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.SyncResult{
		CustomersProcessed: int(processed.Load()),
		Errors:             errs.sorted(),
		StartedAt:          start,
		Duration:           time.Since(start),
	}

	outcome := metrics.OutcomeSuccess
	if result.Partial() {
		outcome = metrics.OutcomePartial
	}
	s.metrics.ObserveSync(outcome, result.CustomersProcessed, result.Duration)
	for _, se := range result.Errors {
		s.metrics.SyncError(string(se.Type), string(se.Role))
	}

	s.logger.Info("Customer sync completed",
		zap.Int("jobs", len(jobs)),
		zap.Int("customers_processed", result.CustomersProcessed),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// groupByCustomer buckets job indexes by customer name, keeping feed order
// inside each bucket. A bucket runs on one worker so the last job for a
// name is the one that sticks.
func groupByCustomer(jobs []feed.Job) [][]int {
	var groups [][]int
	byName := make(map[string]int, len(jobs))
	for i, job := range jobs {
		name := strings.TrimSpace(job.Name)
		if name == "" {
			groups = append(groups, []int{i})
			continue
		}
		g, ok := byName[name]
		if !ok {
			g = len(groups)
			byName[name] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// processJob upserts one job's customer and recomputes its commissions.
// counted reports whether the customer was written.
func (s *SyncService) processJob(ctx context.Context, job feed.Job) (counted bool, errs []domain.SyncError) {
	name := strings.TrimSpace(job.Name)
	log := logger.WithJob(s.logger, name)

	if name == "" {
		return false, []domain.SyncError{{Type: domain.SyncErrorJob, Message: "job has no name"}}
	}

	resolve := func(userName string, role domain.Role) *int64 {
		id, se := s.resolveUser(ctx, log, name, userName, role)
		if se != nil {
			errs = append(errs, *se)
		}
		return id
	}

	leadSource := domain.LeadSource(strings.TrimSpace(job.SourceName))

	customer := &domain.Customer{
		Name:              name,
		Address:           job.AddressLine1,
		Phone:             job.Phone,
		SalesmanID:        resolve(job.SalesRepName, domain.RoleSalesman),
		SupplementerID:    resolve(job.SupplementerName, domain.RoleSupplementer),
		Status:            job.StatusName,
		InitialScopePrice: job.InitialScopePrice.NullDecimal,
		TotalJobPrice:     job.FinalJobPrice.NullDecimal,
		LeadSource:        leadSource,
		BuildDate:         job.BuildDate(),
	}
	if leadSource == domain.LeadSourceAffiliate {
		customer.ReferrerID = resolve(job.AffiliateName, domain.RoleAffiliateMarketer)
	}

	stored, err := s.customers.UpsertByName(ctx, customer)
	if err != nil {
		log.Error("Failed to upsert customer", zap.Error(err))
		errs = append(errs, domain.SyncError{
			Type:    domain.SyncErrorJob,
			JobName: name,
			Message: fmt.Sprintf("failed to upsert customer: %v", err),
		})
		return false, errs
	}

	for _, a := range stored.Attributions() {
		if _, err := s.commissions.RecomputeAndUpsertDue(ctx, a.UserID, stored.ID, stored.BuildDate); err != nil {
			cErr := &ComputationError{JobName: name, Role: a.Role, UserID: a.UserID, CustomerID: stored.ID, Err: err}
			log.Error("Failed to recompute commission", zap.Error(cErr))

			userID, customerID := a.UserID, stored.ID
			errs = append(errs, domain.SyncError{
				Type:       domain.SyncErrorCommission,
				JobName:    name,
				Role:       a.Role,
				UserID:     &userID,
				CustomerID: &customerID,
				Message:    err.Error(),
			})
		}
	}

	return true, errs
}

// resolveUser maps a CRM name to a user id. Empty names resolve to nil
// without error. Ambiguous names take the lowest-id match.
func (s *SyncService) resolveUser(ctx context.Context, log *zap.Logger, jobName, userName string, role domain.Role) (*int64, *domain.SyncError) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, nil
	}

	match, err := s.users.FindByName(ctx, userName)
	if err != nil {
		msg := fmt.Sprintf("no user matches %s name %q", role, userName)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			msg = fmt.Sprintf("failed to look up %s %q: %v", role, userName, err)
		}
		log.Warn("Could not resolve user", zap.String("role", string(role)), zap.String("name", userName), zap.Error(err))
		return nil, &domain.SyncError{Type: domain.SyncErrorJob, JobName: jobName, Role: role, Message: msg}
	}

	if match.Ambiguous {
		log.Warn("Ambiguous user name, using first match",
			zap.String("role", string(role)),
			zap.String("name", userName),
			zap.Int64("user_id", match.User.ID),
		)
	}

	id := match.User.ID
	return &id, nil
}
