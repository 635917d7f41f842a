package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"jobmail-intel/internal/config"
	"jobmail-intel/internal/fetcher"
	"jobmail-intel/internal/metrics"
	"jobmail-intel/internal/model"
	"jobmail-intel/internal/pipeline"
)

// EmailStore is the scheduler's view of the email store
type EmailStore interface {
	Upsert(ctx context.Context, email *model.Email) error
}

// Processor runs the pipeline for one email
type Processor interface {
	ProcessEmail(ctx context.Context, emailID string) (*pipeline.ProcessResult, error)
}

// Scheduler periodically syncs the mailbox and pipes new emails through the
// processing pipeline
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	fetcher   fetcher.EmailFetcher
	emails    EmailStore
	processor Processor
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, f fetcher.EmailFetcher, emails EmailStore, processor Processor, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		config:    cfg,
		fetcher:   f,
		emails:    emails,
		processor: processor,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.syncMailbox)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// syncMailbox is the periodic job: fetch new mail, store it, and process
// each message. Per-email failures are logged and do not stop the cycle.
func (s *Scheduler) syncMailbox() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	cycleID := uuid.NewString()
	startTime := time.Now()
	logrus.Infof("Starting mailbox sync cycle %s", cycleID)

	emails, err := s.fetcher.FetchNewEmails(s.ctx)
	if err != nil {
		logrus.Errorf("Mailbox sync %s: failed to fetch emails: %v", cycleID, err)
		return
	}

	logrus.Infof("Mailbox sync %s: fetched %d new emails", cycleID, len(emails))

	for i := range emails {
		select {
		case <-s.ctx.Done():
			logrus.Warnf("Mailbox sync %s cancelled", cycleID)
			return
		default:
		}

		email := emails[i]
		if err := s.emails.Upsert(s.ctx, &email); err != nil {
			logrus.Errorf("Mailbox sync %s: failed to store email %s: %v", cycleID, email.ID, err)
			continue
		}

		if _, err := s.processor.ProcessEmail(s.ctx, email.ID); err != nil {
			logrus.Errorf("Mailbox sync %s: failed to process email %s: %v", cycleID, email.ID, err)
		}
	}

	s.metrics.MailboxSyncCycles.Inc()
	logrus.Infof("Mailbox sync cycle %s completed in %v", cycleID, time.Since(startTime))
}

// RunOnce runs the mailbox sync once (for manual triggering)
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running mailbox sync once")
	s.syncMailbox()
	return nil
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// Wait waits for any in-flight sync cycle to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
