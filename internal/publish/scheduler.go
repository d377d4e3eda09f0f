package publish

import (
	"context"
	"time"

	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/models"
	"go.uber.org/zap"
)

// SchedulerConfig tunes the scheduler loop
type SchedulerConfig struct {
	Interval     time.Duration
	LeaseTimeout time.Duration
	BatchSize    int
}

// Scheduler periodically turns due calendar entries into jobs, feeds due
// jobs to the queue and recovers jobs whose worker died mid-run.
type Scheduler struct {
	service    *Service
	dispatcher Dispatcher
	cfg        SchedulerConfig
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler
func NewScheduler(service *Service, dispatcher Dispatcher, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service:    service,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start begins the periodic scan
func (s *Scheduler) Start() {
	logger.Log.Info("Starting publish scheduler",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("lease_timeout", s.cfg.LeaseTimeout),
	)
	go s.run()
}

// Stop stops the scheduler and waits for the current pass
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	// run immediately on startup
	s.Tick(s.ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// Tick runs one scheduling pass
func (s *Scheduler) Tick(ctx context.Context) {
	if database.DB == nil {
		return
	}
	recovered := s.recoverLeases(ctx)
	entries := s.enqueueDue(ctx)
	dispatched := s.dispatchDue(ctx)

	if recovered+entries+dispatched > 0 {
		logger.Log.Info("Publish scheduler pass",
			zap.Int("leases_recovered", recovered),
			zap.Int("entries_enqueued", entries),
			zap.Int("jobs_dispatched", dispatched),
		)
	}
}

// enqueueDue starts publishing scheduled entries whose time has come
func (s *Scheduler) enqueueDue(ctx context.Context) int {
	var ids []string
	err := database.DB.WithContext(ctx).Model(&models.CalendarEntry{}).
		Where("status = ? AND scheduled_at <= ?", models.EntryStatusScheduled, s.now()).
		Order("scheduled_at").
		Limit(s.cfg.BatchSize).
		Pluck("id", &ids).Error
	if err != nil {
		logger.ErrorWithFields("Failed to query due entries", err)
		return 0
	}

	count := 0
	for _, id := range ids {
		if _, err := s.service.Enqueue(ctx, id); err != nil {
			logger.Log.Error("Failed to enqueue scheduled entry", logger.WithEntryID(id), zap.Error(err))
			continue
		}
		count++
	}
	return count
}

// dispatchDue hands runnable jobs to the queue
func (s *Scheduler) dispatchDue(ctx context.Context) int {
	if s.dispatcher == nil {
		return 0
	}
	var ids []string
	err := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("status IN ?", []string{models.JobStatusPending, models.JobStatusRetrying}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", s.now()).
		Order("next_attempt_at").
		Limit(s.cfg.BatchSize).
		Pluck("id", &ids).Error
	if err != nil {
		logger.ErrorWithFields("Failed to query due jobs", err)
		return 0
	}

	count := 0
	for _, id := range ids {
		if err := s.dispatcher.Submit(id); err != nil {
			logger.Log.Debug("Queue busy, leaving jobs for next pass", zap.Error(err))
			break
		}
		count++
	}
	return count
}

// recoverLeases puts running jobs that outlived their lease back in line.
// The attempt they used is kept, so a job that keeps crashing its worker
// still runs out of attempts.
func (s *Scheduler) recoverLeases(ctx context.Context) int {
	now := s.now()
	res := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("status = ? AND locked_at < ?", models.JobStatusRunning, now.Add(-s.cfg.LeaseTimeout)).
		Updates(map[string]interface{}{
			"status":          models.JobStatusRetrying,
			"locked_at":       nil,
			"next_attempt_at": now,
			"last_error":      "worker lease expired",
			"updated_at":      now,
		})
	if res.Error != nil {
		logger.ErrorWithFields("Failed to recover expired job leases", res.Error)
		return 0
	}
	if res.RowsAffected > 0 {
		metrics.Get().PublishLeasesRecovered.Add(float64(res.RowsAffected))
		logger.Log.Warn("Recovered publish jobs with expired leases", zap.Int64("count", res.RowsAffected))
	}
	return int(res.RowsAffected)
}
