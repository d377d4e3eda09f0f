// Package publish is the durable publish pipeline. Every (calendar entry,
// platform) pair is a PublishJob row; workers claim jobs with a conditional
// update, publish through the platform adapters behind per-platform rate
// limiters and circuit breakers, and record the outcome. Retryable failures
// are rescheduled with exponential backoff, and the entry's status is
// derived from its jobs so one platform failing never hides another
// platform's success.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/telemetry"
	"github.com/zfogg/brandcast/internal/tokens"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotClaimed    = errors.New("job is not claimable")
	ErrJobNotFound   = errors.New("publish job not found")
	ErrEntryNotFound = errors.New("calendar entry not found")
	ErrNotFailed     = errors.New("only failed or canceled jobs can be retried")
	ErrNoAccount     = errors.New("no connected account for platform")
	ErrEntryBusy     = errors.New("entry is already publishing")
	ErrNotTargeted   = errors.New("entry no longer targets this platform")
)

const maxErrorLength = 1000

// Accounts resolves and authorizes the account a job publishes as
type Accounts interface {
	DefaultAccount(ctx context.Context, userID string, platform platforms.Platform) (*models.SocialAccount, error)
	Ensure(ctx context.Context, account *models.SocialAccount) (string, error)
	Invalidate(ctx context.Context, account *models.SocialAccount) error
}

// MediaStore reads back uploaded media
type MediaStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Dispatcher hands claimable jobs to workers
type Dispatcher interface {
	Submit(jobID string) error
}

// Options tunes the service
type Options struct {
	MaxAttempts int
	Backoff     BackoffPolicy
	Guards      GuardConfig
}

// Service runs publish jobs
type Service struct {
	registry *platforms.Registry
	accounts Accounts
	media    MediaStore
	guards   *Guards
	backoff  BackoffPolicy

	maxAttempts int
	notifier    atomic.Pointer[notifierRef]
	dispatcher  Dispatcher
	now         func() time.Time
}

// NewService creates the publish service
func NewService(registry *platforms.Registry, accounts Accounts, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Backoff.Initial <= 0 {
		opts.Backoff = DefaultBackoff
	}
	s := &Service{
		registry:    registry,
		accounts:    accounts,
		guards:      NewGuards(opts.Guards),
		backoff:     opts.Backoff,
		maxAttempts: opts.MaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
	s.SetNotifier(nil)
	return s
}

// notifierRef lets a Notifier of any concrete type sit behind one atomic pointer
type notifierRef struct {
	Notifier
}

// SetMediaStore sets where uploaded media is read from
func (s *Service) SetMediaStore(media MediaStore) {
	s.media = media
}

// SetNotifier sets the progress notifier
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier.Store(&notifierRef{n})
}

func (s *Service) notify() Notifier {
	return s.notifier.Load().Notifier
}

// SetDispatcher sets the queue that runs jobs right after they are enqueued.
// Without one, jobs wait for the scheduler.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// Guards exposes the per-platform guards
func (s *Service) Guards() *Guards {
	return s.guards
}

// Enqueue creates a job for each platform the entry targets that does not
// have one yet. Failed and canceled jobs are reset; published, running and
// queued jobs are left alone, so enqueueing twice never double posts.
func (s *Service) Enqueue(ctx context.Context, entryID string) ([]models.PublishJob, error) {
	now := s.now()

	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	// resolve accounts before opening the transaction
	targets := make([]platforms.Platform, 0, len(entry.Platforms))
	accountIDs := make(map[platforms.Platform]*string, len(entry.Platforms))
	for _, name := range entry.Platforms {
		platform, err := platforms.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", platforms.ErrInvalidContent, err)
		}
		if _, seen := accountIDs[platform]; seen {
			continue
		}
		acct, err := s.accounts.DefaultAccount(ctx, entry.UserID, platform)
		switch {
		case err == nil:
			accountIDs[platform] = &acct.ID
		case errors.Is(err, tokens.ErrAccountNotFound):
			accountIDs[platform] = nil
		default:
			return nil, err
		}
		targets = append(targets, platform)
	}

	var (
		runnable []string
		changed  bool
	)
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.PublishJob
		if err := tx.Where("entry_id = ?", entry.ID).Find(&existing).Error; err != nil {
			return err
		}
		wanted := make(map[string]bool, len(targets))
		for _, platform := range targets {
			wanted[string(platform)] = true
		}
		byPlatform := make(map[string]*models.PublishJob, len(existing))
		for i := range existing {
			job := &existing[i]
			// jobs for platforms edited out of the entry go away unless they already ran
			if !wanted[job.Platform] && job.Status != models.JobStatusPublished && job.Status != models.JobStatusRunning {
				if err := tx.Delete(&models.PublishJob{}, "id = ?", job.ID).Error; err != nil {
					return err
				}
				changed = true
				continue
			}
			byPlatform[job.Platform] = job
		}

		for _, platform := range targets {
			job, ok := byPlatform[string(platform)]
			if ok && job.Status != models.JobStatusFailed && job.Status != models.JobStatusCanceled {
				if job.Status == models.JobStatusPending || job.Status == models.JobStatusRetrying {
					runnable = append(runnable, job.ID)
				}
				continue
			}
			if !ok {
				job = &models.PublishJob{EntryID: entry.ID, UserID: entry.UserID, Platform: string(platform)}
			}

			job.Attempts = 0
			job.MaxAttempts = s.maxAttempts
			job.LockedAt = nil
			job.AccountID = accountIDs[platform]
			if job.AccountID != nil {
				job.Status = models.JobStatusPending
				job.NextAttemptAt = &now
				job.LastError = ""
			} else {
				job.Status = models.JobStatusFailed
				job.NextAttemptAt = nil
				job.LastError = fmt.Sprintf("no connected %s account", platform)
			}

			var err error
			if ok {
				err = tx.Save(job).Error
			} else {
				err = tx.Create(job).Error
			}
			if err != nil {
				return err
			}
			changed = true
			if job.Status == models.JobStatusPending {
				runnable = append(runnable, job.ID)
			}
		}

		if !changed && len(runnable) == 0 {
			return nil
		}
		return tx.Model(&entry).Updates(map[string]interface{}{
			"status":     models.EntryStatusPublishing,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Entry enqueued for publishing",
		logger.WithEntryID(entry.ID),
		logger.WithUserID(entry.UserID),
		zap.Strings("platforms", entry.Platforms),
		zap.Int("runnable", len(runnable)),
	)

	jobs, err := s.refreshEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	s.dispatch(runnable)
	return jobs, nil
}

func (s *Service) dispatch(jobIDs []string) {
	if s.dispatcher == nil {
		return
	}
	for _, id := range jobIDs {
		if err := s.dispatcher.Submit(id); err != nil {
			// the scheduler picks it up on its next pass
			logger.Log.Debug("Deferred job dispatch", logger.WithJobID(id), zap.Error(err))
		}
	}
}

// claim moves a due pending/retrying job to running. Exactly one caller wins.
func (s *Service) claim(ctx context.Context, jobID string, now time.Time) (*models.PublishJob, error) {
	res := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("id = ? AND status IN ?", jobID, []string{models.JobStatusPending, models.JobStatusRetrying}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Updates(map[string]interface{}{
			"status":     models.JobStatusRunning,
			"attempts":   gorm.Expr("attempts + 1"),
			"locked_at":  now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, ErrNotClaimed
	}

	var job models.PublishJob
	if err := database.DB.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Process claims and runs one job. It returns nil once the outcome is
// recorded, whatever it was; errors mean the job could not be run at all.
func (s *Service) Process(ctx context.Context, jobID string) error {
	job, err := s.claim(ctx, jobID, s.now())
	if err != nil {
		return err
	}
	s.notify().JobUpdated(job)

	platform := platforms.Platform(job.Platform)
	log := logger.Log.With(
		logger.WithJobID(job.ID),
		logger.WithEntryID(job.EntryID),
		logger.WithPlatform(job.Platform),
		zap.Int("attempt", job.Attempts),
	)

	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).Preload("MediaAsset").First(&entry, "id = ?", job.EntryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.finish(ctx, job, models.JobStatusCanceled, "calendar entry was deleted", nil)
		}
		return s.release(ctx, job, err)
	}

	publisher, err := s.registry.Get(platform)
	if err != nil {
		return s.finish(ctx, job, models.JobStatusFailed, err.Error(), nil)
	}

	if job.AccountID == nil {
		return s.finish(ctx, job, models.JobStatusFailed, fmt.Sprintf("no connected %s account", platform), nil)
	}
	var account models.SocialAccount
	if err := database.DB.WithContext(ctx).First(&account, "id = ?", *job.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.finish(ctx, job, models.JobStatusFailed, "account was disconnected", nil)
		}
		return s.release(ctx, job, err)
	}

	token, err := s.accounts.Ensure(ctx, &account)
	if err != nil {
		if errors.Is(err, tokens.ErrReauthRequired) {
			return s.finish(ctx, job, models.JobStatusFailed, fmt.Sprintf("%s account needs to be reconnected", platform), nil)
		}
		return s.retry(ctx, job, err, 0, true)
	}

	content, err := s.buildContent(ctx, &entry, platform)
	if err != nil {
		if platforms.IsRetryable(err) {
			return s.retry(ctx, job, err, 0, true)
		}
		return s.finish(ctx, job, models.JobStatusFailed, err.Error(), nil)
	}

	if err := s.guards.Wait(ctx, platform); err != nil {
		return s.release(ctx, job, err)
	}

	spanCtx, span := telemetry.GetBusinessEvents().TracePublish(ctx, telemetry.PublishAttrs{
		JobID:    job.ID,
		EntryID:  job.EntryID,
		Platform: job.Platform,
		Kind:     string(content.Kind),
		Attempt:  job.Attempts,
	})
	start := time.Now()
	result, err := s.guards.Execute(platform, func() (*platforms.Result, error) {
		return publisher.Publish(spanCtx, platforms.Account{
			Platform:    platform,
			ExternalID:  account.ExternalID,
			AccessToken: token,
		}, content)
	})
	telemetry.EndSpan(span, err)
	metrics.Get().PublishDuration.WithLabelValues(job.Platform).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		log.Info("Published", zap.String("remote_id", result.RemoteID))
		if err := database.DB.WithContext(ctx).Model(&models.SocialAccount{}).Where("id = ?", account.ID).Update("last_used_at", s.now()).Error; err != nil {
			log.Warn("Failed to record account use", zap.Error(err))
		}
		return s.finish(ctx, job, models.JobStatusPublished, "", result)

	case errors.Is(err, ErrBreakerOpen):
		log.Warn("Platform circuit open, deferring job")
		return s.retry(ctx, job, err, s.guards.OpenFor(), false)

	case errors.Is(err, platforms.ErrTokenInvalid):
		log.Warn("Platform rejected token", zap.Error(err))
		if ierr := s.accounts.Invalidate(ctx, &account); ierr != nil {
			log.Error("Failed to invalidate account", zap.Error(ierr))
		}
		return s.finish(ctx, job, models.JobStatusFailed, err.Error(), nil)

	case platforms.IsRetryable(err):
		log.Warn("Publish failed, will retry", zap.Error(err))
		return s.retry(ctx, job, err, platforms.RetryAfter(err), true)

	default:
		log.Warn("Publish failed permanently", zap.Error(err))
		return s.finish(ctx, job, models.JobStatusFailed, err.Error(), nil)
	}
}

// buildContent turns an entry into platform content, reading uploaded media back
func (s *Service) buildContent(ctx context.Context, entry *models.CalendarEntry, platform platforms.Platform) (platforms.Content, error) {
	kind, err := platforms.ParseContentKind(entry.Kind)
	if err != nil {
		return platforms.Content{}, fmt.Errorf("%w: %v", platforms.ErrInvalidContent, err)
	}
	content := platforms.Content{
		Kind:  kind,
		Text:  entry.Content,
		Title: entry.Title,
		Link:  entry.LinkURL,
	}

	if kind == platforms.KindImage || kind == platforms.KindVideo {
		switch {
		case entry.MediaAsset != nil:
			file := &platforms.LocalFile{
				Name:        entry.MediaAsset.OriginalFilename,
				ContentType: entry.MediaAsset.ContentType,
				PublicURL:   entry.MediaAsset.URL,
			}
			// Instagram pulls media itself from the public URL
			if s.media != nil && platform != platforms.Instagram {
				data, err := s.media.Download(ctx, entry.MediaAsset.StorageKey)
				if err != nil {
					return platforms.Content{}, &platforms.PlatformError{
						Platform:   platform,
						StatusCode: 503,
						Message:    "failed to read media from storage: " + err.Error(),
					}
				}
				file.Data = data
			}
			content.Media = &platforms.MediaSource{File: file}
		case entry.MediaURL != "":
			content.Media = &platforms.MediaSource{URL: entry.MediaURL}
		}
	}
	return content, content.Validate()
}

// finish records a terminal outcome
func (s *Service) finish(ctx context.Context, job *models.PublishJob, status, lastError string, result *platforms.Result) error {
	now := s.now()
	updates := map[string]interface{}{
		"status":          status,
		"locked_at":       nil,
		"next_attempt_at": nil,
		"last_error":      truncate(lastError),
		"updated_at":      now,
	}
	if result != nil {
		updates["remote_post_id"] = result.RemoteID
		updates["remote_url"] = result.URL
		updates["published_at"] = now
	}
	if err := s.transition(ctx, job, updates); err != nil {
		return err
	}

	job.Status = status
	job.LastError = truncate(lastError)
	job.LockedAt = nil
	job.NextAttemptAt = nil
	if result != nil {
		job.RemotePostID = result.RemoteID
		job.RemoteURL = result.URL
		job.PublishedAt = &now
	}
	metrics.Get().PublishJobsTotal.WithLabelValues(job.Platform, status).Inc()
	s.notify().JobUpdated(job)

	_, err := s.refreshEntry(ctx, job.EntryID)
	return err
}

// retry reschedules the job, or fails it once attempts are used up.
// consume=false gives the attempt back (the call never reached the platform).
func (s *Service) retry(ctx context.Context, job *models.PublishJob, cause error, minDelay time.Duration, consume bool) error {
	attempts := job.Attempts
	if !consume {
		attempts--
	} else if attempts >= job.MaxAttempts {
		msg := fmt.Sprintf("gave up after %d attempts: %v", attempts, cause)
		return s.finish(ctx, job, models.JobStatusFailed, msg, nil)
	}

	delay := s.backoff.retryDelay(max(attempts, 1), minDelay)
	next := s.now().Add(delay)
	updates := map[string]interface{}{
		"status":          models.JobStatusRetrying,
		"attempts":        attempts,
		"locked_at":       nil,
		"next_attempt_at": next,
		"last_error":      truncate(cause.Error()),
		"updated_at":      s.now(),
	}
	if err := s.transition(ctx, job, updates); err != nil {
		return err
	}

	job.Status = models.JobStatusRetrying
	job.Attempts = attempts
	job.NextAttemptAt = &next
	job.LockedAt = nil
	job.LastError = truncate(cause.Error())
	outcome := "retrying"
	if !consume {
		outcome = "deferred"
	}
	metrics.Get().PublishJobsTotal.WithLabelValues(job.Platform, outcome).Inc()
	s.notify().JobUpdated(job)
	return nil
}

// release returns a claimed job untouched after an infrastructure error
func (s *Service) release(ctx context.Context, job *models.PublishJob, cause error) error {
	// the caller's context may be the reason we are here
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	now := s.now()
	err := s.transition(relCtx, job, map[string]interface{}{
		"status":          models.JobStatusRetrying,
		"attempts":        job.Attempts - 1,
		"locked_at":       nil,
		"next_attempt_at": now,
		"updated_at":      now,
	})
	if err != nil {
		logger.ErrorWithFields("Failed to release publish job", err)
	}
	return fmt.Errorf("job %s released: %w", job.ID, cause)
}

// transition applies updates only while we still hold the job
func (s *Service) transition(ctx context.Context, job *models.PublishJob, updates map[string]interface{}) error {
	res := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("id = ? AND status = ?", job.ID, models.JobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Log.Warn("Lost job lease before recording outcome",
			logger.WithJobID(job.ID),
			zap.Any("updates", updates["status"]),
		)
		return ErrNotClaimed
	}
	return nil
}

// refreshEntry recomputes the entry status from its jobs
func (s *Service) refreshEntry(ctx context.Context, entryID string) ([]models.PublishJob, error) {
	var jobs []models.PublishJob
	if err := database.DB.WithContext(ctx).Where("entry_id = ?", entryID).Order("platform").Find(&jobs).Error; err != nil {
		return nil, err
	}

	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jobs, nil
		}
		return nil, err
	}

	jobs = targetedJobs(&entry, jobs)
	status := models.AggregateEntryStatus(jobs)
	if status == entry.Status {
		return jobs, nil
	}

	updates := map[string]interface{}{"status": status, "updated_at": s.now()}
	if status == models.EntryStatusPublished || status == models.EntryStatusPartiallyPublished {
		var latest *time.Time
		for _, j := range jobs {
			if j.PublishedAt != nil && (latest == nil || j.PublishedAt.After(*latest)) {
				latest = j.PublishedAt
			}
		}
		updates["published_at"] = latest
	}
	if err := database.DB.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update entry status: %w", err)
	}
	entry.Status = status

	if status != models.EntryStatusPublishing {
		logger.Log.Info("Entry publishing finished",
			logger.WithEntryID(entry.ID),
			zap.String("status", status),
		)
		s.notify().EntryFinished(&entry, jobs)
	}
	return jobs, nil
}

// targetedJobs keeps jobs for platforms the entry still targets, plus any
// that already published.
func targetedJobs(entry *models.CalendarEntry, jobs []models.PublishJob) []models.PublishJob {
	wanted := make(map[string]bool, len(entry.Platforms))
	for _, name := range entry.Platforms {
		if p, err := platforms.ParsePlatform(name); err == nil {
			wanted[string(p)] = true
		}
	}
	kept := jobs[:0:0]
	for _, j := range jobs {
		if wanted[j.Platform] || j.Status == models.JobStatusPublished {
			kept = append(kept, j)
		}
	}
	return kept
}

// Retry puts a failed or canceled job back in the queue with fresh attempts
func (s *Service) Retry(ctx context.Context, userID, jobID string) (*models.PublishJob, error) {
	var job models.PublishJob
	if err := database.DB.WithContext(ctx).First(&job, "id = ? AND user_id = ?", jobID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.Status != models.JobStatusFailed && job.Status != models.JobStatusCanceled {
		return nil, ErrNotFailed
	}

	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).First(&entry, "id = ?", job.EntryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if len(targetedJobs(&entry, []models.PublishJob{job})) == 0 {
		return nil, ErrNotTargeted
	}

	// the account may have been reconnected since
	acct, err := s.accounts.DefaultAccount(ctx, userID, platforms.Platform(job.Platform))
	if err != nil {
		if errors.Is(err, tokens.ErrAccountNotFound) {
			return nil, ErrNoAccount
		}
		return nil, err
	}

	now := s.now()
	res := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("id = ? AND status = ?", job.ID, job.Status).
		Updates(map[string]interface{}{
			"status":          models.JobStatusPending,
			"attempts":        0,
			"max_attempts":    s.maxAttempts,
			"account_id":      acct.ID,
			"last_error":      "",
			"next_attempt_at": now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFailed
	}

	if err := database.DB.WithContext(ctx).First(&job, "id = ?", job.ID).Error; err != nil {
		return nil, err
	}
	if _, err := s.refreshEntry(ctx, job.EntryID); err != nil {
		return nil, err
	}
	s.notify().JobUpdated(&job)
	s.dispatch([]string{job.ID})
	return &job, nil
}

// CancelEntry cancels jobs that have not started. Running jobs finish; a
// draft or scheduled entry is simply marked canceled.
func (s *Service) CancelEntry(ctx context.Context, userID, entryID string) (*models.CalendarEntry, error) {
	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).First(&entry, "id = ? AND user_id = ?", entryID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	now := s.now()
	err := database.DB.WithContext(ctx).Model(&models.PublishJob{}).
		Where("entry_id = ? AND status IN ?", entry.ID, []string{models.JobStatusPending, models.JobStatusRetrying}).
		Updates(map[string]interface{}{
			"status":          models.JobStatusCanceled,
			"next_attempt_at": nil,
			"updated_at":      now,
		}).Error
	if err != nil {
		return nil, err
	}

	var jobCount int64
	if err := database.DB.WithContext(ctx).Model(&models.PublishJob{}).Where("entry_id = ?", entry.ID).Count(&jobCount).Error; err != nil {
		return nil, err
	}
	if jobCount == 0 {
		if err := database.DB.WithContext(ctx).Model(&entry).Updates(map[string]interface{}{
			"status":     models.EntryStatusCanceled,
			"updated_at": now,
		}).Error; err != nil {
			return nil, err
		}
	} else if _, err := s.refreshEntry(ctx, entry.ID); err != nil {
		return nil, err
	}

	if err := database.DB.WithContext(ctx).Preload("Jobs").First(&entry, "id = ?", entry.ID).Error; err != nil {
		return nil, err
	}
	logger.Log.Info("Entry canceled", logger.WithEntryID(entry.ID), zap.String("status", entry.Status))
	return &entry, nil
}

// truncate caps s at maxErrorLength bytes without splitting a rune
func truncate(s string) string {
	if len(s) <= maxErrorLength {
		return s
	}
	cut := maxErrorLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
