package publish

import (
	"context"
	"time"

	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"go.uber.org/zap"
)

// Event types pushed to connected clients
const (
	EventJobUpdated   = "publish.job_updated"
	EventEntryUpdated = "calendar.entry_updated"
)

// Notifier is told about publish progress
type Notifier interface {
	JobUpdated(job *models.PublishJob)
	EntryFinished(entry *models.CalendarEntry, jobs []models.PublishJob)
}

// UserPusher delivers a realtime event to every connection of a user
type UserPusher interface {
	SendToUser(userID, eventType string, payload interface{})
}

// FailureMailer emails the owner about jobs that failed for good
type FailureMailer interface {
	SendPublishFailureEmail(ctx context.Context, toEmail, name, entryTitle string, failures []Failure) error
}

// Failure is one platform that could not be published
type Failure struct {
	Platform string
	Error    string
}

// EventNotifier pushes job and entry events over websockets and emails on
// terminal failure. Either side may be nil.
type EventNotifier struct {
	pusher UserPusher
	mailer FailureMailer
}

// NewEventNotifier creates a notifier
func NewEventNotifier(pusher UserPusher, mailer FailureMailer) *EventNotifier {
	return &EventNotifier{pusher: pusher, mailer: mailer}
}

// JobUpdated pushes the new job state to the owner
func (n *EventNotifier) JobUpdated(job *models.PublishJob) {
	if n.pusher == nil {
		return
	}
	n.pusher.SendToUser(job.UserID, EventJobUpdated, map[string]interface{}{
		"job_id":          job.ID,
		"entry_id":        job.EntryID,
		"platform":        job.Platform,
		"status":          job.Status,
		"attempts":        job.Attempts,
		"next_attempt_at": job.NextAttemptAt,
		"last_error":      job.LastError,
		"remote_url":      job.RemoteURL,
	})
}

// EntryFinished pushes the final entry state and emails about failures
func (n *EventNotifier) EntryFinished(entry *models.CalendarEntry, jobs []models.PublishJob) {
	if n.pusher != nil {
		n.pusher.SendToUser(entry.UserID, EventEntryUpdated, map[string]interface{}{
			"entry_id": entry.ID,
			"status":   entry.Status,
		})
	}

	if n.mailer == nil {
		return
	}
	var failures []Failure
	for _, j := range jobs {
		if j.Status == models.JobStatusFailed {
			failures = append(failures, Failure{Platform: j.Platform, Error: j.LastError})
		}
	}
	if len(failures) == 0 {
		return
	}

	var user models.User
	if err := database.DB.Select("id", "email", "display_name", "notify_on_failure").First(&user, "id = ?", entry.UserID).Error; err != nil {
		logger.Log.Warn("Failed to load user for failure email", logger.WithUserID(entry.UserID), zap.Error(err))
		return
	}
	if !user.NotifyOnFailure {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		title := entry.Title
		if title == "" {
			title = "Untitled post"
		}
		if err := n.mailer.SendPublishFailureEmail(ctx, user.Email, user.DisplayName, title, failures); err != nil {
			logger.Log.Warn("Failed to send publish failure email",
				logger.WithUserID(entry.UserID),
				logger.WithEntryID(entry.ID),
				zap.Error(err),
			)
		}
	}()
}

type noopNotifier struct{}

func (noopNotifier) JobUpdated(*models.PublishJob)                           {}
func (noopNotifier) EntryFinished(*models.CalendarEntry, []models.PublishJob) {}
