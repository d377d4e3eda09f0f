package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func jobs(statuses ...string) []PublishJob {
	out := make([]PublishJob, len(statuses))
	for i, s := range statuses {
		out[i] = PublishJob{Status: s}
	}
	return out
}

func TestAggregateEntryStatus(t *testing.T) {
	tests := []struct {
		name     string
		jobs     []PublishJob
		expected string
	}{
		{"no jobs yet", nil, EntryStatusPublishing},
		{"all published", jobs(JobStatusPublished, JobStatusPublished), EntryStatusPublished},
		{"one still running", jobs(JobStatusPublished, JobStatusRunning), EntryStatusPublishing},
		{"retrying counts as in flight", jobs(JobStatusFailed, JobStatusRetrying), EntryStatusPublishing},
		{"partial failure", jobs(JobStatusPublished, JobStatusFailed), EntryStatusPartiallyPublished},
		{"published plus canceled", jobs(JobStatusPublished, JobStatusCanceled), EntryStatusPartiallyPublished},
		{"all failed", jobs(JobStatusFailed, JobStatusFailed), EntryStatusFailed},
		{"failed and canceled", jobs(JobStatusFailed, JobStatusCanceled), EntryStatusFailed},
		{"all canceled", jobs(JobStatusCanceled), EntryStatusCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AggregateEntryStatus(tt.jobs))
		})
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	soon := now.Add(2 * time.Minute)
	later := now.Add(time.Hour)

	assert.False(t, (&SocialAccount{}).TokenExpired(now, 5*time.Minute), "no expiry never expires")
	assert.True(t, (&SocialAccount{TokenExpiresAt: &soon}).TokenExpired(now, 5*time.Minute))
	assert.False(t, (&SocialAccount{TokenExpiresAt: &later}).TokenExpired(now, 5*time.Minute))
}

func TestEntryEditable(t *testing.T) {
	assert.True(t, (&CalendarEntry{Status: EntryStatusDraft}).Editable())
	assert.True(t, (&CalendarEntry{Status: EntryStatusFailed}).Editable())
	assert.False(t, (&CalendarEntry{Status: EntryStatusPublishing}).Editable())
	assert.False(t, (&CalendarEntry{Status: EntryStatusPartiallyPublished}).Editable())
}

func TestBrandSummary(t *testing.T) {
	b := BrandProfile{Name: "Acme", Tone: "playful", Hashtags: []string{"#acme", "#rockets"}}
	s := b.Summary()
	assert.Contains(t, s, "Brand: Acme")
	assert.Contains(t, s, "Tone of voice: playful")
	assert.Contains(t, s, "#acme #rockets")
	assert.NotContains(t, s, "Industry")
}

func TestMediaAssetKind(t *testing.T) {
	assert.Equal(t, "video", (&MediaAsset{ContentType: "video/mp4"}).Kind())
	assert.Equal(t, "image", (&MediaAsset{ContentType: "image/png"}).Kind())
}
