package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/tokens"
)

type entryBody struct {
	Entry models.CalendarEntry `json:"entry"`
}

type entriesBody struct {
	Entries []models.CalendarEntry `json:"entries"`
	Count   int                    `json:"count"`
}

func (s *HandlersSuite) createEntry(body map[string]interface{}) models.CalendarEntry {
	w := s.do(http.MethodPost, "/api/v1/calendar", s.user.ID, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created entryBody
	s.decode(w, &created)
	return created.Entry
}

func (s *HandlersSuite) TestCreateEntry() {
	entry := s.createEntry(map[string]interface{}{
		"platforms": []string{"Twitter", "twitter", "linkedin"},
		"title":     " Launch ",
		"content":   "We are live",
	})
	s.Equal(models.EntryStatusDraft, entry.Status)
	s.Equal(models.EntrySourceManual, entry.Source)
	s.Equal(string(platforms.KindText), entry.Kind)
	s.Equal([]string{"twitter", "linkedin"}, entry.Platforms)
	s.Equal("Launch", entry.Title)
	s.Nil(entry.ScheduledAt)

	w := s.do(http.MethodGet, "/api/v1/calendar/"+entry.ID, s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/calendar/"+entry.ID, s.other.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersSuite) TestCreateEntryRejectsUnsupportedContent() {
	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name:  "instagram text",
			body:  map[string]interface{}{"platforms": []string{"instagram"}, "content": "hello"},
			field: "platforms",
		},
		{
			name:  "tweet too long",
			body:  map[string]interface{}{"platforms": []string{"twitter"}, "content": strings.Repeat("a", platforms.MaxTweetLength+1)},
			field: "platforms",
		},
		{
			name:  "empty text",
			body:  map[string]interface{}{"platforms": []string{"facebook"}, "content": "   "},
			field: "content",
		},
		{
			name:  "unknown platform",
			body:  map[string]interface{}{"platforms": []string{"myspace"}, "content": "hello"},
			field: "platforms[0]",
		},
		{
			name:  "unknown kind",
			body:  map[string]interface{}{"platforms": []string{"facebook"}, "content": "hello", "kind": "carousel"},
			field: "kind",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.do(http.MethodPost, "/api/v1/calendar", s.user.ID, tc.body)
			s.Require().Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
			var errBody errorBody
			s.decode(w, &errBody)
			s.Equal(tc.field, errBody.Field)
		})
	}
}

func (s *HandlersSuite) TestCreateEntryWithMediaAsset() {
	asset := s.uploadPNG("post.png")

	entry := s.createEntry(map[string]interface{}{
		"platforms":      []string{"instagram"},
		"content":        "fresh roast",
		"media_asset_id": asset.ID,
	})
	s.Equal(string(platforms.KindImage), entry.Kind)
	s.Require().NotNil(entry.MediaAssetID)
	s.Equal(asset.ID, *entry.MediaAssetID)

	w := s.do(http.MethodPost, "/api/v1/calendar", s.user.ID, map[string]interface{}{
		"platforms":      []string{"instagram"},
		"media_asset_id": asset.ID,
		"media_url":      "https://example.com/a.png",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	// another user's asset is invisible
	w = s.do(http.MethodPost, "/api/v1/calendar", s.other.ID, map[string]interface{}{
		"platforms":      []string{"instagram"},
		"media_asset_id": asset.ID,
	})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersSuite) TestListEntriesFilters() {
	day := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	s.createEntry(map[string]interface{}{"platforms": []string{"twitter"}, "content": "a", "scheduled_at": day})
	s.createEntry(map[string]interface{}{"platforms": []string{"facebook"}, "content": "b", "scheduled_at": day.Add(20 * time.Hour)})
	s.createEntry(map[string]interface{}{"platforms": []string{"facebook", "twitter"}, "content": "c", "scheduled_at": day.Add(72 * time.Hour)})

	list := func(query string) entriesBody {
		w := s.do(http.MethodGet, "/api/v1/calendar"+query, s.user.ID, nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var body entriesBody
		s.decode(w, &body)
		return body
	}

	s.Equal(3, list("").Count)
	s.Equal(2, list("?platform=twitter").Count)
	s.Equal(2, list("?from=2026-11-02&to=2026-11-03").Count)
	s.Equal(1, list("?from=2026-11-02&to=2026-11-02").Count)
	s.Equal(3, list("?status=draft,scheduled").Count)
	s.Equal(0, list("?status=published").Count)

	all := list("")
	s.Equal("a", all.Entries[0].Content)
	s.Equal("c", all.Entries[2].Content)

	w := s.do(http.MethodGet, "/api/v1/calendar?platform=myspace", s.user.ID, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersSuite) TestScheduleEntry() {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.handlers.now = func() time.Time { return now }

	entry := s.createEntry(map[string]interface{}{"platforms": []string{"linkedin"}, "content": "soon"})
	path := "/api/v1/calendar/" + entry.ID + "/schedule"

	w := s.do(http.MethodPost, path, s.user.ID, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code, "no time on the entry or in the body")

	w = s.do(http.MethodPost, path, s.user.ID, map[string]interface{}{"scheduled_at": now.Add(-time.Minute)})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, path, s.user.ID, map[string]interface{}{"scheduled_at": now.Add(time.Hour)})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body entryBody
	s.decode(w, &body)
	s.Equal(models.EntryStatusScheduled, body.Entry.Status)
	s.Require().NotNil(body.Entry.ScheduledAt)
	s.True(body.Entry.ScheduledAt.Equal(now.Add(time.Hour)))

	// editing without a time drops it back to draft
	w = s.do(http.MethodPut, "/api/v1/calendar/"+entry.ID, s.user.ID, map[string]interface{}{
		"platforms": []string{"linkedin"},
		"content":   "later",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &body)
	s.Equal(models.EntryStatusDraft, body.Entry.Status)
	s.Equal("later", body.Entry.Content)
}

func (s *HandlersSuite) TestPublishEntry() {
	entry := s.createEntry(map[string]interface{}{"platforms": []string{"twitter"}, "content": "ship it"})
	path := "/api/v1/calendar/" + entry.ID + "/publish"

	// nothing connected yet
	w := s.do(http.MethodPost, path, s.user.ID, nil)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	var body entryBody
	s.decode(w, &body)
	s.Equal(models.EntryStatusFailed, body.Entry.Status)
	s.Require().Len(body.Entry.Jobs, 1)
	s.Equal(models.JobStatusFailed, body.Entry.Jobs[0].Status)
	s.Contains(body.Entry.Jobs[0].LastError, "no connected twitter account")

	_, err := s.manager.ConnectOAuth2(context.Background(), s.user.ID, platforms.Twitter,
		tokens.TokenSet{AccessToken: "access"}, "42", "acme")
	s.Require().NoError(err)

	w = s.do(http.MethodPost, path, s.user.ID, nil)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	s.decode(w, &body)
	s.Equal(models.EntryStatusPublishing, body.Entry.Status)
	s.Require().Len(body.Entry.Jobs, 1)
	s.Equal(models.JobStatusPending, body.Entry.Jobs[0].Status)
	jobID := body.Entry.Jobs[0].ID

	// publishing or published entries are locked
	w = s.do(http.MethodPut, "/api/v1/calendar/"+entry.ID, s.user.ID, map[string]interface{}{
		"platforms": []string{"twitter"},
		"content":   "edited",
	})
	s.Equal(http.StatusConflict, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/calendar/"+entry.ID, s.user.ID, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/jobs?entry_id="+entry.ID, s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var jobs struct {
		Count int `json:"count"`
	}
	s.decode(w, &jobs)
	s.Equal(1, jobs.Count)

	// a pending job is not retryable
	w = s.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/retry", s.user.ID, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/calendar/"+entry.ID+"/cancel", s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &body)
	s.Equal(models.EntryStatusCanceled, body.Entry.Status)

	w = s.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/retry", s.other.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/retry", s.user.ID, nil)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	var retried struct {
		Job models.PublishJob `json:"job"`
	}
	s.decode(w, &retried)
	s.Equal(models.JobStatusPending, retried.Job.Status)
	s.Equal(0, retried.Job.Attempts)

	w = s.do(http.MethodGet, "/api/v1/calendar/"+entry.ID, s.user.ID, nil)
	s.decode(w, &body)
	s.Equal(models.EntryStatusPublishing, body.Entry.Status)
}

func (s *HandlersSuite) TestCancelDraftAndDelete() {
	entry := s.createEntry(map[string]interface{}{"platforms": []string{"facebook"}, "content": "maybe"})

	w := s.do(http.MethodPost, "/api/v1/calendar/"+entry.ID+"/cancel", s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body entryBody
	s.decode(w, &body)
	s.Equal(models.EntryStatusCanceled, body.Entry.Status)

	w = s.do(http.MethodDelete, "/api/v1/calendar/"+entry.ID, s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/calendar/"+entry.ID, s.user.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/api/v1/calendar/"+entry.ID+"/publish", s.user.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}
