package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
)

func (s *HandlersSuite) TestGeneratePlan() {
	brand := s.createBrand("Acme Coffee")
	monday := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	s.planner.entries = []planner.PlannedEntry{
		{Platform: platforms.Twitter, Date: monday, Title: "Kickoff", Content: "Week one"},
		{Platform: platforms.LinkedIn, Date: monday.AddDate(0, 0, 2), Content: "Behind the roast"},
	}

	w := s.do(http.MethodPost, "/api/v1/plans", s.user.ID, map[string]interface{}{
		"brand_id":       brand.ID,
		"from":           "2026-11-02",
		"to":             "2026-11-08",
		"platforms":      []string{"twitter", "LinkedIn"},
		"posts_per_week": 2,
		"theme":          "winter blends",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var body entriesBody
	s.decode(w, &body)
	s.Equal(2, body.Count)
	for _, e := range body.Entries {
		s.Equal(models.EntrySourcePlan, e.Source)
		s.Equal(models.EntryStatusDraft, e.Status)
		s.Require().NotNil(e.BrandProfileID)
		s.Equal(brand.ID, *e.BrandProfileID)
	}

	s.Require().NotNil(s.planner.brand)
	s.Equal(brand.ID, s.planner.brand.ID)
	s.Equal([]platforms.Platform{platforms.Twitter, platforms.LinkedIn}, s.planner.req.Platforms)
	s.Equal(2, s.planner.req.PostsPerWeek)
	s.True(s.planner.req.From.Equal(monday))

	w = s.do(http.MethodGet, "/api/v1/calendar?from=2026-11-02&to=2026-11-08", s.user.ID, nil)
	s.decode(w, &body)
	s.Equal(2, body.Count)
	s.Equal("Week one", body.Entries[0].Content)
}

func (s *HandlersSuite) TestGeneratePlanErrors() {
	brand := s.createBrand("Acme Coffee")
	req := map[string]interface{}{
		"brand_id":  brand.ID,
		"from":      "2026-11-02",
		"to":        "2026-11-08",
		"platforms": []string{"twitter"},
	}

	w := s.do(http.MethodPost, "/api/v1/plans", s.other.ID, req)
	s.Equal(http.StatusNotFound, w.Code)

	s.planner.err = planner.ErrBadCompletion
	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, req)
	s.Equal(http.StatusBadGateway, w.Code)

	s.planner.err = planner.ErrInvalidRequest
	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, req)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.planner.err = nil

	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, map[string]interface{}{
		"brand_id":  brand.ID,
		"from":      "2026-11-02",
		"to":        "2026-11-08",
		"platforms": []string{"tiktok"},
	})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	var errBody errorBody
	s.decode(w, &errBody)
	s.Equal("platforms[0]", errBody.Field)

	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, map[string]interface{}{
		"brand_id":  brand.ID,
		"from":      "next week",
		"to":        "2026-11-08",
		"platforms": []string{"twitter"},
	})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.decode(w, &errBody)
	s.Equal("from", errBody.Field)

	s.handlers.planner = nil
	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, req)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersSuite) TestGeneratePlanSkipsUnpublishableDrafts() {
	brand := s.createBrand("Acme Coffee")
	monday := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	w := s.do(http.MethodPost, "/api/v1/plans", s.user.ID, map[string]interface{}{
		"brand_id":  brand.ID,
		"from":      "2026-11-02",
		"to":        "2026-11-08",
		"platforms": []string{"instagram", "twitter"},
	})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	var errBody errorBody
	s.decode(w, &errBody)
	s.Equal("platforms", errBody.Field)

	s.planner.entries = []planner.PlannedEntry{
		{Platform: platforms.Instagram, Date: monday, Content: "just text"},
		{Platform: platforms.Twitter, Date: monday, Content: strings.Repeat("a", 400)},
		{Platform: platforms.Twitter, Date: monday, Content: "short and sweet"},
	}
	w = s.do(http.MethodPost, "/api/v1/plans", s.user.ID, map[string]interface{}{
		"brand_id":  brand.ID,
		"from":      "2026-11-02",
		"to":        "2026-11-08",
		"platforms": []string{"twitter"},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var body entriesBody
	s.decode(w, &body)
	s.Require().Equal(1, body.Count)
	s.Equal("short and sweet", body.Entries[0].Content)

	var stored int64
	s.Require().NoError(database.DB.Model(&models.CalendarEntry{}).Where("user_id = ?", s.user.ID).Count(&stored).Error)
	s.Equal(int64(1), stored)
}
