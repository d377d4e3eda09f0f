// Package planner asks an OpenAI-compatible completion service for a
// content plan and turns the answer into calendar-ready entries.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/brandcast/internal/config"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/telemetry"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
)

// MaxPlanDays bounds how far a single plan may reach
const MaxPlanDays = 92

var (
	ErrNotConfigured  = errors.New("content planner is not configured")
	ErrInvalidRequest = errors.New("invalid plan request")
	ErrBadCompletion  = errors.New("completion service returned an unusable plan")
)

// PlanRequest describes the plan to generate
type PlanRequest struct {
	From         time.Time
	To           time.Time
	Platforms    []platforms.Platform
	PostsPerWeek int
	Theme        string
}

// PlannedEntry is one suggested post
type PlannedEntry struct {
	Platform platforms.Platform `json:"platform"`
	Date     time.Time          `json:"date"`
	Title    string             `json:"title"`
	Content  string             `json:"content"`
}

// Planner generates content plans
type Planner struct {
	client *resty.Client
	model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type rawPlan struct {
	Entries []struct {
		Platform string `json:"platform"`
		Date     string `json:"date"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	} `json:"entries"`
}

// New creates a planner for the configured completion service
func New(cfg config.LLMConfig) *Planner {
	httpClient := telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName: "llm",
		Timeout:     cfg.Timeout,
	})

	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Planner{client: client, model: cfg.Model}
}

// Configured reports whether the planner has somewhere to send requests
func (p *Planner) Configured() bool {
	return p != nil && p.client.BaseURL != ""
}

// Validate normalizes the request and checks it is plannable
func (r *PlanRequest) Validate() error {
	r.From = dayStart(r.From)
	r.To = dayStart(r.To)
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidRequest)
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("%w: to is before from", ErrInvalidRequest)
	}
	if r.days() > MaxPlanDays {
		return fmt.Errorf("%w: plans cover at most %d days", ErrInvalidRequest, MaxPlanDays)
	}
	if len(r.Platforms) == 0 {
		return fmt.Errorf("%w: at least one platform is required", ErrInvalidRequest)
	}
	for _, pl := range r.Platforms {
		if pl == platforms.Instagram {
			return fmt.Errorf("%w: instagram posts need media and plans only draft text", ErrInvalidRequest)
		}
	}
	if r.PostsPerWeek <= 0 {
		r.PostsPerWeek = 3
	}
	if r.PostsPerWeek > 21 {
		r.PostsPerWeek = 21
	}
	return nil
}

func (r *PlanRequest) days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// Generate asks the completion service for a plan. Entries for platforms
// outside the request, or dated outside [From, To], are dropped.
func (p *Planner) Generate(ctx context.Context, brand *models.BrandProfile, req PlanRequest) ([]PlannedEntry, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	brandID := ""
	if brand != nil {
		brandID = brand.ID
	}
	ctx, span := telemetry.GetBusinessEvents().TracePlanGeneration(ctx, brandID, len(req.Platforms), req.days())
	entries, err := p.generate(ctx, brand, req)
	telemetry.EndSpan(span, err)
	return entries, err
}

func (p *Planner) generate(ctx context.Context, brand *models.BrandProfile, req PlanRequest) ([]PlannedEntry, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(brand, req)},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var result chatResponse
	var apiErr chatError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("completion service error (%d): %s", resp.StatusCode(), msg)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrBadCompletion)
	}

	entries, dropped, err := parsePlan(result.Choices[0].Message.Content, req)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logger.Log.Info("Dropped unusable plan entries", zap.Int("dropped", dropped), zap.Int("kept", len(entries)))
	}
	return entries, nil
}

// parsePlan decodes the model output and keeps only entries that fit the
// request.
func parsePlan(content string, req PlanRequest) ([]PlannedEntry, int, error) {
	var plan rawPlan
	if err := json.Unmarshal([]byte(stripFences(content)), &plan); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadCompletion, err)
	}

	wanted := make(map[platforms.Platform]bool, len(req.Platforms))
	for _, pl := range req.Platforms {
		wanted[pl] = true
	}

	entries := make([]PlannedEntry, 0, len(plan.Entries))
	dropped := 0
	for _, e := range plan.Entries {
		pl, err := platforms.ParsePlatform(e.Platform)
		if err != nil || !wanted[pl] {
			dropped++
			continue
		}
		date, err := util.ParseTime(e.Date)
		if err != nil {
			dropped++
			continue
		}
		day := dayStart(date)
		if day.Before(req.From) || day.After(req.To) {
			dropped++
			continue
		}
		text := strings.TrimSpace(e.Content)
		if !Publishable(pl, text) {
			dropped++
			continue
		}
		entries = append(entries, PlannedEntry{
			Platform: pl,
			Date:     date,
			Title:    strings.TrimSpace(e.Title),
			Content:  text,
		})
	}
	return entries, dropped, nil
}

// Publishable reports whether a drafted text post could go out on p as is
func Publishable(p platforms.Platform, text string) bool {
	content := platforms.Content{Kind: platforms.KindText, Text: text}
	return content.Validate() == nil && platforms.CheckSupported(p, content) == nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func dayStart(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
