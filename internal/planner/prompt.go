package planner

import (
	"fmt"
	"strings"

	"github.com/zfogg/brandcast/internal/models"
)

const systemPrompt = `You are a social media strategist. You plan posts for a brand and answer only with JSON of the form {"entries":[{"platform":"...","date":"YYYY-MM-DD","title":"...","content":"..."}]}. The content field is the exact post text, written for the platform it targets.`

var platformNotes = map[string]string{
	"facebook":  "conversational, up to a few short paragraphs",
	"instagram": "caption style with hashtags at the end",
	"twitter":   "under 280 characters",
	"linkedin":  "professional tone, may run longer",
}

func buildPrompt(brand *models.BrandProfile, req PlanRequest) string {
	var sb strings.Builder
	if brand != nil {
		sb.WriteString(brand.Summary())
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Plan posts from %s to %s inclusive, about %d posts per week per platform.\n",
		req.From.Format("2006-01-02"), req.To.Format("2006-01-02"), req.PostsPerWeek)

	sb.WriteString("Platforms:\n")
	for _, p := range req.Platforms {
		fmt.Fprintf(&sb, "- %s (%s)\n", p, platformNotes[string(p)])
	}
	if theme := strings.TrimSpace(req.Theme); theme != "" {
		fmt.Fprintf(&sb, "Campaign theme: %s\n", theme)
	}
	sb.WriteString("Spread the posts across the period and do not repeat the same text on two platforms.")
	return sb.String()
}
