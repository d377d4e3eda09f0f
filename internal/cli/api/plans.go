package api

import (
	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// GeneratePlan asks the server to draft a content plan for a brand
func GeneratePlan(req PlanRequest) ([]Entry, error) {
	logger.Debug("Generating plan", "brand_id", req.BrandID, "from", req.From, "to", req.To)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/plans")

	var out entriesResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}
