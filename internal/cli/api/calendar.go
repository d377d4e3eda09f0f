package api

import (
	"strconv"
	"time"

	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// ListEntries returns calendar entries ordered by scheduled time
func ListEntries(filter EntryFilter) ([]Entry, error) {
	params := map[string]string{}
	if filter.From != "" {
		params["from"] = filter.From
	}
	if filter.To != "" {
		params["to"] = filter.To
	}
	if filter.Platform != "" {
		params["platform"] = filter.Platform
	}
	if filter.Status != "" {
		params["status"] = filter.Status
	}
	if filter.Limit > 0 {
		params["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		params["offset"] = strconv.Itoa(filter.Offset)
	}

	resp, err := client.GetClient().R().
		SetQueryParams(params).
		Get("/api/v1/calendar")

	var out entriesResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetEntry returns one entry with its publish jobs
func GetEntry(id string) (*Entry, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Get("/api/v1/calendar/{id}")

	var out entryResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// CreateEntry adds a draft to the calendar
func CreateEntry(req EntryRequest) (*Entry, error) {
	logger.Debug("Creating entry", "platforms", req.Platforms, "kind", req.Kind)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/calendar")

	var out entryResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// DeleteEntry removes an entry that is not publishing
func DeleteEntry(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/calendar/{id}")
	return CheckResponse(resp, err)
}

// ScheduleEntry queues an entry for at. A nil at keeps the entry's own time.
func ScheduleEntry(id string, at *time.Time) (*Entry, error) {
	req := client.GetClient().R().SetPathParam("id", id)
	if at != nil {
		reqBody, err := json.Marshal(map[string]time.Time{"scheduled_at": at.UTC()})
		if err != nil {
			return nil, err
		}
		req.SetHeader("Content-Type", "application/json").SetBody(reqBody)
	}
	resp, err := req.Post("/api/v1/calendar/{id}/schedule")

	var out entryResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// PublishEntry publishes an entry now
func PublishEntry(id string) (*Entry, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Post("/api/v1/calendar/{id}/publish")

	var out entryResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// CancelEntry cancels pending publishes for an entry
func CancelEntry(id string) (*Entry, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Post("/api/v1/calendar/{id}/cancel")

	var out entryResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}
