package api

import (
	"strconv"

	"github.com/zfogg/brandcast/internal/cli/client"
)

// ListJobs returns publish jobs, most recently updated first
func ListJobs(filter JobFilter) ([]Job, error) {
	params := map[string]string{}
	if filter.Status != "" {
		params["status"] = filter.Status
	}
	if filter.EntryID != "" {
		params["entry_id"] = filter.EntryID
	}
	if filter.Limit > 0 {
		params["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		params["offset"] = strconv.Itoa(filter.Offset)
	}

	resp, err := client.GetClient().R().
		SetQueryParams(params).
		Get("/api/v1/jobs")

	var out jobsResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// RetryJob requeues a failed or canceled job
func RetryJob(id string) (*Job, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Post("/api/v1/jobs/{id}/retry")

	var out jobResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}
