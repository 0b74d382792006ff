package ats

import (
	"context"
	"net/http"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// Job statuses: open roles list as unlisted, closed ones archive
const (
	JobStatusUnlisted = "unlisted"
	JobStatusArchived = "archived"
)

// JobStatusFromOpen maps the HRIS open flag onto an ATS job status.
// nil means the flag is unknown and the status should be left alone
func JobStatusFromOpen(open *bool) string {
	if open == nil {
		return ""
	}
	if *open {
		return JobStatusUnlisted
	}
	return JobStatusArchived
}

// CreateJob creates a job posting and returns its id
func (c *Client) CreateJob(ctx context.Context, title, body, status string) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	if status == "" {
		status = JobStatusUnlisted
	}
	payload := map[string]any{"data": map[string]any{
		"type": "jobs",
		"attributes": map[string]any{
			"title":  title,
			"body":   body,
			"status": status,
		},
	}}
	doc, err := httpx.JSON[Document](ctx, c.http, http.MethodPost, "/jobs", nil, payload)
	if err != nil {
		return "", err
	}
	res, ok := doc.One()
	if !ok || res.ID == "" {
		return "", perr.Upstreamf("ats job create returned no id")
	}
	return res.ID, nil
}

// UpdateJob patches title and/or status on a job. A call with neither is a no-op
func (c *Client) UpdateJob(ctx context.Context, jobID, title, status string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return perr.InvalidArgf("ats job id is required")
	}
	attrs := map[string]any{}
	if strings.TrimSpace(title) != "" {
		attrs["title"] = title
	}
	if status != "" {
		attrs["status"] = status
	}
	if len(attrs) == 0 {
		return nil
	}
	payload := map[string]any{"data": map[string]any{
		"id":         jobID,
		"type":       "jobs",
		"attributes": attrs,
	}}
	return c.http.Discard(ctx, http.MethodPatch, "/jobs/"+jobID, nil, payload)
}
