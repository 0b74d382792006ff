package hris

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// GetJobEmployment returns the employment type of a job, empty when the job
// has none or the id is blank
func (c *Client) GetJobEmployment(ctx context.Context, jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", nil
	}
	q := url.Values{"fields": {"employment"}}
	out, err := httpx.JSON[struct {
		Employment string `json:"employment"`
	}](ctx, c.http, http.MethodGet, c.v2("/job/"+jobID), q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out.Employment), nil
}

// FindJob fetches a job with its custom fields included.
// Missing jobs come back as (nil, nil)
func (c *Client) FindJob(ctx context.Context, jobID string) (*Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, nil
	}
	q := url.Values{"include": {"fields"}}
	raw, err := httpx.JSON[json.RawMessage](ctx, c.http, http.MethodGet, c.v2("/job/"+jobID), q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var j Job
	if err := json.Unmarshal(extractEntity(raw), &j); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hris job decode failed")
	}
	if j.ID == "" {
		j.ID = jobID
	}
	return &j, nil
}

// JobCompensation is the CTC input set read off a job's custom fields
type JobCompensation struct {
	Base     float64
	Currency string
	Scheme   string
}

// GetJobCompensation reads base compensation, currency, and the hiring scheme
// from a job. schemeField is the org-configured api name of the scheme custom
// field. Missing jobs come back as (nil, nil)
func (c *Client) GetJobCompensation(ctx context.Context, jobID, schemeField string) (*JobCompensation, error) {
	j, err := c.FindJob(ctx, jobID)
	if err != nil || j == nil {
		return nil, err
	}
	out := &JobCompensation{Currency: "USD"}
	for _, key := range []string{"base", "comp base", "basecomp", "base comp"} {
		if v := fieldFloat(j.Fields, key); v != 0 {
			out.Base = v
			break
		}
	}
	for _, key := range []string{"currency", "base currency", "comp currency"} {
		if v := fieldString(j.Fields, key); v != "" {
			out.Currency = v
			break
		}
	}
	if schemeField != "" {
		out.Scheme = fieldString(j.Fields, schemeField)
	}
	return out, nil
}

// FieldString returns a job custom field as a trimmed string, tolerating
// multi-select lists by taking the first entry
func (j *Job) FieldString(key string) string {
	if j == nil {
		return ""
	}
	return fieldString(j.Fields, key)
}

func fieldString(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		// multi-select fields deliver a list; the first entry wins
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func fieldFloat(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// UpsertJobFields patches custom fields on a job.
// The CTC write-back uses this with {"ctc": <usd>, "currency": "USD"}
func (c *Client) UpsertJobFields(ctx context.Context, jobID string, fields map[string]any) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return perr.InvalidArgf("job id is required")
	}
	if len(fields) == 0 {
		return perr.InvalidArgf("job fields are required")
	}
	body := map[string]any{"fields": fields}
	return c.http.Discard(ctx, http.MethodPatch, c.v2("/job/"+jobID), nil, body)
}
