package ats

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// ResolveCustomFieldID looks up a custom field id by its api-name.
// Empty when no field matches
func (c *Client) ResolveCustomFieldID(ctx context.Context, apiName string) (string, error) {
	apiName = strings.TrimSpace(apiName)
	if apiName == "" {
		return "", nil
	}
	q := url.Values{"filter[api-name]": {apiName}}
	doc, err := httpx.JSON[Document](ctx, c.http, http.MethodGet, "/custom-fields", q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	for _, cf := range doc.Many() {
		if cf.Attr("api-name") == apiName {
			return cf.ID, nil
		}
	}
	return "", nil
}

// findJobCustomFieldValueID returns the id of the custom-field-value already
// attached to a job for the given field, empty when none exists
func (c *Client) findJobCustomFieldValueID(ctx context.Context, jobID, fieldID string) (string, error) {
	q := url.Values{"include": {"custom-field-values,custom-field-values.custom-field"}}
	doc, err := httpx.JSON[Document](ctx, c.http, http.MethodGet, "/jobs/"+jobID, q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	for _, inc := range doc.Included {
		if inc.Type != "custom-field-values" {
			continue
		}
		if inc.Relationships["custom-field"].RefID() == fieldID {
			return inc.ID, nil
		}
	}
	return "", nil
}

// UpsertJobCustomField writes a value into a job's custom field. Create is
// tried first; when the value already exists the existing record is patched
func (c *Client) UpsertJobCustomField(ctx context.Context, jobID, fieldID, value string) error {
	if jobID == "" || fieldID == "" {
		return perr.InvalidArgf("ats job id and custom field id are required")
	}

	payload := map[string]any{"data": map[string]any{
		"type":       "custom-field-values",
		"attributes": map[string]any{"value": value},
		"relationships": map[string]any{
			"owner":        map[string]any{"data": map[string]any{"type": "jobs", "id": jobID}},
			"custom-field": map[string]any{"data": map[string]any{"type": "custom-fields", "id": fieldID}},
		},
	}}
	createErr := c.http.Discard(ctx, http.MethodPost, "/custom-field-values", nil, payload)
	if createErr == nil {
		return nil
	}
	if perr.IsRetryable(createErr) {
		return createErr
	}

	cfvID, err := c.findJobCustomFieldValueID(ctx, jobID, fieldID)
	if err != nil {
		return err
	}
	if cfvID == "" {
		return createErr
	}

	patch := map[string]any{"data": map[string]any{
		"id":         cfvID,
		"type":       "custom-field-values",
		"attributes": map[string]any{"value": value},
	}}
	return c.http.Discard(ctx, http.MethodPatch, "/custom-field-values/"+cfvID, nil, patch)
}
