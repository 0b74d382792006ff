package planner

import (
	"context"
	"net/http"
	"net/url"

	"hrhub/internal/platform/httpx"
)

// FetchRaw walks a cursor-paged collection and returns every value as an
// undecoded object. The warehouse mirror uses this to land collections
// without committing to a schema
func (c *Client) FetchRaw(ctx context.Context, path string, q url.Values) ([]map[string]any, error) {
	return fetchAll[map[string]any](ctx, c, path, q)
}

// FetchOne issues a single unpaged GET and returns the object as-is
func (c *Client) FetchOne(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return httpx.JSON[map[string]any](ctx, c.http, http.MethodGet, path, q, nil)
}
