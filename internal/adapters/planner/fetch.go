package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// fetchAll walks a cursor-paged collection and decodes every value into T.
// A repeated cursor terminates the walk instead of looping
func fetchAll[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	if q.Get("limit") == "" {
		q.Set("limit", strconv.Itoa(c.limit))
	}

	var out []T
	seen := map[string]bool{}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		env, err := httpx.JSON[envelope](ctx, c.http, http.MethodGet, path, q, nil)
		if err != nil {
			return nil, err
		}
		for _, raw := range env.Values {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "planner decode %s failed", path)
			}
			out = append(out, v)
		}
		cur := env.NextCursor
		if cur == "" || seen[cur] {
			return out, nil
		}
		seen[cur] = true
		q.Set("cursor", cur)
	}
}
