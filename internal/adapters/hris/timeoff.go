package hris

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// FetchTimeoffWindow lists time-off entries whose start date falls inside
// [start, end] (both YYYY-MM-DD, either may be empty) and enriches each entry
// with the owner's email by a batched person lookup
func (c *Client) FetchTimeoffWindow(ctx context.Context, start, end string) ([]Timeoff, error) {
	q := url.Values{"limit": {strconv.Itoa(c.pageSize)}}
	if start != "" {
		q.Set("startDate[gte]", start)
	}
	if end != "" {
		q.Set("startDate[lte]", end)
	}

	items, err := c.paginateV1(ctx, c.v1("/timeoff"), q)
	if err != nil {
		return nil, err
	}

	entries := make([]Timeoff, 0, len(items))
	idset := map[string]bool{}
	for _, raw := range items {
		var t Timeoff
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		if t.Start() == "" {
			continue
		}
		entries = append(entries, t)
		if t.PersonID != "" {
			idset[t.PersonID] = true
		}
	}

	ids := make([]string, 0, len(idset))
	for id := range idset {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	pmap, err := c.FetchPeopleByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if s, ok := pmap[entries[i].PersonID]; ok {
			entries[i].PersonEmail = s.Email
			entries[i].PersonName = s.Name
			entries[i].PersonTitle = s.Title
		}
	}
	return entries, nil
}

// GetTimeoff fetches one time-off entry with its person included.
// Missing entries come back as (nil, nil)
func (c *Client) GetTimeoff(ctx context.Context, timeoffID string) (*Timeoff, error) {
	timeoffID = strings.TrimSpace(timeoffID)
	if timeoffID == "" {
		return nil, nil
	}
	q := url.Values{"include": {"person"}}
	raw, err := httpx.JSON[json.RawMessage](ctx, c.http, http.MethodGet, c.v1("/timeoff/"+timeoffID), q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var t Timeoff
	if err := json.Unmarshal(extractEntity(raw), &t); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hris timeoff decode failed")
	}
	if t.ID == "" {
		t.ID = timeoffID
	}
	return &t, nil
}
