package planner

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

func timeoffPath(cat Category) string { return "/time-offs/" + string(cat) }

// CreateTimeoff creates a time-off entry under the category endpoint and
// returns the created record
func (c *Client) CreateTimeoff(ctx context.Context, cat Category, t Timeoff) (*Timeoff, error) {
	if !cat.Valid() {
		return nil, perr.InvalidArgf("unknown time-off category %q", cat)
	}
	if t.PersonID == 0 {
		return nil, perr.InvalidArgf("time-off person id is required")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	t.ID = 0
	out, err := httpx.JSON[Timeoff](ctx, c.http, http.MethodPost, timeoffPath(cat), nil, t)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTimeoff replaces the dates and note on an existing entry
func (c *Client) UpdateTimeoff(ctx context.Context, cat Category, id int64, t Timeoff) (*Timeoff, error) {
	if !cat.Valid() {
		return nil, perr.InvalidArgf("unknown time-off category %q", cat)
	}
	if id == 0 {
		return nil, perr.InvalidArgf("time-off id is required")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	t.ID = 0
	out, err := httpx.JSON[Timeoff](ctx, c.http, http.MethodPut,
		timeoffPath(cat)+"/"+strconv.FormatInt(id, 10), nil, t)
	if err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return &out, nil
}

// DeleteTimeoff removes an entry. Deleting an entry that is already gone
// succeeds so replayed deletes stay idempotent
func (c *Client) DeleteTimeoff(ctx context.Context, cat Category, id int64) error {
	if !cat.Valid() {
		return perr.InvalidArgf("unknown time-off category %q", cat)
	}
	if id == 0 {
		return perr.InvalidArgf("time-off id is required")
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	err := c.http.Discard(ctx, http.MethodDelete, timeoffPath(cat)+"/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil && (perr.IsUpstreamNotFound(err) || perr.IsCode(err, perr.ErrorCodeNotFound)) {
		c.log.Debug().Int64("timeoff_id", id).Str("category", string(cat)).
			Msg("time-off already deleted upstream")
		return nil
	}
	return err
}

// ListPersonTimeoffs returns a person's entries in the category overlapping
// the inclusive window
func (c *Client) ListPersonTimeoffs(ctx context.Context, cat Category, personID int64, start, end string) ([]Timeoff, error) {
	if !cat.Valid() {
		return nil, perr.InvalidArgf("unknown time-off category %q", cat)
	}
	q := url.Values{"personId": {strconv.FormatInt(personID, 10)}}
	if start != "" {
		q.Set("startDate", start)
	}
	if end != "" {
		q.Set("endDate", end)
	}
	return fetchAll[Timeoff](ctx, c, timeoffPath(cat), q)
}

// FindOverlap returns an existing entry whose days intersect [start, end],
// nil when the window is clear. Used to avoid duplicate entries when the
// mapping lost track of an earlier sync
func (c *Client) FindOverlap(ctx context.Context, cat Category, personID int64, start, end string) (*Timeoff, error) {
	entries, err := c.ListPersonTimeoffs(ctx, cat, personID, start, end)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Overlaps(start, end) {
			return &entries[i], nil
		}
	}
	return nil, nil
}
