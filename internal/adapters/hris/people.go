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

// getPage issues a GET and decodes the common paged envelope
func (c *Client) getPage(ctx context.Context, path string, q url.Values) (pageEnvelope, error) {
	return httpx.JSON[pageEnvelope](ctx, c.http, http.MethodGet, path, q, nil)
}

// ForEachPerson streams the current (includeAll=false) people listing with the
// given field projection, paging by the v2 `from` cursor. A repeated cursor
// terminates the walk. A persistent 4xx complaining about the page size halves
// the limit and retries the same page
func (c *Client) ForEachPerson(ctx context.Context, fields string, fn func(Person) error) error {
	limit := c.pageSize
	cursor := ""
	seen := map[string]bool{}

	for {
		q := url.Values{
			"fields":     {fields},
			"limit":      {strconv.Itoa(limit)},
			"includeAll": {"false"},
		}
		if cursor != "" {
			if seen[cursor] {
				c.log.Warn().Str("cursor", cursor).Msg("people cursor repeated, stopping")
				return nil
			}
			q.Set("from", cursor)
		}

		env, err := c.getPage(ctx, c.v2("/person"), q)
		if err != nil {
			if halved, next := halvePageSize(err, limit); halved {
				c.log.Warn().Int("limit", limit).Int("next_limit", next).
					Msg("people page size rejected, halving")
				limit = next
				continue
			}
			return err
		}

		people, err := decodePeople(env.Data)
		if err != nil {
			return err
		}
		if len(people) == 0 {
			return nil
		}
		for _, p := range people {
			if err := fn(p); err != nil {
				return err
			}
		}

		if env.Next == "" {
			return nil
		}
		seen[cursor] = true
		cursor = env.Next
	}
}

// ListPeople collects the full projected listing
func (c *Client) ListPeople(ctx context.Context, fields string) ([]Person, error) {
	var out []Person
	err := c.ForEachPerson(ctx, fields, func(p Person) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

// GetPerson fetches the person detail with contacts and fields included.
// Missing people come back as (nil, nil)
func (c *Client) GetPerson(ctx context.Context, personID string) (*DetailPerson, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, nil
	}
	q := url.Values{"include": {"contacts,contact,fields"}}
	raw, err := httpx.JSON[json.RawMessage](ctx, c.http, http.MethodGet, c.v2("/person/"+personID), q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	entity := extractEntity(raw)
	var p DetailPerson
	if err := json.Unmarshal(entity, &p); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hris person decode failed")
	}
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}

// GetPersonProjected fetches one person with a flattened field projection.
// Missing people come back as (nil, nil)
func (c *Client) GetPersonProjected(ctx context.Context, personID, fields string) (*Person, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, nil
	}
	q := url.Values{"fields": {fields}}
	p, err := httpx.JSON[Person](ctx, c.http, http.MethodGet, c.v2("/person/"+personID), q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if p.ID == "" {
		p.ID = personID
	}
	return &p, nil
}

// FetchPeopleByIDs resolves person id -> {email, name, title} by batched v1
// lookups of up to 100 ids per request. People without a resolvable email are
// omitted
func (c *Client) FetchPeopleByIDs(ctx context.Context, ids []string) (map[string]PersonSummary, error) {
	out := map[string]PersonSummary{}
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		q := url.Values{
			"ids":     {strings.Join(batch, ",")},
			"include": {"contact,contacts"},
			"limit":   {strconv.Itoa(c.pageSize)},
		}
		people, err := c.paginateV1(ctx, c.v1("/person"), q)
		if err != nil {
			return err
		}
		for _, raw := range people {
			var p DetailPerson
			if err := json.Unmarshal(raw, &p); err != nil {
				continue
			}
			email := p.Email()
			if p.ID == "" || email == "" {
				continue
			}
			out[p.ID] = PersonSummary{Email: email, Name: p.DisplayName(), Title: p.Title}
		}
		batch = batch[:0]
		return nil
	}

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		batch = append(batch, id)
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// paginateV1 walks a v1 listing by the offset token in `next`
func (c *Client) paginateV1(ctx context.Context, path string, base url.Values) ([]json.RawMessage, error) {
	var out []json.RawMessage
	offset := ""
	for {
		q := url.Values{}
		for k, vs := range base {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		env, err := c.getPage(ctx, path, q)
		if err != nil {
			return nil, err
		}
		items, err := decodeItems(env.Data)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return out, nil
		}
		out = append(out, items...)
		if env.Next == "" {
			return out, nil
		}
		offset = env.Next
	}
}

// halvePageSize reports whether err is a 4xx page-size complaint and the next limit
func halvePageSize(err error, limit int) (bool, int) {
	if limit <= 1 {
		return false, limit
	}
	se, ok := perr.ExtractStatusError(err)
	if !ok || se.Status < 400 || se.Status >= 500 {
		return false, limit
	}
	body := strings.ToLower(se.Body)
	if !strings.Contains(body, "limit") && !strings.Contains(body, "page size") {
		return false, limit
	}
	return true, limit / 2
}

// decodePeople unwraps a data payload into projected person records.
// Single objects arrive as a bare dict and wrap into a singleton slice
func decodePeople(data json.RawMessage) ([]Person, error) {
	items, err := decodeItems(data)
	if err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(items))
	for _, raw := range items {
		var p Person
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hris person decode failed")
		}
		out = append(out, p)
	}
	return out, nil
}

// decodeItems normalizes a data payload into a list of raw objects
func decodeItems(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		return []json.RawMessage{data}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hris list decode failed")
	}
	return items, nil
}

// extractEntity unwraps envelope bodies of the form {"data": {...}}
func extractEntity(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		t := strings.TrimSpace(string(env.Data))
		if strings.HasPrefix(t, "{") {
			return env.Data
		}
	}
	return raw
}
