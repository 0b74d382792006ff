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

// ListPeople returns every planner person
func (c *Client) ListPeople(ctx context.Context) ([]Person, error) {
	return fetchAll[Person](ctx, c, "/people", nil)
}

// FindPersonByEmail resolves a person by email, nil when none matches.
// Hits are cached for the client's TTL. The direct filter is tried first
// and a full listing scan covers servers that ignore the email parameter
func (c *Client) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	email = normEmail(email)
	if email == "" {
		return nil, nil
	}

	c.mu.Lock()
	if hit, ok := c.peopleByEM[email]; ok && c.now().Sub(hit.at) < c.cacheTTL {
		c.mu.Unlock()
		return hit.val, nil
	}
	c.mu.Unlock()

	p, err := c.findByEmailDirect(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		people, err := c.ListPeople(ctx)
		if err != nil {
			return nil, err
		}
		for i := range people {
			if normEmail(people[i].Email) == email {
				p = &people[i]
				break
			}
		}
	}

	if p != nil {
		c.mu.Lock()
		c.peopleByEM[email] = cached[*Person]{at: c.now(), val: p}
		c.mu.Unlock()
	}
	return p, nil
}

// findByEmailDirect queries /people?email=. The response may be a paged
// envelope or a bare array depending on server version
func (c *Client) findByEmailDirect(ctx context.Context, email string) (*Person, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{"email": {email}}
	raw, err := httpx.JSON[json.RawMessage](ctx, c.http, http.MethodGet, "/people", q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var people []Person
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Values != nil {
		for _, v := range env.Values {
			var p Person
			if err := json.Unmarshal(v, &p); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "planner person decode failed")
			}
			people = append(people, p)
		}
	} else if err := json.Unmarshal(raw, &people); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "planner people decode failed")
	}

	for i := range people {
		if normEmail(people[i].Email) == email {
			return &people[i], nil
		}
	}
	return nil, nil
}

// GetPerson fetches a single person, nil when absent
func (c *Client) GetPerson(ctx context.Context, id int64) (*Person, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	p, err := httpx.JSON[Person](ctx, c.http, http.MethodGet, "/people/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpsertPerson creates a person, degrading a duplicate-email conflict into
// a lookup plus patch of the existing record
func (c *Client) UpsertPerson(ctx context.Context, in PersonInput) (*Person, error) {
	if normEmail(in.Email) == "" {
		return nil, perr.InvalidArgf("person email is required")
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	created, err := httpx.JSON[Person](ctx, c.http, http.MethodPost, "/people", nil, in)
	if err == nil {
		c.cachePerson(&created)
		return &created, nil
	}
	if !perr.IsUpstreamConflict(err) && !perr.IsCode(err, perr.ErrorCodeConflict) {
		return nil, err
	}

	existing, ferr := c.FindPersonByEmail(ctx, in.Email)
	if ferr != nil {
		return nil, ferr
	}
	if existing == nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConflict, "planner person conflict but no match by email")
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	patched, err := httpx.JSON[Person](ctx, c.http, http.MethodPatch,
		"/people/"+strconv.FormatInt(existing.ID, 10), nil, in)
	if err != nil {
		return nil, err
	}
	if patched.ID == 0 {
		patched.ID = existing.ID
	}
	if patched.Email == "" {
		patched.Email = in.Email
	}
	c.cachePerson(&patched)
	return &patched, nil
}

func (c *Client) cachePerson(p *Person) {
	e := normEmail(p.Email)
	if e == "" {
		return
	}
	c.mu.Lock()
	c.peopleByEM[e] = cached[*Person]{at: c.now(), val: p}
	c.mu.Unlock()
}

// Roles returns the planner roles, cached for the client's TTL
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	c.mu.Lock()
	if c.roles != nil && c.now().Sub(c.rolesAt) < c.cacheTTL {
		out := c.roles
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	roles, err := fetchAll[Role](ctx, c, "/roles", nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.roles = roles
	c.rolesAt = c.now()
	c.mu.Unlock()
	return roles, nil
}
