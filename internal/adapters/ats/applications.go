package ats

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// Application is a job application with its included candidate, job and offers
type Application struct {
	Document
	Resource
}

// GetApplication fetches a job application with candidate, job and offers
// included. Missing applications come back as (nil, nil)
func (c *Client) GetApplication(ctx context.Context, id string) (*Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, perr.InvalidArgf("application id is required")
	}
	q := url.Values{"include": {"candidate,job,offers"}}
	doc, err := httpx.JSON[Document](ctx, c.http, http.MethodGet, "/job-applications/"+id, q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	res, ok := doc.One()
	if !ok {
		return nil, perr.Upstreamf("ats application %s has no data", id)
	}
	return &Application{Document: doc, Resource: res}, nil
}

// Status returns the lowercased application status, falling back to the
// legacy "state" attribute
func (a *Application) Status() string {
	s := a.Attr("status")
	if s == "" {
		s = a.Attr("state")
	}
	return strings.ToLower(s)
}

// HiredAt returns the hired-at timestamp, empty when the application has none
func (a *Application) HiredAt() string { return a.Attr("hired-at") }

// Hired reports whether the application represents a completed hire
func (a *Application) Hired() bool {
	return a.Status() == "hired" || a.HiredAt() != ""
}

// Candidate returns the included candidate resource
func (a *Application) Candidate() (Resource, bool) { return a.FindIncluded("candidates") }

// Job returns the included job resource
func (a *Application) Job() (Resource, bool) { return a.FindIncluded("jobs") }

// OfferStartDate resolves the offer start date in three steps: the included
// offers, the offers relationship's related link, then the offer collection
// filtered by application id. Empty when no offer names a date
func (c *Client) OfferStartDate(ctx context.Context, a *Application) (string, error) {
	for _, inc := range a.Included {
		if inc.Type == "job-offers" || inc.Type == "offers" {
			if sd := offerStartDate(inc); sd != "" {
				return sd, nil
			}
		}
	}

	for _, rel := range []string{"offers", "job-offers"} {
		r, ok := a.Relationships[rel]
		if !ok || r.Links.Related == "" {
			continue
		}
		doc, err := httpx.JSON[Document](ctx, c.http, http.MethodGet, c.relatedPath(r.Links.Related), nil, nil)
		if err != nil {
			return "", err
		}
		for _, of := range doc.Many() {
			if sd := offerStartDate(of); sd != "" {
				return sd, nil
			}
		}
	}

	q := url.Values{"filter[job-application-id]": {a.ID}}
	doc, err := httpx.JSON[Document](ctx, c.http, http.MethodGet, "/job-offers", q, nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	for _, of := range doc.Many() {
		if sd := offerStartDate(of); sd != "" {
			return sd, nil
		}
	}
	return "", nil
}

// offerStartDate pulls details.start-date from an offer, truncated to the day
func offerStartDate(of Resource) string {
	details := of.AttrMap("details")
	if details == nil {
		return ""
	}
	sd := stringAttr(details, "start-date")
	if sd == "" {
		sd = stringAttr(details, "start_date")
	}
	if len(sd) > 10 {
		sd = sd[:10]
	}
	return sd
}
