// Package hris provides the typed adapter to the HRIS (people, jobs, time off,
// compensation, CSV imports). All calls go through the shared retrying transport
package hris

import (
	"net/http"
	"time"

	"hrhub/internal/platform/httpx"
	"hrhub/internal/platform/logger"
)

const defaultPageSize = 200

// Options configures the Client
type Options struct {
	BaseURL string
	Token   string
	OrgID   string

	// PageSize caps the v1/v2 listing page size; defaults to 200
	PageSize int

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// Client is the HRIS adapter
type Client struct {
	http     *httpx.Client
	org      string
	pageSize int
	log      logger.Logger
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	h := httpx.NewClient(httpx.Options{
		BaseURL:    o.BaseURL,
		Name:       "hris",
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
		RetryBase:  o.RetryBase,
		Decorate: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+o.Token)
		},
	})
	return &Client{
		http:     h,
		org:      o.OrgID,
		pageSize: o.PageSize,
		log:      *logger.Named("hris"),
	}
}

func (c *Client) v1(path string) string { return "/v1/org/" + c.org + path }
func (c *Client) v2(path string) string { return "/v2/org/" + c.org + path }
