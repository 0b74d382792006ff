// Package ats provides the typed adapter to the applicant tracking system.
// The API speaks JSON:API: attributes are kebab-cased maps and related
// resources arrive in an "included" sidecar
package ats

import (
	"net/http"
	"strings"
	"time"

	"hrhub/internal/platform/httpx"
	"hrhub/internal/platform/logger"
)

const defaultAPIVersion = "20240404"

// Options configures the Client
type Options struct {
	BaseURL    string
	Token      string
	APIVersion string

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// Client is the ATS adapter
type Client struct {
	http    *httpx.Client
	baseURL string
	log     logger.Logger
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.APIVersion == "" {
		o.APIVersion = defaultAPIVersion
	}
	h := httpx.NewClient(httpx.Options{
		BaseURL:    o.BaseURL,
		Name:       "ats",
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
		RetryBase:  o.RetryBase,
		Decorate: func(r *http.Request) {
			r.Header.Set("Authorization", "Token token="+o.Token)
			r.Header.Set("X-Api-Version", o.APIVersion)
			r.Header.Set("Accept", "application/vnd.api+json")
			if r.Body != nil {
				r.Header.Set("Content-Type", "application/vnd.api+json")
			}
		},
	})
	return &Client{http: h, baseURL: strings.TrimRight(o.BaseURL, "/"), log: *logger.Named("ats")}
}

// relatedPath converts a JSON:API related link into a path for the shared
// client. Absolute links are trimmed down to their path below the base URL
func (c *Client) relatedPath(link string) string {
	if strings.HasPrefix(link, c.baseURL) {
		return strings.TrimPrefix(link, c.baseURL)
	}
	return link
}
