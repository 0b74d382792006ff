// Package planner provides the typed adapter to the resource-planning system
// (people, roles, contracts, time off). A token bucket caps the request rate
// and a short TTL cache absorbs repeated person-by-email lookups
package planner

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hrhub/internal/platform/httpx"
	"hrhub/internal/platform/logger"
)

const (
	defaultPageLimit  = 200
	defaultRateMax    = 100
	defaultRateWindow = 60 * time.Second
	defaultCacheTTL   = 300 * time.Second
)

// Options configures the Client
type Options struct {
	BaseURL    string
	Token      string
	APIVersion string

	PageLimit int

	// Token bucket sizing; defaults to 100 requests per 60 seconds
	RateMax    int
	RateWindow time.Duration

	// CacheTTL bounds the person-by-email and roles caches
	CacheTTL time.Duration

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// Client is the planner adapter
type Client struct {
	http  *httpx.Client
	lim   *rate.Limiter
	limit int
	log   logger.Logger

	cacheTTL time.Duration
	now      func() time.Time

	mu         sync.Mutex
	peopleByEM map[string]cached[*Person]
	roles      []Role
	rolesAt    time.Time
}

type cached[T any] struct {
	at  time.Time
	val T
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.PageLimit <= 0 {
		o.PageLimit = defaultPageLimit
	}
	if o.RateMax <= 0 {
		o.RateMax = defaultRateMax
	}
	if o.RateWindow <= 0 {
		o.RateWindow = defaultRateWindow
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	if o.APIVersion == "" {
		o.APIVersion = "1.0.0"
	}
	h := httpx.NewClient(httpx.Options{
		BaseURL:    o.BaseURL,
		Name:       "planner",
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
		RetryBase:  o.RetryBase,
		Decorate: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+o.Token)
			r.Header.Set("Accept-Version", o.APIVersion)
		},
	})
	per := rate.Limit(float64(o.RateMax) / o.RateWindow.Seconds())
	return &Client{
		http:       h,
		lim:        rate.NewLimiter(per, o.RateMax),
		limit:      o.PageLimit,
		log:        *logger.Named("planner"),
		cacheTTL:   o.CacheTTL,
		now:        time.Now,
		peopleByEM: map[string]cached[*Person]{},
	}
}

// wait blocks until the token bucket admits another request
func (c *Client) wait(ctx context.Context) error {
	return c.lim.Wait(ctx)
}
