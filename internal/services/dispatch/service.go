// Package dispatch is the inbound edge of the hub: it authenticates webhooks,
// classifies events, enqueues worker tasks, and exposes the cron and task
// endpoints the scheduler and queue call back into
package dispatch

import (
	"context"
	"time"

	"hrhub/internal/platform/logger"
	"hrhub/internal/services/reconcile"
)

// Reconciler is the slice of the reconcile service the dispatcher drives
type Reconciler interface {
	Handle(ctx context.Context, kind, entityID string) (any, error)
	SyncTimeoffWindow(ctx context.Context) (*reconcile.Summary, error)
	SyncOnboardingWindow(ctx context.Context) (*reconcile.Summary, error)
	ProcessHire(ctx context.Context, applicationID string) (*reconcile.HireResult, error)
	SyncJobCreate(ctx context.Context, jobID string) (*reconcile.JobSyncResult, error)
	SyncJobUpdate(ctx context.Context, jobID string) (*reconcile.JobSyncResult, error)
}

// Enqueuer pushes typed tasks onto the durable queue
type Enqueuer interface {
	Enqueue(ctx context.Context, relativeURL string, payload any, taskID string) (string, error)
}

// Runner executes a batch job inside a task request
type Runner func(ctx context.Context) (any, error)

// Options configures the dispatcher
type Options struct {
	// SignatureKey verifies ATS webhook signatures; empty disables verification
	SignatureKey string

	// Batch runners invoked by the task endpoints. A nil runner makes its
	// endpoint answer 503
	ExportSnapshot  Runner
	ExportWarehouse Runner
}

// Service holds the dispatcher dependencies
type Service struct {
	rec  Reconciler
	enq  Enqueuer
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// New wires a Service
func New(rec Reconciler, enq Enqueuer, opts Options) *Service {
	return &Service{
		rec:  rec,
		enq:  enq,
		opts: opts,
		log:  *logger.Named("dispatch"),
		now:  time.Now,
	}
}
