// Package reconcile translates single upstream changes into idempotent
// downstream operations: time off, people, compensation, CTC, and hires
package reconcile

import (
	"time"

	"hrhub/internal/platform/logger"
)

// Statuses reported by every handler
const (
	StatusSynced  = "synced"
	StatusUpdated = "updated"
	StatusDeleted = "deleted"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Task kinds accepted by the worker endpoint
const (
	KindTimeoff       = "timeoff"
	KindTimeoffDelete = "timeoff_delete"
	KindPerson        = "person"
	KindCompensation  = "compensation"
	KindCompBatch     = "compensation_sync_batch"
	KindCTC           = "ctc_recalculate"
	KindCTCBatch      = "ctc_recalculate_batch"
)

// Result is the outcome of one reconciled event
type Result struct {
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	EntityID  string  `json:"entity_id,omitempty"`
	Email     string  `json:"email,omitempty"`
	PlannerID int64   `json:"planner_id,omitempty"`
	JobID     string  `json:"job_id,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

func skipped(entityID, reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason, EntityID: entityID}
}

// Summary aggregates a batch of results
type Summary struct {
	Processed int      `json:"processed"`
	Synced    int      `json:"synced"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
	Results   []Result `json:"results,omitempty"`
}

func (s *Summary) add(r Result) {
	s.Processed++
	switch r.Status {
	case StatusSynced, StatusDeleted:
		s.Synced++
	case StatusUpdated:
		s.Updated++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Errors++
	}
	s.Results = append(s.Results, r)
}

// Options configures the Service
type Options struct {
	// AnnualHours divides cost-to-company into costPerHour; defaults to 1856
	AnnualHours float64

	// SchemeField is the api name of the hiring-scheme custom field on jobs
	SchemeField string

	// CorpEmailDomain enables work-email generation on hire when set
	CorpEmailDomain     string
	AutoAssignWorkEmail bool

	// CreatePlannerOnHire also upserts the planner person after a hire import
	CreatePlannerOnHire bool

	// ATSSignatureKey verifies inbound webhook signatures; empty disables
	ATSSignatureKey string

	// Cross-link custom fields for job sync. HRISJobLinkField is the HRIS job
	// field holding the ATS job id; ATSJobLinkField is the ATS custom-field
	// api name holding the HRIS job id. Empty disables the respective link
	HRISJobLinkField string
	ATSJobLinkField  string

	// Reconcile windows for the synchronous cron runs
	TimeoffLookbackDays  int
	TimeoffLookaheadDays int
	OnboardLookaheadDays int
}

// Service is the reconciler
type Service struct {
	hris    HRIS
	planner Planner
	ats     ATS
	state   State
	opts    Options
	log     logger.Logger
	now     func() time.Time
}

// New wires a Service. Zero option values fall back to defaults
func New(h HRIS, p Planner, a ATS, st State, opts Options) *Service {
	if opts.AnnualHours <= 0 {
		opts.AnnualHours = 1856
	}
	if opts.TimeoffLookbackDays <= 0 {
		opts.TimeoffLookbackDays = 7
	}
	if opts.TimeoffLookaheadDays <= 0 {
		opts.TimeoffLookaheadDays = 60
	}
	if opts.OnboardLookaheadDays <= 0 {
		opts.OnboardLookaheadDays = 30
	}
	return &Service{
		hris:    h,
		planner: p,
		ats:     a,
		state:   st,
		opts:    opts,
		log:     *logger.Named("reconcile"),
		now:     time.Now,
	}
}

func (s *Service) today() string { return s.now().UTC().Format("2006-01-02") }
