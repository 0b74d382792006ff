package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"hrhub/internal/adapters/ats"
	"hrhub/internal/core/version"
	perr "hrhub/internal/platform/errors"
	phttp "hrhub/internal/platform/net/http"
	"hrhub/internal/services/reconcile"
)

// maxWebhookBody bounds how much of an inbound webhook we are willing to read
const maxWebhookBody = 1 << 20

// readBody decodes the request body into a map, tolerating anything malformed
func readBody(r *http.Request) map[string]any {
	var body map[string]any
	data, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil
	}
	return body
}

// Health answers the liveness probe
func (s *Service) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Version reports the build stamped in at link time
func (s *Service) Version(w http.ResponseWriter, r *http.Request) {
	phttp.RespondOK(w, r, version.Info())
}

// Root classifies a bare-path delivery by header and body shape and delegates
// to the matching webhook handler. Some senders can only be pointed at /
func (s *Service) Root(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		phttp.RespondOK(w, r, map[string]any{"status": "ok"})
		return
	}
	body := readBody(r)
	if r.Header.Get(ats.SignatureHeader) != "" || firstString(body, "resource_id", "resourceId") != "" {
		s.handleATS(w, r, body)
		return
	}
	s.handleHRIS(w, r, body)
}

// WebhookHRIS ingests an HRIS event. Always 200: upstream retry storms are
// worse than a dropped event
func (s *Service) WebhookHRIS(w http.ResponseWriter, r *http.Request) {
	s.handleHRIS(w, r, readBody(r))
}

func (s *Service) handleHRIS(w http.ResponseWriter, r *http.Request, body map[string]any) {
	phttp.RespondOK(w, r, s.processHRISEvent(r.Context(), body))
}

func (s *Service) processHRISEvent(ctx context.Context, body map[string]any) map[string]any {
	ev, ok := ParseHRISEvent(body)
	s.log.Info().Str("entity", ev.Entity).Str("action", ev.Action).
		Str("entity_id", ev.ID).Msg("hris webhook event")
	if !ok || ev.ID == "" || ev.Action == "" {
		return map[string]any{"status": "ignored"}
	}

	switch ev.Entity {
	case EntityJob:
		return s.processJobEvent(ctx, ev)
	case EntityTimeoff:
		kind := reconcile.KindTimeoff
		if ev.Action == ActionDelete {
			kind = reconcile.KindTimeoffDelete
		}
		return s.enqueueWorker(ctx, kind, ev.ID)
	case EntityPerson:
		if ev.Action == ActionDelete {
			return map[string]any{"status": "ignored"}
		}
		return s.enqueueWorker(ctx, reconcile.KindPerson, ev.ID)
	default:
		return map[string]any{"status": "ignored"}
	}
}

// processJobEvent mirrors job changes synchronously; the ATS calls involved
// are few and fast enough to run inside the webhook request
func (s *Service) processJobEvent(ctx context.Context, ev Event) map[string]any {
	var (
		res *reconcile.JobSyncResult
		err error
	)
	switch ev.Action {
	case ActionCreate:
		res, err = s.rec.SyncJobCreate(ctx, ev.ID)
	case ActionUpdate:
		res, err = s.rec.SyncJobUpdate(ctx, ev.ID)
	default:
		return map[string]any{"status": "ignored"}
	}
	if err != nil {
		s.log.Error().Err(err).Str("job_id", ev.ID).Str("action", ev.Action).Msg("job sync failed")
		return map[string]any{"status": "error"}
	}
	return map[string]any{"status": "ok", "result": res}
}

func (s *Service) enqueueWorker(ctx context.Context, kind, entityID string) map[string]any {
	payload := map[string]string{"kind": kind, "entity_id": entityID}
	name, err := s.enq.Enqueue(ctx, "/tasks/worker", payload, "")
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind).Str("entity_id", entityID).Msg("enqueue failed")
		return map[string]any{"status": "error"}
	}
	return map[string]any{"status": "queued", "kind": kind, "task": name}
}

// WebhookATS verifies the signature and processes the hire synchronously.
// Always 200, and signature failures are indistinguishable from success so
// the endpoint stays opaque to probing
func (s *Service) WebhookATS(w http.ResponseWriter, r *http.Request) {
	s.handleATS(w, r, readBody(r))
}

func (s *Service) handleATS(w http.ResponseWriter, r *http.Request, body map[string]any) {
	resourceID := firstString(body, "resource_id", "resourceId", "id")
	sig := r.Header.Get(ats.SignatureHeader)

	if !ats.VerifySignature(s.opts.SignatureKey, resourceID, sig) {
		s.log.Warn().Str("resource_id", resourceID).Msg("ats signature validation failed")
		phttp.RespondOK(w, r, map[string]any{"status": "ok"})
		return
	}
	if resourceID == "" {
		s.log.Warn().Msg("ats webhook missing resource_id")
		phttp.RespondOK(w, r, map[string]any{"status": "ignored"})
		return
	}

	res, err := s.rec.ProcessHire(r.Context(), resourceID)
	if err != nil {
		s.log.Error().Err(err).Str("resource_id", resourceID).Msg("hire processing failed")
		phttp.RespondOK(w, r, map[string]any{"status": "error"})
		return
	}
	phttp.RespondOK(w, r, map[string]any{"status": "ok", "result": res})
}

// CronNightly enqueues the snapshot export with a per-day deterministic task
// id so scheduler retries within the same day collapse into one task
func (s *Service) CronNightly(w http.ResponseWriter, r *http.Request) {
	day := s.now().UTC().Format("2006-01-02")
	name, err := s.enq.Enqueue(r.Context(), "/tasks/export-snapshot", map[string]any{}, "export-snapshot-"+day)
	if err != nil {
		s.log.Error().Err(err).Msg("nightly enqueue failed")
		phttp.RespondOK(w, r, map[string]any{"status": "error", "message": err.Error()})
		return
	}
	phttp.RespondOK(w, r, map[string]any{"status": "queued", "task": name})
}

// CronOnboarding runs the onboarding reconcile synchronously
func (s *Service) CronOnboarding(r *http.Request) (any, error) {
	return s.rec.SyncOnboardingWindow(r.Context())
}

// CronTimeoff runs the time-off window reconcile synchronously
func (s *Service) CronTimeoff(r *http.Request) (any, error) {
	return s.rec.SyncTimeoffWindow(r.Context())
}

// CronCompensation enqueues the compensation batch
func (s *Service) CronCompensation(w http.ResponseWriter, r *http.Request) {
	phttp.RespondOK(w, r, s.enqueueWorker(r.Context(), reconcile.KindCompBatch, ""))
}

// CronRecalculateCTC enqueues the CTC batch
func (s *Service) CronRecalculateCTC(w http.ResponseWriter, r *http.Request) {
	phttp.RespondOK(w, r, s.enqueueWorker(r.Context(), reconcile.KindCTCBatch, ""))
}

// WorkerPayload is the typed task body drained by the worker endpoint
type WorkerPayload struct {
	Kind     string `json:"kind" validate:"required"`
	EntityID string `json:"entity_id"`
}

// Worker routes a queued task to its reconciler handler. Missing fields are
// 400s the queue will not retry
func (s *Service) Worker(r *http.Request, in WorkerPayload) (any, error) {
	kind := strings.TrimSpace(in.Kind)
	if kind == "" {
		return nil, perr.Newf(perr.ErrorCodeValidation, "kind is required")
	}
	entityID := strings.TrimSpace(in.EntityID)
	if entityID == "" && !reconcile.BatchKind(kind) {
		return nil, perr.Newf(perr.ErrorCodeValidation, "entity_id is required for kind %s", kind)
	}
	return s.rec.Handle(r.Context(), kind, entityID)
}

// TaskExportSnapshot executes the snapshot export inside the task request
func (s *Service) TaskExportSnapshot(r *http.Request) (any, error) {
	return s.runBatch(r.Context(), s.opts.ExportSnapshot, "snapshot export")
}

// TaskExportWarehouse executes the warehouse mirror inside the task request
func (s *Service) TaskExportWarehouse(r *http.Request) (any, error) {
	return s.runBatch(r.Context(), s.opts.ExportWarehouse, "warehouse mirror")
}

func (s *Service) runBatch(ctx context.Context, run Runner, name string) (any, error) {
	if run == nil {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "%s is not configured", name)
	}
	out, err := run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg(name + " failed")
		return nil, err
	}
	return out, nil
}
