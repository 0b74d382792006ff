package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrhub/internal/adapters/ats"
	phttp "hrhub/internal/platform/net/http"
	"hrhub/internal/services/reconcile"
)

type fakeRec struct {
	handled    []map[string]string
	hires      []string
	jobCreates []string
	jobUpdates []string
	timeoffSum *reconcile.Summary
	onboardSum *reconcile.Summary
}

func (f *fakeRec) Handle(ctx context.Context, kind, entityID string) (any, error) {
	f.handled = append(f.handled, map[string]string{"kind": kind, "entity_id": entityID})
	return reconcile.Result{Status: reconcile.StatusSynced, EntityID: entityID}, nil
}

func (f *fakeRec) SyncTimeoffWindow(ctx context.Context) (*reconcile.Summary, error) {
	return f.timeoffSum, nil
}

func (f *fakeRec) SyncOnboardingWindow(ctx context.Context) (*reconcile.Summary, error) {
	return f.onboardSum, nil
}

func (f *fakeRec) ProcessHire(ctx context.Context, applicationID string) (*reconcile.HireResult, error) {
	f.hires = append(f.hires, applicationID)
	return &reconcile.HireResult{Processed: true}, nil
}

func (f *fakeRec) SyncJobCreate(ctx context.Context, jobID string) (*reconcile.JobSyncResult, error) {
	f.jobCreates = append(f.jobCreates, jobID)
	return &reconcile.JobSyncResult{Processed: true, ATSJobID: "tt-1"}, nil
}

func (f *fakeRec) SyncJobUpdate(ctx context.Context, jobID string) (*reconcile.JobSyncResult, error) {
	f.jobUpdates = append(f.jobUpdates, jobID)
	return &reconcile.JobSyncResult{Processed: true, ATSJobID: "tt-1"}, nil
}

type enqueued struct {
	url     string
	payload any
	taskID  string
}

type fakeEnq struct {
	calls []enqueued
	err   error
}

func (f *fakeEnq) Enqueue(ctx context.Context, relativeURL string, payload any, taskID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, enqueued{url: relativeURL, payload: payload, taskID: taskID})
	return "queues/q/tasks/t1", nil
}

func newTestServer(t *testing.T, rec *fakeRec, enq *fakeEnq, opts Options) *httptest.Server {
	t.Helper()
	s := New(rec, enq, opts)
	s.now = func() time.Time { return time.Date(2025, 4, 1, 3, 0, 0, 0, time.UTC) }
	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, s)
	srv := httptest.NewServer(r.Mux())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, header http.Header) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeRec{}, &fakeEnq{}, Options{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "OK" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
}

func TestVersion(t *testing.T) {
	srv := newTestServer(t, &fakeRec{}, &fakeEnq{}, Options{})
	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var env struct {
		Data struct {
			Service string `json:"service"`
			Version string `json:"version"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Service != "hrhub-api" || env.Data.Version == "" {
		t.Fatalf("unexpected build info %+v", env.Data)
	}
}

func TestWebhookHRISTimeoffEnqueuesWorker(t *testing.T) {
	enq := &fakeEnq{}
	srv := newTestServer(t, &fakeRec{}, enq, Options{})

	resp := postJSON(t, srv.URL+"/webhooks/hris", map[string]any{
		"type": "timeoff.create", "entity_id": "to-7",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(enq.calls) != 1 || enq.calls[0].url != "/tasks/worker" {
		t.Fatalf("calls = %+v", enq.calls)
	}
	payload := enq.calls[0].payload.(map[string]string)
	if payload["kind"] != "timeoff" || payload["entity_id"] != "to-7" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestWebhookHRISSeparatorAndCaseVariants(t *testing.T) {
	cases := []struct {
		body map[string]any
		kind string
	}{
		{map[string]any{"eventType": "TIMEOFF_DELETE", "entityId": "to-1"}, "timeoff_delete"},
		{map[string]any{"type": "time-off-update", "entity_id": "to-2"}, "timeoff"},
		{map[string]any{"type": "create", "entityType": "TimeOff", "entityId": "to-3"}, "timeoff"},
		{map[string]any{"type": "person.update", "entity_id": "p-1"}, "person"},
	}
	for _, c := range cases {
		enq := &fakeEnq{}
		srv := newTestServer(t, &fakeRec{}, enq, Options{})
		resp := postJSON(t, srv.URL+"/webhooks/hris", c.body, nil)
		resp.Body.Close()
		if len(enq.calls) != 1 {
			t.Fatalf("body %v: calls = %+v", c.body, enq.calls)
		}
		if got := enq.calls[0].payload.(map[string]string)["kind"]; got != c.kind {
			t.Fatalf("body %v: kind = %q, want %q", c.body, got, c.kind)
		}
	}
}

func TestWebhookHRISJobEventsRunSynchronously(t *testing.T) {
	rec := &fakeRec{}
	enq := &fakeEnq{}
	srv := newTestServer(t, rec, enq, Options{})

	resp := postJSON(t, srv.URL+"/webhooks/hris", map[string]any{
		"type": "job.create", "entityType": "job", "entityId": "j-1",
	}, nil)
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/webhooks/hris", map[string]any{
		"type": "job_update", "entitytype": "jobs", "entityid": "j-2",
	}, nil)
	resp.Body.Close()

	if len(rec.jobCreates) != 1 || rec.jobCreates[0] != "j-1" {
		t.Fatalf("creates = %+v", rec.jobCreates)
	}
	if len(rec.jobUpdates) != 1 || rec.jobUpdates[0] != "j-2" {
		t.Fatalf("updates = %+v", rec.jobUpdates)
	}
	if len(enq.calls) != 0 {
		t.Fatalf("job events must not enqueue: %+v", enq.calls)
	}
}

func TestWebhookHRISMalformedAlways200(t *testing.T) {
	enq := &fakeEnq{}
	srv := newTestServer(t, &fakeRec{}, enq, Options{})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/hris", bytes.NewReader([]byte("{not json")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(enq.calls) != 0 {
		t.Fatalf("malformed body enqueued: %+v", enq.calls)
	}
}

func TestWebhookATSSignatureGate(t *testing.T) {
	const key = "sekret"
	rec := &fakeRec{}
	srv := newTestServer(t, rec, &fakeEnq{}, Options{SignatureKey: key})

	// bad signature: 200, no processing
	h := http.Header{}
	h.Set(ats.SignatureHeader, "forged")
	resp := postJSON(t, srv.URL+"/webhooks/ats", map[string]any{"resource_id": "app-1"}, h)
	resp.Body.Close()
	if resp.StatusCode != 200 || len(rec.hires) != 0 {
		t.Fatalf("forged signature: status=%d hires=%v", resp.StatusCode, rec.hires)
	}

	// valid signature: processed
	h.Set(ats.SignatureHeader, ats.Sign(key, "app-1"))
	resp = postJSON(t, srv.URL+"/webhooks/ats", map[string]any{"resource_id": "app-1"}, h)
	resp.Body.Close()
	if len(rec.hires) != 1 || rec.hires[0] != "app-1" {
		t.Fatalf("hires = %v", rec.hires)
	}
}

func TestRootClassifier(t *testing.T) {
	rec := &fakeRec{}
	enq := &fakeEnq{}
	srv := newTestServer(t, rec, enq, Options{})

	// resource_id in the body routes to the ATS handler
	resp := postJSON(t, srv.URL+"/", map[string]any{"resource_id": "app-9"}, nil)
	resp.Body.Close()
	if len(rec.hires) != 1 || rec.hires[0] != "app-9" {
		t.Fatalf("hires = %v", rec.hires)
	}

	// everything else is treated as an HRIS event
	resp = postJSON(t, srv.URL+"/", map[string]any{"type": "timeoff.create", "entity_id": "to-1"}, nil)
	resp.Body.Close()
	if len(enq.calls) != 1 {
		t.Fatalf("calls = %+v", enq.calls)
	}
}

func TestWorkerValidation(t *testing.T) {
	rec := &fakeRec{}
	srv := newTestServer(t, rec, &fakeEnq{}, Options{})

	resp := postJSON(t, srv.URL+"/tasks/worker", map[string]any{"entity_id": "x"}, nil)
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("missing kind status = %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/tasks/worker", map[string]any{"kind": "timeoff"}, nil)
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("missing entity_id status = %d", resp.StatusCode)
	}

	// batch kinds carry no entity id
	resp = postJSON(t, srv.URL+"/tasks/worker", map[string]any{"kind": "ctc_recalculate_batch"}, nil)
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("batch kind status = %d", resp.StatusCode)
	}
	if len(rec.handled) != 1 || rec.handled[0]["kind"] != "ctc_recalculate_batch" {
		t.Fatalf("handled = %+v", rec.handled)
	}
}

func TestWorkerRoutesKind(t *testing.T) {
	rec := &fakeRec{}
	srv := newTestServer(t, rec, &fakeEnq{}, Options{})

	resp := postJSON(t, srv.URL+"/tasks/worker", map[string]any{"kind": "timeoff", "entity_id": "to-7"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(rec.handled) != 1 || rec.handled[0]["entity_id"] != "to-7" {
		t.Fatalf("handled = %+v", rec.handled)
	}
}

func TestCronNightlyDeterministicTaskID(t *testing.T) {
	enq := &fakeEnq{}
	srv := newTestServer(t, &fakeRec{}, enq, Options{})

	resp, err := http.Get(srv.URL + "/cron/nightly")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(enq.calls) != 1 {
		t.Fatalf("calls = %+v", enq.calls)
	}
	call := enq.calls[0]
	if call.url != "/tasks/export-snapshot" || call.taskID != "export-snapshot-2025-04-01" {
		t.Fatalf("call = %+v", call)
	}
}

func TestCronBatchEndpointsEnqueue(t *testing.T) {
	enq := &fakeEnq{}
	srv := newTestServer(t, &fakeRec{}, enq, Options{})

	for path, kind := range map[string]string{
		"/cron/compensation":    "compensation_sync_batch",
		"/cron/recalculate-ctc": "ctc_recalculate_batch",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		found := false
		for _, c := range enq.calls {
			if p, ok := c.payload.(map[string]string); ok && p["kind"] == kind {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s did not enqueue %s: %+v", path, kind, enq.calls)
		}
	}
}

func TestCronTimeoffSynchronousSummary(t *testing.T) {
	rec := &fakeRec{timeoffSum: &reconcile.Summary{Processed: 3, Synced: 2, Skipped: 1}}
	srv := newTestServer(t, rec, &fakeEnq{}, Options{})

	resp, err := http.Get(srv.URL + "/cron/timeoff")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var env struct {
		Data reconcile.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Processed != 3 || env.Data.Synced != 2 {
		t.Fatalf("summary = %+v", env.Data)
	}
}

func TestTaskExportSnapshot(t *testing.T) {
	ran := false
	srv := newTestServer(t, &fakeRec{}, &fakeEnq{}, Options{
		ExportSnapshot: func(ctx context.Context) (any, error) {
			ran = true
			return map[string]any{"rows": 5}, nil
		},
	})

	resp := postJSON(t, srv.URL+"/tasks/export-snapshot", map[string]any{}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != 200 || !ran {
		t.Fatalf("status=%d ran=%v", resp.StatusCode, ran)
	}
}

func TestTaskExportWarehouseUnconfigured(t *testing.T) {
	srv := newTestServer(t, &fakeRec{}, &fakeEnq{}, Options{})
	resp := postJSON(t, srv.URL+"/tasks/export-warehouse", map[string]any{}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestParseHRISEvent(t *testing.T) {
	cases := []struct {
		body   map[string]any
		entity string
		action string
		id     string
		ok     bool
	}{
		{map[string]any{"type": "timeoff.create", "entity_id": "to-7"}, EntityTimeoff, ActionCreate, "to-7", true},
		{map[string]any{"eventType": "JOB-UPDATE", "entityType": "Jobs", "entityId": "j-1"}, EntityJob, ActionUpdate, "j-1", true},
		{map[string]any{"event_type": "time_off_delete", "entityid": "to-2"}, EntityTimeoff, ActionDelete, "to-2", true},
		{map[string]any{"type": "change", "entity": "person", "id": "p-1"}, EntityPerson, ActionUpdate, "p-1", true},
		{map[string]any{"type": "ping"}, "", "", "", false},
		{nil, "", "", "", false},
	}
	for _, c := range cases {
		ev, ok := ParseHRISEvent(c.body)
		if ok != c.ok {
			t.Fatalf("body %v: ok = %v, want %v", c.body, ok, c.ok)
		}
		if !ok {
			continue
		}
		if ev.Entity != c.entity || ev.Action != c.action || ev.ID != c.id {
			t.Fatalf("body %v: ev = %+v", c.body, ev)
		}
	}
}
