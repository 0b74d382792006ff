package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type taskDTO struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
}

func TestSugar_JSONVerbs(t *testing.T) {
	t.Parallel()

	m := chi.NewRouter()
	r := AdaptChi(m)

	// GET: cron-style endpoint, no body expected
	GetJSON(r, "/cron/nightly", func(_ *http.Request) (any, error) {
		return map[string]int{"synced": 3}, nil
	})

	// POST: worker-style endpoint echoing the task it was handed
	PostJSON[taskDTO](r, "/tasks/worker", func(_ *http.Request, in taskDTO) (any, error) {
		return map[string]string{"handled": in.Kind + ":" + in.EntityID}, nil
	})

	srv := httptest.NewServer(r.Mux())
	defer srv.Close()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodGet, "/cron/nightly", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"synced":3`) {
		t.Fatalf("GET /cron/nightly => code=%d body=%q", rr.Code, rr.Body.String())
	}

	rr = do(http.MethodPost, "/tasks/worker", `{"kind":"timeoff","entity_id":"t-1"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"handled":"timeoff:t-1"`) {
		t.Fatalf("POST /tasks/worker => code=%d body=%q", rr.Code, rr.Body.String())
	}

	// a truncated body must surface the bind error, not reach the handler
	rr = do(http.MethodPost, "/tasks/worker", `{"kind":`)
	if rr.Code == http.StatusOK {
		t.Fatalf("POST with bad json should not be 200; got %d", rr.Code)
	}
}
