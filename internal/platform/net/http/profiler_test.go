package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hrhub/internal/platform/config"
	phttp "hrhub/internal/platform/net/http"
)

func TestMountProfiler(t *testing.T) {
	srv := phttp.NewServer(config.New())
	r := srv.Router()
	phttp.MountProfiler(r, "/debug", true)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec.Code
	}

	if code := get("/debug/pprof/"); code != http.StatusOK {
		t.Fatalf("GET /debug/pprof/ = %d, want 200", code)
	}
	if code := get("/debug/pprof/cmdline"); code != http.StatusOK {
		t.Fatalf("GET /debug/pprof/cmdline = %d, want 200", code)
	}

	// the bare prefix is covered too; the profiler mux answers it with a
	// redirect toward /pprof/ (stdlib version decides which one)
	switch code := get("/debug"); code {
	case http.StatusMovedPermanently, http.StatusPermanentRedirect, http.StatusNotFound:
	default:
		t.Fatalf("GET /debug = %d, want a redirect or 404", code)
	}
}

func TestMountProfilerDisabledRegistersNothing(t *testing.T) {
	srv := phttp.NewServer(config.New())
	r := srv.Router()
	phttp.MountProfiler(r, "/debug", false)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/debug/pprof/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when disabled, got %d", rec.Code)
	}
}
