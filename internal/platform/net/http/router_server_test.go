package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrhub/internal/platform/config"
	phttp "hrhub/internal/platform/net/http"
)

func TestNewServerDefaultAddrAndRouting(t *testing.T) {
	t.Setenv("PORT", "") // ignore whatever the host environment injects

	srv := phttp.NewServer(config.New())
	if srv.Addr() != ":8080" {
		t.Fatalf("default addr = %q, want :8080", srv.Addr())
	}

	r := srv.Router()
	if r == nil || r.Mux() == nil {
		t.Fatal("router or mux is nil")
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "up")
	})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "up" {
		t.Fatalf("bad response: %d %q", rec.Code, rec.Body.String())
	}
}
