package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler exposes the runtime pprof handlers under prefix (e.g. "/debug")
// when the service config opts in. Off means nothing is registered at all
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	h := stdhttp.StripPrefix(prefix, mw.Profiler())
	serve := func(w stdhttp.ResponseWriter, req *stdhttp.Request) { h.ServeHTTP(w, req) }

	// the Router facade has no Mount, so register the prefix and its subtree
	r.Get(prefix, serve)
	r.Get(prefix+"/*", serve)
}
