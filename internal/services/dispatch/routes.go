package dispatch

import (
	phttp "hrhub/internal/platform/net/http"
	"hrhub/internal/platform/net/middleware"
)

// Mount registers the full inbound surface on the router. Each prefix is
// scoped so downstream log lines carry the surface the request came in on
func Mount(r phttp.Router, s *Service) {
	r.Get("/health", s.Health)
	r.Get("/version", s.Version)
	r.Get("/", s.Root)
	r.Post("/", s.Root)

	r.Route("/webhooks", func(rr phttp.Router) {
		rr.Use(middleware.Scope("webhook"))
		rr.Post("/hris", s.WebhookHRIS)
		rr.Post("/ats", s.WebhookATS)
	})

	r.Route("/cron", func(rr phttp.Router) {
		rr.Use(middleware.Scope("cron"))
		rr.Get("/nightly", s.CronNightly)
		phttp.GetJSON(rr, "/onboarding", s.CronOnboarding)
		phttp.GetJSON(rr, "/timeoff", s.CronTimeoff)
		rr.Get("/compensation", s.CronCompensation)
		rr.Get("/recalculate-ctc", s.CronRecalculateCTC)
	})

	r.Route("/tasks", func(rr phttp.Router) {
		rr.Use(middleware.Scope("task"))
		phttp.PostJSON(rr, "/worker", s.Worker)
		rr.Post("/export-snapshot", phttp.JSONHandlerNoBody(s.TaskExportSnapshot))
		rr.Post("/export-warehouse", phttp.JSONHandlerNoBody(s.TaskExportWarehouse))
	})
}
