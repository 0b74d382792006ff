package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"hrhub/internal/adapters/ats"
	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
	"hrhub/internal/adapters/sftpx"
	"hrhub/internal/adapters/tasks"
	"hrhub/internal/adapters/warehouse"
	"hrhub/internal/platform/config"
	"hrhub/internal/platform/logger"
	phttp "hrhub/internal/platform/net/http"
	"hrhub/internal/platform/net/middleware"
	"hrhub/internal/platform/state"

	"hrhub/internal/services/dispatch"
	"hrhub/internal/services/mirror"
	"hrhub/internal/services/reconcile"
	"hrhub/internal/services/snapshot"
	"hrhub/internal/services/syncstate/repo"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("HRHUB_API_")

	// bring up logging early
	l := logger.Get()

	// Cloud Run delivers SIGTERM before killing the instance; cancelling the
	// root context lets in-flight webhooks drain through the server shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := state.NewGCS(ctx, root.MustString("STATE_BUCKET"))
	if err != nil {
		l.Panic().Err(err).Msg("state bucket open failed")
	}
	stateRepo := repo.New(blobs)

	hrisCfg := root.Prefix("HRIS_")
	hrisClient := hris.New(hris.Options{
		BaseURL: hrisCfg.MustString("BASE_URL"),
		Token:   hrisCfg.MustString("TOKEN"),
		OrgID:   hrisCfg.MustString("ORG_ID"),
	})

	runnCfg := root.Prefix("RUNN_")
	plannerClient := planner.New(planner.Options{
		BaseURL:    runnCfg.MayString("BASE_URL", "https://api.runn.io"),
		Token:      runnCfg.MustString("TOKEN"),
		APIVersion: runnCfg.MayString("API_VERSION", "1.0.0"),
	})

	ttCfg := root.Prefix("TT_")
	atsClient := ats.New(ats.Options{
		BaseURL: ttCfg.MustString("BASE_URL"),
		Token:   ttCfg.MustString("TOKEN"),
	})

	rec := reconcile.New(hrisClient, plannerClient, atsClient, stateRepo, reconcile.Options{
		AnnualHours:          root.MayFloat64("ANNUAL_HOURS", 1856),
		SchemeField:          root.MayString("SCHEME_FIELD", "hiring scheme"),
		CorpEmailDomain:      root.MayString("CORP_EMAIL_DOMAIN", ""),
		AutoAssignWorkEmail:  root.MayBool("AUTO_ASSIGN_WORK_EMAIL", false),
		CreatePlannerOnHire:  root.MayBool("PLANNER_CREATE_ON_HIRE", false),
		ATSSignatureKey:      ttCfg.MayString("SIGNATURE_KEY", ""),
		HRISJobLinkField:     root.MayString("HRIS_JOB_LINK_FIELD", ""),
		ATSJobLinkField:      root.MayString("ATS_JOB_LINK_FIELD", ""),
		TimeoffLookbackDays:  root.MayInt("TIMEOFF_LOOKBACK_DAYS", 7),
		TimeoffLookaheadDays: root.MayInt("TIMEOFF_LOOKAHEAD_DAYS", 60),
		OnboardLookaheadDays: root.MayInt("ONBOARD_LOOKAHEAD_DAYS", 30),
	})

	enq, err := tasks.New(ctx, tasks.Options{
		Project:             root.MustString("TASKS_PROJECT"),
		Location:            queueLocation(root, l),
		Queue:               root.MustString("TASKS_QUEUE"),
		ServiceURL:          root.MustString("TASKS_SERVICE_URL"),
		ServiceAccountEmail: root.MustString("TASKS_SERVICE_ACCOUNT"),
	})
	if err != nil {
		l.Panic().Err(err).Msg("cloud tasks init failed")
	}

	disp := dispatch.New(rec, enq, dispatch.Options{
		SignatureKey:    ttCfg.MayString("SIGNATURE_KEY", ""),
		ExportSnapshot:  snapshotRunner(root, hrisClient, stateRepo),
		ExportWarehouse: mirrorRunner(ctx, root, l, plannerClient, stateRepo),
	})

	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		for _, mw := range middleware.Defaults() {
			m.Use(mw)
		}
		m.Use(middleware.RecoverJSON)
		// webhooks and task callbacks are server-to-server; CORS only matters
		// when a browser dashboard polls the cron summaries directly
		if origins := apiCfg.MayCSV("CORS_ORIGINS", nil); len(origins) > 0 {
			m.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins}))
		}
		m.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow:      apiCfg.MayDuration("SLOW_REQUEST", 2*time.Second),
			SkipPaths: []string{"/health"},
		}))
	})
	dispatch.Mount(srv.Router(), disp)
	phttp.MountSwagger(srv.Router(), apiCfg.MayBool("SWAGGER", false))
	phttp.MountProfiler(srv.Router(), "/debug", apiCfg.MayBool("PROFILER", false))

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// queueLocation resolves the Cloud Tasks region. TASKS_LOCATION is
// authoritative; a disagreeing legacy QUEUE_REGION is a deploy mistake and
// stops startup before anything enqueues into the wrong region
func queueLocation(root config.Conf, l *logger.Logger) string {
	loc := root.MayString("TASKS_LOCATION", "")
	legacy := root.MayString("QUEUE_REGION", "")
	switch {
	case loc == "" && legacy == "":
		l.Panic().Msg("TASKS_LOCATION is required")
	case loc == "":
		l.Warn().Str("region", legacy).Msg("QUEUE_REGION is deprecated, set TASKS_LOCATION")
		return legacy
	case legacy != "" && legacy != loc:
		l.Panic().Str("tasks_location", loc).Str("queue_region", legacy).
			Msg("TASKS_LOCATION and QUEUE_REGION disagree")
	}
	return loc
}

// snapshotRunner wires the CSV export behind /tasks/export-snapshot when the
// SFTP target is configured; otherwise the endpoint answers 503
func snapshotRunner(root config.Conf, h *hris.Client, st *repo.Repo) dispatch.Runner {
	sftpCfg := root.Prefix("SFTP_")
	host := sftpCfg.MayString("HOST", "")
	if host == "" {
		return nil
	}
	up := sftpx.New(sftpx.Options{
		Host:          host,
		Port:          sftpCfg.MayString("PORT", "22"),
		Username:      sftpCfg.MustString("USERNAME"),
		PrivateKeyPEM: sftpCfg.MayString("PKEY_PEM", ""),
		Passphrase:    sftpCfg.MayString("PASSPHRASE", ""),
		Password:      sftpCfg.MayString("PASSWORD", ""),
	})
	snap := snapshot.New(h, st, up, snapshot.Options{
		Mode:       root.MayEnum("EXPORT_MODE", snapshot.ModeFull, snapshot.ModeFull, snapshot.ModeDelta),
		RemotePath: root.MayString("EXPORT_REMOTE_PATH", snapshot.DefaultRemotePath),
	})
	return func(ctx context.Context) (any, error) { return snap.Export(ctx) }
}

// mirrorRunner wires the warehouse mirror behind /tasks/export-warehouse when
// the BigQuery target is configured; otherwise the endpoint answers 503
func mirrorRunner(ctx context.Context, root config.Conf, l *logger.Logger, src *planner.Client, st *repo.Repo) dispatch.Runner {
	bqCfg := root.Prefix("BQ_")
	project := bqCfg.MayString("PROJECT", "")
	if project == "" {
		return nil
	}
	wh, err := warehouse.New(ctx, warehouse.Options{
		ProjectID: project,
		Dataset:   bqCfg.MayString("DATASET", "people_analytics"),
		Location:  bqCfg.MayString("LOCATION", ""),
	})
	if err != nil {
		l.Panic().Err(err).Msg("warehouse client init failed")
	}
	m := mirror.New(src, wh, st, mirror.Options{
		WindowDays:  root.MayInt("WINDOW_DAYS", 120),
		OverlapDays: root.MayInt("OVERLAP_DAYS", 7),
		Workers:     root.MayInt("MIRROR_WORKERS", 4),
	})
	return func(ctx context.Context) (any, error) { return m.Run(ctx) }
}
