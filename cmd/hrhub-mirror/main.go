package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"hrhub/internal/adapters/planner"
	"hrhub/internal/adapters/warehouse"
	"hrhub/internal/platform/config"
	"hrhub/internal/platform/logger"
	"hrhub/internal/platform/state"

	"hrhub/internal/services/mirror"
	"hrhub/internal/services/syncstate/repo"
)

// Exit codes: 0 success, 2 configuration error, 3 empty run under
// --fail-on-zero
const (
	exitConfig = 2
	exitEmpty  = 3
)

func main() {
	var (
		fCollections = flag.String("collections", "", "comma-separated catalog subset (default: everything)")
		fWindowDays  = flag.Int("window-days", 0, "fact window in days (default WINDOW_DAYS or 120)")
		fBackfill    = flag.String("backfill", "", "backfill one fact collection (actuals | assignments) instead of a full run")
		fFrom        = flag.String("from", "", "backfill window start YYYY-MM-DD")
		fTo          = flag.String("to", "", "backfill window end YYYY-MM-DD inclusive")
		fPerson      = flag.Int64("person", 0, "scope the backfill to one planner person id")
		fFailOnZero  = flag.Bool("fail-on-zero", false, "exit 3 when the run lands no rows")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()
	ctx := context.Background()

	blobs, err := state.NewGCS(ctx, requireEnv(l, root, "STATE_BUCKET"))
	if err != nil {
		l.Error().Err(err).Msg("state bucket open failed")
		os.Exit(exitConfig)
	}
	stateRepo := repo.New(blobs)

	runnCfg := root.Prefix("RUNN_")
	src := planner.New(planner.Options{
		BaseURL:    runnCfg.MayString("BASE_URL", "https://api.runn.io"),
		Token:      requireEnv(l, runnCfg, "TOKEN"),
		APIVersion: runnCfg.MayString("API_VERSION", "1.0.0"),
	})

	bqCfg := root.Prefix("BQ_")
	wh, err := warehouse.New(ctx, warehouse.Options{
		ProjectID: requireEnv(l, bqCfg, "PROJECT"),
		Dataset:   bqCfg.MayString("DATASET", "people_analytics"),
		Location:  bqCfg.MayString("LOCATION", ""),
	})
	if err != nil {
		l.Error().Err(err).Msg("warehouse client init failed")
		os.Exit(exitConfig)
	}
	defer func() {
		if err := wh.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close warehouse client")
		}
	}()

	windowDays := *fWindowDays
	if windowDays <= 0 {
		windowDays = root.MayInt("WINDOW_DAYS", 120)
	}
	var collections []string
	if *fCollections != "" {
		for _, c := range strings.Split(*fCollections, ",") {
			if c = strings.TrimSpace(c); c != "" {
				collections = append(collections, c)
			}
		}
	}

	m := mirror.New(src, wh, stateRepo, mirror.Options{
		WindowDays:  windowDays,
		OverlapDays: root.MayInt("OVERLAP_DAYS", 7),
		Workers:     root.MayInt("MIRROR_WORKERS", 4),
		Collections: collections,
	})

	if *fBackfill != "" {
		runBackfill(ctx, l, m, *fBackfill, *fFrom, *fTo, *fPerson)
		return
	}

	res, err := m.Run(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("mirror run failed")
	}
	l.Info().Int("rows", res.Rows).Int("projects", res.Projects).
		Int("collections", len(res.Collections)).Msg("mirror run finished")

	if *fFailOnZero && res.Rows == 0 {
		os.Exit(exitEmpty)
	}
}

func runBackfill(ctx context.Context, l *logger.Logger, m *mirror.Service, collection, from, to string, person int64) {
	if from == "" || to == "" {
		l.Error().Msg("backfill requires -from and -to")
		os.Exit(exitConfig)
	}
	req := mirror.BackfillRequest{Collection: collection, DateFrom: from, DateTo: to}
	if person > 0 {
		req.PersonID = &person
	}
	res, err := m.Backfill(ctx, req)
	if err != nil {
		l.Fatal().Err(err).Msg("backfill failed")
	}
	l.Info().Str("collection", res.Collection).Int("rows", res.Rows).
		Bool("skipped", res.Skipped).Msg("backfill finished")
}

// requireEnv reads a key that must be present, exiting with the config code
// instead of panicking so schedulers can tell misconfiguration from failure
func requireEnv(l *logger.Logger, cfg config.Conf, key string) string {
	v := cfg.MayString(key, "")
	if v == "" {
		l.Error().Str("key", key).Msg("missing required configuration")
		os.Exit(exitConfig)
	}
	return v
}
