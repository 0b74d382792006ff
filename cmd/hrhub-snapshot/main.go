package main

import (
	"context"
	"flag"
	"os"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/sftpx"
	"hrhub/internal/platform/config"
	"hrhub/internal/platform/logger"
	"hrhub/internal/platform/state"

	"hrhub/internal/services/snapshot"
	"hrhub/internal/services/syncstate/repo"
)

// Exit codes: 0 success, 2 configuration error, 3 empty snapshot under
// --fail-on-zero
const (
	exitConfig = 2
	exitEmpty  = 3
)

func main() {
	var (
		fMode       = flag.String("mode", "", "export mode: full | delta (default EXPORT_MODE or full)")
		fRemotePath = flag.String("remote-path", "", "SFTP destination path (default EXPORT_REMOTE_PATH or /employees.csv)")
		fFailOnZero = flag.Bool("fail-on-zero", false, "exit 3 when the snapshot ships no rows")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()
	ctx := context.Background()

	bucket := requireEnv(l, root, "STATE_BUCKET")
	hrisCfg := root.Prefix("HRIS_")
	sftpCfg := root.Prefix("SFTP_")

	blobs, err := state.NewGCS(ctx, bucket)
	if err != nil {
		l.Error().Err(err).Msg("state bucket open failed")
		os.Exit(exitConfig)
	}
	stateRepo := repo.New(blobs)

	hrisClient := hris.New(hris.Options{
		BaseURL: requireEnv(l, hrisCfg, "BASE_URL"),
		Token:   requireEnv(l, hrisCfg, "TOKEN"),
		OrgID:   requireEnv(l, hrisCfg, "ORG_ID"),
	})

	up := sftpx.New(sftpx.Options{
		Host:          requireEnv(l, sftpCfg, "HOST"),
		Port:          sftpCfg.MayString("PORT", "22"),
		Username:      requireEnv(l, sftpCfg, "USERNAME"),
		PrivateKeyPEM: sftpCfg.MayString("PKEY_PEM", ""),
		Passphrase:    sftpCfg.MayString("PASSPHRASE", ""),
		Password:      sftpCfg.MayString("PASSWORD", ""),
	})

	mode := *fMode
	if mode == "" {
		mode = root.MayEnum("EXPORT_MODE", snapshot.ModeFull, snapshot.ModeFull, snapshot.ModeDelta)
	}
	if mode != snapshot.ModeFull && mode != snapshot.ModeDelta {
		l.Error().Str("mode", mode).Msg("mode must be full or delta")
		os.Exit(exitConfig)
	}
	remotePath := *fRemotePath
	if remotePath == "" {
		remotePath = root.MayString("EXPORT_REMOTE_PATH", snapshot.DefaultRemotePath)
	}

	snap := snapshot.New(hrisClient, stateRepo, up, snapshot.Options{
		Mode:       mode,
		RemotePath: remotePath,
	})

	res, err := snap.Export(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("snapshot export failed")
	}

	l.Info().Str("mode", res.Mode).Int("rows", res.Rows).Int("terminated", res.Terminated).
		Int64("bytes", res.Bytes).Bool("skipped", res.Skipped).Str("path", res.RemotePath).
		Msg("snapshot export finished")

	if *fFailOnZero && res.Rows == 0 {
		os.Exit(exitEmpty)
	}
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
