// Package repo persists sync-state documents in the state blob store
package repo

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
	"hrhub/internal/platform/state"
	"hrhub/internal/services/syncstate/domain"
)

// Repo loads and saves the manifest, mapping, and metrics documents
type Repo struct {
	blobs state.Blobs
	log   logger.Logger
	now   func() time.Time
}

// New binds a Repo to a blob store
func New(blobs state.Blobs) *Repo {
	return &Repo{blobs: blobs, log: *logger.Named("syncstate"), now: time.Now}
}

// LoadManifest returns the stored manifest, or (nil, nil) when none exists yet
func (r *Repo) LoadManifest(ctx context.Context) (*domain.Manifest, error) {
	data, err := r.blobs.Get(ctx, domain.ManifestObject)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "manifest decode failed")
	}
	if m.Rows == nil {
		m.Rows = map[string]domain.ManifestRow{}
	}
	return &m, nil
}

// SaveManifest overwrites the stored manifest
func (r *Repo) SaveManifest(ctx context.Context, m *domain.Manifest) error {
	data, err := state.CanonicalJSON(m)
	if err != nil {
		return err
	}
	return r.blobs.Put(ctx, domain.ManifestObject, data)
}

// LoadMapping returns the time-off mapping, empty when none exists yet
func (r *Repo) LoadMapping(ctx context.Context) (*domain.TimeoffMapping, error) {
	data, err := r.blobs.Get(ctx, domain.MappingObject)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.NewTimeoffMapping(), nil
		}
		return nil, err
	}
	var m domain.TimeoffMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "timeoff mapping decode failed")
	}
	if m.Forward == nil {
		m.Forward = map[string]domain.MappingEntry{}
	}
	if m.Reverse == nil {
		m.Reverse = map[string]string{}
	}
	return &m, nil
}

// SaveMapping prunes expired entries then overwrites the stored mapping
func (r *Repo) SaveMapping(ctx context.Context, m *domain.TimeoffMapping) error {
	pruned := r.prune(m)
	if pruned > 0 {
		r.log.Info().Int("pruned", pruned).Msg("timeoff mapping entries expired")
	}
	data, err := state.CanonicalJSON(m)
	if err != nil {
		return err
	}
	return r.blobs.Put(ctx, domain.MappingObject, data)
}

// prune drops forward entries older than the TTL and their reverse keys
func (r *Repo) prune(m *domain.TimeoffMapping) int {
	cutoff := r.now().Add(-domain.MappingTTL)
	pruned := 0
	for id, e := range m.Forward {
		if !e.CreatedAt.IsZero() && e.CreatedAt.Before(cutoff) {
			delete(m.Forward, id)
			delete(m.Reverse, strconv.FormatInt(e.PlannerID, 10))
			pruned++
		}
	}
	return pruned
}

// LoadMetrics returns the metrics document, empty when none exists yet
func (r *Repo) LoadMetrics(ctx context.Context) (*domain.Metrics, error) {
	data, err := r.blobs.Get(ctx, domain.MetricsObject)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.NewMetrics(), nil
		}
		return nil, err
	}
	var m domain.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "sync metrics decode failed")
	}
	if m.LastSync == nil {
		m.LastSync = map[string]time.Time{}
	}
	if m.Counters == nil {
		m.Counters = map[string]int64{}
	}
	return &m, nil
}

// SaveMetrics overwrites the stored metrics document
func (r *Repo) SaveMetrics(ctx context.Context, m *domain.Metrics) error {
	data, err := state.CanonicalJSON(m)
	if err != nil {
		return err
	}
	return r.blobs.Put(ctx, domain.MetricsObject, data)
}

// RecordSync loads metrics, bumps a counter, stamps last_sync, and saves.
// Failures here must never fail the sync that called it, so errors are logged only
func (r *Repo) RecordSync(ctx context.Context, kind string, n int64) {
	m, err := r.LoadMetrics(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("metrics load failed")
		return
	}
	m.Counters[kind] += n
	m.LastSync[kind] = r.now().UTC()
	if err := r.SaveMetrics(ctx, m); err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("metrics save failed")
	}
}

// RecordError loads metrics, prepends the failure to the bounded ring, and saves
func (r *Repo) RecordError(ctx context.Context, kind string, cause error) {
	m, err := r.LoadMetrics(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("metrics load failed")
		return
	}
	m.Counters[kind+"_errors"]++
	entry := domain.SyncError{At: r.now().UTC(), Kind: kind, Message: cause.Error()}
	m.LastErrors = append([]domain.SyncError{entry}, m.LastErrors...)
	if len(m.LastErrors) > domain.MaxLastErrors {
		m.LastErrors = m.LastErrors[:domain.MaxLastErrors]
	}
	if err := r.SaveMetrics(ctx, m); err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("metrics save failed")
	}
}
