package mirror

import (
	"context"
	"net/url"
	"time"

	"hrhub/internal/adapters/warehouse"
	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/state"
)

// Run mirrors every selected collection. When no filter narrows the run, the
// per-project sub-resources and the holiday detail table follow the catalog
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	start := s.now().UTC()
	if err := s.wh.EnsureDataset(ctx); err != nil {
		s.state.RecordError(ctx, "mirror", err)
		return nil, err
	}
	if err := s.wh.EnsureSyncState(ctx); err != nil {
		s.state.RecordError(ctx, "mirror", err)
		return nil, err
	}

	selected, err := s.selected()
	if err != nil {
		return nil, err
	}

	res := &RunResult{StartedAt: start}
	for _, col := range selected {
		cr, err := s.syncCollection(ctx, col, start)
		if err != nil {
			s.state.RecordError(ctx, "mirror", err)
			return nil, err
		}
		res.Collections = append(res.Collections, *cr)
		res.Rows += cr.Rows
	}

	if len(s.opts.Collections) == 0 {
		projects, subs, err := s.syncProjectSubResources(ctx, start)
		if err != nil {
			s.state.RecordError(ctx, "mirror", err)
			return nil, err
		}
		res.Projects = projects
		for _, cr := range subs {
			res.Collections = append(res.Collections, cr)
			res.Rows += cr.Rows
		}

		hr, err := s.syncHolidaysDetail(ctx, start)
		if err != nil {
			s.state.RecordError(ctx, "mirror", err)
			return nil, err
		}
		res.Collections = append(res.Collections, *hr)
		res.Rows += hr.Rows
	}

	s.state.RecordSync(ctx, "mirror", int64(res.Rows))
	s.log.Info().Int("rows", res.Rows).Int("collections", len(res.Collections)).Msg("mirror run complete")
	return res, nil
}

// selected resolves the configured collection filter against the catalog
func (s *Service) selected() ([]Collection, error) {
	if len(s.opts.Collections) == 0 {
		return Catalog(), nil
	}
	byName := CatalogByName()
	out := make([]Collection, 0, len(s.opts.Collections))
	for _, name := range s.opts.Collections {
		col, ok := byName[name]
		if !ok {
			return nil, perr.InvalidArgf("unknown collection %q", name)
		}
		out = append(out, col)
	}
	return out, nil
}

// window returns the inclusive fact window [start − window_days, start]
func (s *Service) window(start time.Time) (string, string) {
	return start.AddDate(0, 0, -s.opts.WindowDays).Format("2006-01-02"),
		start.Format("2006-01-02")
}

// applyWindow adds the collection's date-bound parameter pair
func applyWindow(col Collection, q url.Values, from, to string) {
	switch col.Window {
	case windowMinMax:
		q.Set("minDate", from)
		q.Set("maxDate", to)
	case windowStartEnd:
		q.Set("startDate", from)
		q.Set("endDate", to)
	}
}

// modifiedAfter derives the delta cursor: checkpoint minus overlap, clamped
// so it never regresses past the window baseline. Zero means full fetch
func (s *Service) modifiedAfter(checkpoint, start time.Time) time.Time {
	if checkpoint.IsZero() {
		return time.Time{}
	}
	baseline := start.AddDate(0, 0, -s.opts.WindowDays)
	ma := checkpoint.Add(-time.Duration(s.opts.OverlapDays) * 24 * time.Hour)
	if ma.Before(baseline) {
		ma = baseline
	}
	return ma.UTC()
}

func (s *Service) syncCollection(ctx context.Context, col Collection, start time.Time) (*CollectionResult, error) {
	q := url.Values{}
	for k, vs := range col.FixedParams {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	since, until := s.window(start)
	applyWindow(col, q, since, until)

	usedDelta := false
	if col.ModifiedAfter {
		cp, err := s.wh.Checkpoint(ctx, col.Name)
		if err != nil {
			return nil, err
		}
		if ma := s.modifiedAfter(cp, start); !ma.IsZero() {
			q.Set("modifiedAfter", ma.Format(time.RFC3339))
			usedDelta = true
		}
	}

	rows, err := s.fetch(ctx, col, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && usedDelta && !col.Windowed() {
		// some tenants never stamp updatedAt; one full retry catches them
		s.log.Debug().Str("collection", col.Name).Msg("empty delta, retrying without modifiedAfter")
		q.Del("modifiedAfter")
		rows, err = s.fetch(ctx, col, q)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		s.log.Info().Str("collection", col.Name).Msg("collection empty, skipped")
		return &CollectionResult{Collection: col.Name, Table: col.Table, Skipped: true}, nil
	}

	normalized, err := normalizeRows(col, rows)
	if err != nil {
		return nil, err
	}
	ck, err := s.loadMerge(ctx, col, normalized, start)
	if err != nil {
		return nil, err
	}
	return &CollectionResult{Collection: col.Name, Table: col.Table, Rows: len(normalized), Checkpoint: ck}, nil
}

// fetch pulls one collection, wrapping single-object answers in a list
func (s *Service) fetch(ctx context.Context, col Collection, q url.Values) ([]map[string]any, error) {
	if col.SingleObject {
		obj, err := s.src.FetchOne(ctx, col.Path, q)
		if err != nil {
			return nil, err
		}
		if len(obj) == 0 {
			return nil, nil
		}
		return []map[string]any{obj}, nil
	}
	return s.src.FetchRaw(ctx, col.Path, q)
}

// normalizeRows attaches the raw payload, synthesizes missing merge keys from
// the content hash, and backfills updatedAt from createdAt
func normalizeRows(col Collection, rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, obj := range rows {
		row := make(map[string]any, len(obj)+1)
		for k, v := range obj {
			row[k] = v
		}
		raw, err := state.CanonicalJSON(obj)
		if err != nil {
			return nil, err
		}
		row["raw"] = string(raw)
		if emptyVal(row[col.PK]) {
			pk, err := state.Digest(obj)
			if err != nil {
				return nil, err
			}
			row[col.PK] = pk
		}
		if col.TSField != "" && emptyVal(row[col.TSField]) && !emptyVal(obj["createdAt"]) {
			row[col.TSField] = obj["createdAt"]
		}
		out = append(out, row)
	}
	return out, nil
}

func emptyVal(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// loadMerge stages the rows, folds them into the target, and advances the
// checkpoint to the batch high-water mark
func (s *Service) loadMerge(ctx context.Context, col Collection, rows []map[string]any, start time.Time) (time.Time, error) {
	staging := warehouse.StagingName(col.Name)
	if err := s.wh.LoadStaging(ctx, staging, rows); err != nil {
		return time.Time{}, err
	}
	defer func() {
		if err := s.wh.DropStaging(ctx, staging); err != nil {
			s.log.Warn().Err(err).Str("table", staging).Msg("drop staging failed")
		}
	}()

	schema, err := s.wh.Schema(ctx, col.Table)
	if err != nil {
		return time.Time{}, err
	}
	if schema == nil {
		if err := s.wh.CreateTargetFromStaging(ctx, col.Table, staging, col.PartitionField); err != nil {
			return time.Time{}, err
		}
	}
	if err := s.wh.Merge(ctx, col.Table, staging, col.PK, col.TSField); err != nil {
		return time.Time{}, err
	}

	ck := maxTimestamp(rows, col.TSField)
	if ck.IsZero() {
		ck = start
	}
	if err := s.wh.AdvanceCheckpoint(ctx, col.Name, ck); err != nil {
		return time.Time{}, err
	}
	s.log.Info().Str("collection", col.Name).Int("rows", len(rows)).
		Time("checkpoint", ck).Msg("collection mirrored")
	return ck, nil
}

// maxTimestamp scans the batch for the highest parseable ts value
func maxTimestamp(rows []map[string]any, tsField string) time.Time {
	var max time.Time
	if tsField == "" {
		return max
	}
	for _, r := range rows {
		str, _ := r[tsField].(string)
		if str == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			continue
		}
		if t.After(max) {
			max = t.UTC()
		}
	}
	return max
}
