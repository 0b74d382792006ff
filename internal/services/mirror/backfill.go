package mirror

import (
	"context"
	"net/url"

	perr "hrhub/internal/platform/errors"
)

// backfillDateField maps the fact collections that support backfill onto the
// column the scoped delete windows on
var backfillDateField = map[string]string{
	"actuals":     "date",
	"assignments": "startDate",
}

// BackfillRequest reloads one date window of a fact collection. The window
// replaces whatever the warehouse holds for those days
type BackfillRequest struct {
	Collection string `json:"collection"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	PersonID   *int64 `json:"person_id,omitempty"`
}

// Backfill fetches the requested window, deletes the matching target rows,
// and merges the fresh batch in their place
func (s *Service) Backfill(ctx context.Context, req BackfillRequest) (*CollectionResult, error) {
	dateField, ok := backfillDateField[req.Collection]
	if !ok {
		return nil, perr.InvalidArgf("collection %q does not support backfill", req.Collection)
	}
	if req.DateFrom == "" || req.DateTo == "" {
		return nil, perr.InvalidArgf("date_from and date_to are required")
	}
	if req.DateTo < req.DateFrom {
		return nil, perr.InvalidArgf("date_to %s precedes date_from %s", req.DateTo, req.DateFrom)
	}
	col := CatalogByName()[req.Collection]

	q := url.Values{}
	applyWindow(col, q, req.DateFrom, req.DateTo)
	rows, err := s.fetch(ctx, col, q)
	if err != nil {
		s.state.RecordError(ctx, "mirror_backfill", err)
		return nil, err
	}
	if req.PersonID != nil {
		rows = filterPerson(rows, *req.PersonID)
	}

	// the window is authoritative: clear it even when the fetch came back empty
	if err := s.wh.DeleteWindow(ctx, col.Table, dateField, req.DateFrom, req.DateTo, req.PersonID); err != nil {
		s.state.RecordError(ctx, "mirror_backfill", err)
		return nil, err
	}

	if len(rows) == 0 {
		s.log.Info().Str("collection", col.Name).Str("from", req.DateFrom).Str("to", req.DateTo).
			Msg("backfill window empty after delete")
		return &CollectionResult{Collection: col.Name, Table: col.Table, Skipped: true}, nil
	}

	normalized, err := normalizeRows(col, rows)
	if err != nil {
		return nil, err
	}
	ck, err := s.loadMerge(ctx, col, normalized, s.now().UTC())
	if err != nil {
		s.state.RecordError(ctx, "mirror_backfill", err)
		return nil, err
	}
	s.state.RecordSync(ctx, "mirror_backfill", int64(len(normalized)))
	s.log.Info().Str("collection", col.Name).Int("rows", len(normalized)).
		Str("from", req.DateFrom).Str("to", req.DateTo).Msg("backfill merged")
	return &CollectionResult{Collection: col.Name, Table: col.Table, Rows: len(normalized), Checkpoint: ck}, nil
}

func filterPerson(rows []map[string]any, personID int64) []map[string]any {
	out := rows[:0]
	for _, r := range rows {
		if id, ok := asInt64(r["personId"]); ok && id == personID {
			out = append(out, r)
		}
	}
	return out
}
