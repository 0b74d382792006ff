package mirror

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// syncProjectSubResources pulls each project's nested collections with a
// bounded fan-out, then lands every aggregated table. Rows carry projectId
// so facts join without a second hop
func (s *Service) syncProjectSubResources(ctx context.Context, start time.Time) (int, []CollectionResult, error) {
	projects, err := s.src.FetchRaw(ctx, "/projects", nil)
	if err != nil {
		return 0, nil, err
	}
	pids := projectIDs(projects)
	since, until := s.window(start)

	subs := projectSubResources()
	agg := make(map[string][]map[string]any, len(subs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, pid := range pids {
		g.Go(func() error {
			for _, sub := range subs {
				q := url.Values{}
				applyWindow(sub.Collection, q, since, until)
				rows, err := s.src.FetchRaw(gctx, sub.path(pid), q)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					continue
				}
				for _, r := range rows {
					r["projectId"] = pid
				}
				mu.Lock()
				agg[sub.Name] = append(agg[sub.Name], rows...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	results := make([]CollectionResult, 0, len(subs))
	for _, sub := range subs {
		cr, err := s.landAggregated(ctx, sub.Collection, agg[sub.Name], start)
		if err != nil {
			return 0, nil, err
		}
		results = append(results, *cr)
	}
	return len(pids), results, nil
}

// syncHolidaysDetail flattens every holiday group's member days into one table
func (s *Service) syncHolidaysDetail(ctx context.Context, start time.Time) (*CollectionResult, error) {
	groups, err := s.src.FetchRaw(ctx, "/holiday-groups", nil)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	for _, g := range groups {
		gid, ok := asInt64(g["id"])
		if !ok {
			continue
		}
		hs, err := s.src.FetchRaw(ctx, fmt.Sprintf("/holiday-groups/%d/holidays", gid), nil)
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			h["holidayGroupId"] = gid
		}
		rows = append(rows, hs...)
	}
	return s.landAggregated(ctx, holidaysDetail, rows, start)
}

// landAggregated normalizes and merges one aggregated batch, or skips when
// the batch is empty
func (s *Service) landAggregated(ctx context.Context, col Collection, rows []map[string]any, start time.Time) (*CollectionResult, error) {
	if len(rows) == 0 {
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

func projectIDs(rows []map[string]any) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if id, ok := asInt64(r["id"]); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// asInt64 coerces the JSON number shapes an id can decode into
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
