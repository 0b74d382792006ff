package snapshot

import (
	"context"
	"encoding/csv"
	"io"
	"sort"

	"hrhub/internal/adapters/hris"
	perr "hrhub/internal/platform/errors"
	"hrhub/internal/services/syncstate/domain"
)

// termFields projects just enough to stamp a leaver's end date
const termFields = "id,endDateOrg"

// Export runs one snapshot export in the configured mode
func (s *Service) Export(ctx context.Context) (*Result, error) {
	rows, err := s.collectRows(ctx)
	if err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}

	switch s.opts.Mode {
	case ModeDelta:
		return s.exportDelta(ctx, rows)
	case ModeFull:
		return s.exportFull(ctx, rows)
	default:
		return nil, perr.InvalidArgf("unknown export mode %q", s.opts.Mode)
	}
}

func (s *Service) collectRows(ctx context.Context) ([]Row, error) {
	jobCache := map[string]string{}
	var rows []Row
	err := s.hris.ForEachPerson(ctx, hris.PeopleFields, func(p hris.Person) error {
		row, ok, err := s.buildRow(ctx, p, jobCache)
		if err != nil {
			return err
		}
		if ok {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// exportFull uploads every row and rewrites the manifest from scratch
func (s *Service) exportFull(ctx context.Context, rows []Row) (*Result, error) {
	res := &Result{Mode: ModeFull, Rows: len(rows), RemotePath: s.opts.RemotePath}
	if len(rows) == 0 {
		// a header-only file is never uploaded
		s.log.Warn().Msg("snapshot produced no rows, skipping upload")
		res.Skipped = true
		return res, nil
	}

	n, err := s.upload(ctx, rows)
	if err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}
	res.Bytes = n

	if err := s.state.SaveManifest(ctx, s.manifestFrom(rows)); err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}
	s.state.RecordSync(ctx, "snapshot", int64(len(rows)))
	s.log.Info().Int("rows", len(rows)).Int64("bytes", n).Msg("full snapshot uploaded")
	return res, nil
}

// exportDelta uploads only new, changed, and terminated rows. The manifest is
// rewritten to the current snapshot afterwards, so leavers drop out once
// their terminal row has shipped
func (s *Service) exportDelta(ctx context.Context, rows []Row) (*Result, error) {
	prev, err := s.state.LoadManifest(ctx)
	if err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}
	if prev == nil {
		s.log.Info().Msg("no prior manifest, falling back to full export")
		res, err := s.exportFull(ctx, rows)
		if res != nil {
			res.Mode = ModeDelta
		}
		return res, err
	}

	current := make(map[string]Row, len(rows))
	for _, r := range rows {
		current[r.EmployeeID] = r
	}

	var toSend []Row
	for _, r := range rows {
		old, ok := prev.Rows[r.EmployeeID]
		if !ok || old.Hash != r.Hash {
			toSend = append(toSend, r)
		}
	}

	terminated := 0
	deferred := map[string]domain.ManifestRow{}
	for empID, old := range prev.Rows {
		if _, ok := current[empID]; ok {
			continue
		}
		row, ok, err := s.terminalRow(ctx, empID, old)
		if err != nil {
			s.state.RecordError(ctx, "snapshot", err)
			return nil, err
		}
		if !ok {
			// no end date known yet; keep the entry and try again next run
			s.log.Info().Str("employee_id", empID).Msg("leaver without end date, deferred")
			deferred[empID] = old
			continue
		}
		toSend = append(toSend, row)
		terminated++
	}

	next := s.manifestFrom(rows)
	for empID, old := range deferred {
		next.Rows[empID] = old
	}

	res := &Result{Mode: ModeDelta, Rows: len(toSend), Terminated: terminated, RemotePath: s.opts.RemotePath}

	if len(toSend) == 0 {
		if err := s.state.SaveManifest(ctx, next); err != nil {
			s.state.RecordError(ctx, "snapshot", err)
			return nil, err
		}
		res.Skipped = true
		s.log.Info().Int("current", len(rows)).Msg("delta snapshot empty, upload skipped")
		return res, nil
	}

	sort.Slice(toSend, func(i, j int) bool { return toSend[i].EmployeeID < toSend[j].EmployeeID })
	n, err := s.upload(ctx, toSend)
	if err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}
	res.Bytes = n

	if err := s.state.SaveManifest(ctx, next); err != nil {
		s.state.RecordError(ctx, "snapshot", err)
		return nil, err
	}
	s.state.RecordSync(ctx, "snapshot", int64(len(toSend)))
	s.log.Info().Int("rows", len(toSend)).Int("terminated", terminated).
		Int64("bytes", n).Msg("delta snapshot uploaded")
	return res, nil
}

// terminalRow produces the final row for someone who left the snapshot.
// A prior row that already carried an end date ships as-is; otherwise the
// HRIS person's endDateOrg is stamped in. No end date means defer
func (s *Service) terminalRow(ctx context.Context, empID string, old domain.ManifestRow) (Row, bool, error) {
	row := Row{EmployeeID: empID, PersonID: old.PersonID, Values: append([]string(nil), old.Row...)}
	if row.Get("End Date") != "" {
		return row, true, nil
	}
	if old.PersonID == "" {
		return Row{}, false, nil
	}
	p, err := s.hris.GetPersonProjected(ctx, old.PersonID, termFields)
	if err != nil {
		return Row{}, false, err
	}
	if p == nil {
		return Row{}, false, nil
	}
	end := hris.NormDate(p.EndDateOrg)
	if end == "" {
		return Row{}, false, nil
	}
	row.set("End Date", end)
	return row, true, nil
}

// upload streams the CSV through a pipe so the file is never held in memory
func (s *Service) upload(ctx context.Context, rows []Row) (int64, error) {
	pr, pw := io.Pipe()
	go func() {
		w := csv.NewWriter(pw)
		err := w.Write(Columns)
		for _, row := range rows {
			if err != nil {
				break
			}
			err = w.Write(row.Values)
		}
		if err == nil {
			w.Flush()
			err = w.Error()
		}
		pw.CloseWithError(err)
	}()
	defer pr.Close()
	return s.uploader.Upload(ctx, s.opts.RemotePath, pr)
}

func (s *Service) manifestFrom(rows []Row) *domain.Manifest {
	m := domain.NewManifest()
	m.GeneratedAt = s.now().UTC()
	for _, r := range rows {
		m.Rows[r.EmployeeID] = domain.ManifestRow{Hash: r.Hash, PersonID: r.PersonID, Row: r.Values}
	}
	return m
}
