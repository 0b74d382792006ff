package hris

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strings"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// ImportRow is one CSV import record; Keys preserves first-seen column order
type ImportRow struct {
	Keys   []string
	Values map[string]string
}

// NewImportRow builds an ordered row from key/value pairs
func NewImportRow(pairs ...[2]string) ImportRow {
	r := ImportRow{Values: map[string]string{}}
	for _, p := range pairs {
		r.Set(p[0], p[1])
	}
	return r
}

// Set adds or replaces a column, trimming both key and value
func (r *ImportRow) Set(key, value string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if _, ok := r.Values[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = strings.TrimSpace(value)
}

// ImportPeopleCSV submits a people CSV import in the three-step flow:
// create the import, attach the data, then submit with invites disabled
func (c *Client) ImportPeopleCSV(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	payload, n, err := buildImportCSV(rows)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return &ImportResult{Submitted: false, Reason: "no rows"}, nil
	}

	create, err := httpx.JSON[map[string]any](ctx, c.http, http.MethodPost,
		c.v1("/import/csv"), nil, map[string]string{"type": "person", "recordType": "person"})
	if err != nil {
		return nil, err
	}
	importID := firstString(create, "importId", "import_id", "id")
	if importID == "" {
		return nil, perr.Upstreamf("hris csv import did not return an importId")
	}

	if err := c.http.Discard(ctx, http.MethodPost, c.v1("/import/csv/data"), nil,
		map[string]any{"importId": importID, "data": payload, "hasHeaders": true}); err != nil {
		return nil, err
	}

	if err := c.http.Discard(ctx, http.MethodPost, c.v1("/import/csv/submit"), nil,
		map[string]any{"importId": importID, "options": map[string]any{"sendInviteEmails": false}}); err != nil {
		return nil, err
	}

	c.log.Info().Str("import_id", importID).Int("rows", n).Msg("people csv import submitted")
	return &ImportResult{ImportID: importID, Rows: n, Submitted: true}, nil
}

// buildImportCSV renders the rows with a union header in first-seen order
func buildImportCSV(rows []ImportRow) (string, int, error) {
	var header []string
	seen := map[string]bool{}
	var kept []ImportRow
	for _, r := range rows {
		if len(r.Values) == 0 {
			continue
		}
		kept = append(kept, r)
		for _, k := range r.Keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	if len(kept) == 0 {
		return "", 0, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "import csv header failed")
	}
	for _, r := range kept {
		record := make([]string, len(header))
		for i, k := range header {
			record[i] = r.Values[k]
		}
		if err := w.Write(record); err != nil {
			return "", 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "import csv row failed")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "import csv flush failed")
	}
	return buf.String(), len(kept), nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
