package warehouse

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	perr "hrhub/internal/platform/errors"
)

// SyncStateTable keeps one row per collection with its last successful batch
const SyncStateTable = "__sync_state"

var syncStateSchema = bigquery.Schema{
	{Name: "collection", Type: bigquery.StringFieldType, Required: true},
	{Name: "last_success_ts", Type: bigquery.TimestampFieldType},
}

// EnsureSyncState creates the checkpoint table when missing
func (c *Client) EnsureSyncState(ctx context.Context) error {
	err := c.table(SyncStateTable).Create(ctx, &bigquery.TableMetadata{Schema: syncStateSchema})
	if err != nil && !isAlreadyExists(err) {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "create %s failed", SyncStateTable)
	}
	return nil
}

// Checkpoint returns a collection's last successful batch time, zero when the
// collection has never completed
func (c *Client) Checkpoint(ctx context.Context, collection string) (time.Time, error) {
	sql := "SELECT last_success_ts FROM " + c.qualified(SyncStateTable) + " WHERE collection = @collection"
	it, err := c.query(ctx, sql, []bigquery.QueryParameter{{Name: "collection", Value: collection}})
	if err != nil {
		return time.Time{}, err
	}
	var row struct {
		LastSuccessTS bigquery.NullTimestamp `bigquery:"last_success_ts"`
	}
	switch err := it.Next(&row); err {
	case nil:
		if !row.LastSuccessTS.Valid {
			return time.Time{}, nil
		}
		return row.LastSuccessTS.Timestamp.UTC(), nil
	case iterator.Done:
		return time.Time{}, nil
	default:
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "checkpoint read for %s failed", collection)
	}
}

// AdvanceCheckpoint moves a collection's checkpoint forward. Older or equal
// timestamps are ignored so the high-water mark never regresses
func (c *Client) AdvanceCheckpoint(ctx context.Context, collection string, ts time.Time) error {
	if ts.IsZero() {
		return perr.InvalidArgf("checkpoint timestamp is required")
	}
	sql := "MERGE " + c.qualified(SyncStateTable) + ` T
USING (SELECT @collection AS collection, @ts AS last_success_ts) S
ON T.collection = S.collection
WHEN MATCHED AND (T.last_success_ts IS NULL OR S.last_success_ts > T.last_success_ts)
  THEN UPDATE SET last_success_ts = S.last_success_ts
WHEN NOT MATCHED THEN INSERT (collection, last_success_ts) VALUES (S.collection, S.last_success_ts)`
	params := []bigquery.QueryParameter{
		{Name: "collection", Value: collection},
		{Name: "ts", Value: ts.UTC()},
	}
	return c.run(ctx, sql, params)
}
