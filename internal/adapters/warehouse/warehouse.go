// Package warehouse mirrors planner collections into BigQuery. Pages land in
// a staging table via a truncate-load, then a schema-tolerant MERGE folds them
// into the target. Checkpoints live in the warehouse itself
package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
)

// Options configures the Client
type Options struct {
	ProjectID string
	Dataset   string
	Location  string

	ClientOptions []option.ClientOption
}

// Client wraps the BigQuery client for one dataset
type Client struct {
	bq       *bigquery.Client
	dataset  string
	location string
	log      logger.Logger
}

// New creates a Client and verifies nothing; call EnsureDataset before loading
func New(ctx context.Context, o Options) (*Client, error) {
	bq, err := bigquery.NewClient(ctx, o.ProjectID, o.ClientOptions...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "bigquery client init failed")
	}
	return &Client{
		bq:       bq,
		dataset:  o.Dataset,
		location: o.Location,
		log:      *logger.Named("warehouse"),
	}, nil
}

// Close releases the underlying client
func (c *Client) Close() error { return c.bq.Close() }

// Project returns the billing project id
func (c *Client) Project() string { return c.bq.Project() }

func (c *Client) table(name string) *bigquery.Table {
	return c.bq.Dataset(c.dataset).Table(name)
}

func (c *Client) qualified(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", c.bq.Project(), c.dataset, name)
}

// EnsureDataset creates the dataset when it does not exist yet
func (c *Client) EnsureDataset(ctx context.Context) error {
	ds := c.bq.Dataset(c.dataset)
	if _, err := ds.Metadata(ctx); err == nil {
		return nil
	}
	err := ds.Create(ctx, &bigquery.DatasetMetadata{Location: c.location})
	if err != nil && !isAlreadyExists(err) {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "create dataset %s failed", c.dataset)
	}
	return nil
}

// StagingName derives a unique staging table name for one batch of a collection
func StagingName(collection string) string {
	safe := strings.NewReplacer("-", "_", "/", "_", ".", "_").Replace(collection)
	return fmt.Sprintf("_stg_%s_%s", safe, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// LoadStaging truncate-loads rows as autodetected JSON into the staging table
// and waits for the job. Rows marshal to one NDJSON line each
func (c *Client) LoadStaging(ctx context.Context, staging string, rows []map[string]any) error {
	if len(rows) == 0 {
		return perr.InvalidArgf("no rows to load into %s", staging)
	}
	var b strings.Builder
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "staging row marshal failed")
		}
		b.Write(line)
		b.WriteByte('\n')
	}

	src := bigquery.NewReaderSource(strings.NewReader(b.String()))
	src.SourceFormat = bigquery.JSON
	src.AutoDetect = true

	loader := c.table(staging).LoaderFrom(src)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.Location = c.location

	job, err := loader.Run(ctx)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "staging load %s start failed", staging)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "staging load %s wait failed", staging)
	}
	if err := status.Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "staging load %s failed", staging)
	}
	c.log.Debug().Str("table", staging).Int("rows", len(rows)).Msg("staging loaded")
	return nil
}

// DropStaging removes a staging table, tolerating one that is already gone
func (c *Client) DropStaging(ctx context.Context, staging string) error {
	err := c.table(staging).Delete(ctx)
	if err != nil && !isNotFound(err) {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "drop staging %s failed", staging)
	}
	return nil
}

// Schema returns a table's schema, nil when the table does not exist
func (c *Client) Schema(ctx context.Context, name string) (bigquery.Schema, error) {
	md, err := c.table(name).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "table %s metadata failed", name)
	}
	return md.Schema, nil
}

// CreateTargetFromStaging creates the target with the staging table's schema.
// A non-empty partitionField installs day partitioning on that field
func (c *Client) CreateTargetFromStaging(ctx context.Context, target, staging, partitionField string) error {
	schema, err := c.Schema(ctx, staging)
	if err != nil {
		return err
	}
	if schema == nil {
		return perr.Upstreamf("staging table %s vanished before target create", staging)
	}
	md := &bigquery.TableMetadata{Schema: schema}
	if partitionField != "" && schemaHasField(schema, partitionField) {
		md.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: partitionField,
		}
	}
	if err := c.table(target).Create(ctx, md); err != nil && !isAlreadyExists(err) {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "create target %s failed", target)
	}
	c.log.Info().Str("table", target).Str("partition_field", partitionField).Msg("target table created")
	return nil
}

// Merge folds the staging table into the target with the schema-tolerant
// MERGE statement and waits for the job
func (c *Client) Merge(ctx context.Context, target, staging, pk, tsField string) error {
	targetSchema, err := c.Schema(ctx, target)
	if err != nil {
		return err
	}
	stagingSchema, err := c.Schema(ctx, staging)
	if err != nil {
		return err
	}
	sql, err := BuildMergeSQL(c.qualified(target), c.qualified(staging), targetSchema, stagingSchema, pk, tsField)
	if err != nil {
		return err
	}
	return c.run(ctx, sql, nil)
}

// DeleteWindow removes target rows whose date field falls inside the
// inclusive window, optionally scoped to one person. Used by backfills so
// the reloaded window stays authoritative
func (c *Client) DeleteWindow(ctx context.Context, target, dateField, from, to string, personID *int64) error {
	if dateField == "" {
		return perr.InvalidArgf("date field is required for a window delete")
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE DATE(%s) BETWEEN @date_from AND @date_to",
		c.qualified(target), quoteIdent(dateField))
	params := []bigquery.QueryParameter{
		{Name: "date_from", Value: from},
		{Name: "date_to", Value: to},
	}
	if personID != nil {
		sql += " AND personId = @person_id"
		params = append(params, bigquery.QueryParameter{Name: "person_id", Value: *personID})
	}
	return c.run(ctx, sql, params)
}

func (c *Client) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := c.bq.Query(sql)
	q.Location = c.location
	q.Parameters = params
	job, err := q.Run(ctx)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "warehouse query start failed")
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "warehouse query wait failed")
	}
	if err := status.Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "warehouse query failed")
	}
	return nil
}

func (c *Client) query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	q := c.bq.Query(sql)
	q.Location = c.location
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "warehouse query read failed")
	}
	return it, nil
}

func schemaHasField(s bigquery.Schema, name string) bool {
	for _, f := range s {
		if f.Name == name {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == 404
}

func isAlreadyExists(err error) bool {
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == 409
}

// BatchStamp formats a batch-start time the way checkpoints store it
func BatchStamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
