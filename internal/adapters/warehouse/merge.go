package warehouse

import (
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	perr "hrhub/internal/platform/errors"
)

// sqlType maps a schema field type onto the standard-SQL spelling for casts
var sqlType = map[bigquery.FieldType]string{
	bigquery.StringFieldType:     "STRING",
	bigquery.BytesFieldType:      "BYTES",
	bigquery.IntegerFieldType:    "INT64",
	bigquery.FloatFieldType:      "FLOAT64",
	bigquery.BooleanFieldType:    "BOOL",
	bigquery.TimestampFieldType:  "TIMESTAMP",
	bigquery.DateFieldType:       "DATE",
	bigquery.TimeFieldType:       "TIME",
	bigquery.DateTimeFieldType:   "DATETIME",
	bigquery.NumericFieldType:    "NUMERIC",
	bigquery.BigNumericFieldType: "BIGNUMERIC",
	bigquery.JSONFieldType:       "JSON",
}

func quoteIdent(name string) string { return "`" + name + "`" }

// BuildMergeSQL renders the schema-tolerant MERGE of staging into target.
//
// Only columns present in both schemas move. Each moved column is cast to the
// target's declared type with SAFE_CAST; a repeated STRING staging column
// flattens to its first element first. Rows match on the primary key compared
// as STRING, and when both sides carry the timestamp field the UPDATE is
// guarded so older staging rows never overwrite newer target rows
func BuildMergeSQL(target, staging string, targetSchema, stagingSchema bigquery.Schema, pk, tsField string) (string, error) {
	if pk == "" {
		return "", perr.InvalidArgf("merge requires a primary key column")
	}
	targetByName := map[string]*bigquery.FieldSchema{}
	for _, f := range targetSchema {
		targetByName[f.Name] = f
	}
	stagingByName := map[string]*bigquery.FieldSchema{}
	for _, f := range stagingSchema {
		stagingByName[f.Name] = f
	}

	var cols []string
	var exprs []string
	for _, tf := range targetSchema {
		sf, ok := stagingByName[tf.Name]
		if !ok {
			continue
		}
		cols = append(cols, tf.Name)
		exprs = append(exprs, castExpr(tf, sf))
	}
	if len(cols) == 0 {
		return "", perr.InvalidArgf("merge of %s has no shared columns", target)
	}
	if _, ok := targetByName[pk]; !ok {
		return "", perr.InvalidArgf("merge target %s lacks primary key %s", target, pk)
	}
	if _, ok := stagingByName[pk]; !ok {
		return "", perr.InvalidArgf("merge staging for %s lacks primary key %s", target, pk)
	}

	var sel strings.Builder
	for i, col := range cols {
		if i > 0 {
			sel.WriteString(", ")
		}
		fmt.Fprintf(&sel, "%s AS %s", exprs[i], quoteIdent(col))
	}

	var sets []string
	for _, col := range cols {
		if col == pk {
			continue
		}
		sets = append(sets, fmt.Sprintf("T.%s = S.%s", quoteIdent(col), quoteIdent(col)))
	}

	guard := ""
	if tsField != "" {
		_, inTarget := targetByName[tsField]
		_, inStaging := stagingByName[tsField]
		if inTarget && inStaging {
			ts := quoteIdent(tsField)
			guard = fmt.Sprintf(" AND (SAFE.TIMESTAMP(CAST(S.%s AS STRING)) > SAFE.TIMESTAMP(CAST(T.%s AS STRING))"+
				" OR T.%s IS NULL OR S.%s IS NULL)", ts, ts, ts, ts)
		}
	}

	quoted := make([]string, len(cols))
	values := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		values[i] = "S." + quoteIdent(col)
	}

	var sql strings.Builder
	fmt.Fprintf(&sql, "MERGE %s T\n", target)
	fmt.Fprintf(&sql, "USING (SELECT %s FROM %s) S\n", sel.String(), staging)
	fmt.Fprintf(&sql, "ON CAST(T.%s AS STRING) = CAST(S.%s AS STRING)\n", quoteIdent(pk), quoteIdent(pk))
	if len(sets) > 0 {
		fmt.Fprintf(&sql, "WHEN MATCHED%s THEN UPDATE SET %s\n", guard, strings.Join(sets, ", "))
	}
	fmt.Fprintf(&sql, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(values, ", "))
	return sql.String(), nil
}

// castExpr renders the staging-side expression for one column
func castExpr(target, staging *bigquery.FieldSchema) string {
	expr := quoteIdent(staging.Name)
	flattened := false
	if staging.Repeated && staging.Type == bigquery.StringFieldType && !target.Repeated {
		expr += "[SAFE_OFFSET(0)]"
		flattened = true
	}
	if target.Repeated || (staging.Repeated && !flattened) {
		return expr
	}
	t, ok := sqlType[target.Type]
	if !ok {
		// records and other uncastable shapes pass through untouched
		return expr
	}
	return fmt.Sprintf("SAFE_CAST(%s AS %s)", expr, t)
}
