package warehouse

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"

	"github.com/baystatedata/covidetl/internal/etl"
	"github.com/baystatedata/covidetl/internal/sink"
)

// BigQueryUploader loads tables into a BigQuery dataset via CSV load jobs.
type BigQueryUploader struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryUploader builds an uploader for the given dataset.
func NewBigQueryUploader(client *bigquery.Client, dataset string) (*BigQueryUploader, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client is required")
	}
	if dataset == "" {
		return nil, fmt.Errorf("dataset is required")
	}
	return &BigQueryUploader{client: client, dataset: dataset}, nil
}

// Upload replaces the destination relation with the table's contents. The
// load runs with WriteTruncate, so each run overwrites the relation
// wholesale.
func (u *BigQueryUploader) Upload(ctx context.Context, relation string, table *etl.NormalizedTable) error {
	data, err := sink.Render(table)
	if err != nil {
		return fmt.Errorf("render csv for %s: %w", relation, err)
	}

	source := bigquery.NewReaderSource(bytes.NewReader(data))
	source.SourceFormat = bigquery.CSV
	source.SkipLeadingRows = 1
	source.Schema = bigQuerySchema(table.Columns)

	loader := u.client.Dataset(u.dataset).Table(relation).LoaderFrom(source)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return classifyBigQueryError(fmt.Errorf("start load job for %s: %w", relation, err))
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return classifyBigQueryError(fmt.Errorf("wait load job for %s: %w", relation, err))
	}
	if status.Err() != nil {
		return classifyBigQueryError(fmt.Errorf("load job for %s: %w", relation, status.Err()))
	}
	return nil
}

func bigQuerySchema(columns []etl.Column) bigquery.Schema {
	schema := make(bigquery.Schema, len(columns))
	for i, c := range columns {
		field := &bigquery.FieldSchema{Name: c.Name}
		switch c.Type {
		case etl.TypeInt:
			field.Type = bigquery.IntegerFieldType
			field.Required = true
		case etl.TypeNullableInt:
			field.Type = bigquery.IntegerFieldType
		case etl.TypeFloat:
			field.Type = bigquery.FloatFieldType
		default:
			field.Type = bigquery.StringFieldType
		}
		schema[i] = field
	}
	return schema
}

// bqMismatchRe recognizes the coercion failure BigQuery reports when a
// string destination column receives integer source values. The message
// format is best-effort: unrecognized errors stay non-retryable.
var bqMismatchRe = regexp.MustCompile(`(?i)(?:could not convert|invalid type|provided schema does not match).*?(?:field|column)[ :]+([A-Za-z_][A-Za-z0-9_]*)`)

func classifyBigQueryError(err error) error {
	if m := bqMismatchRe.FindStringSubmatch(err.Error()); m != nil {
		return fmt.Errorf("%w: %w", &TypeMismatchError{Column: m[1]}, err)
	}
	return err
}
