package warehouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baystatedata/covidetl/internal/etl"
)

var validRelationName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PgxPool is the subset of pgxpool.Pool the uploader needs; pgxmock
// implements it for tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// PostgresUploader loads tables into a Postgres schema, one table per
// relation, replacing the previous contents on every load.
type PostgresUploader struct {
	pool   PgxPool
	schema string
}

// PostgresConfig controls the connection pool.
type PostgresConfig struct {
	DSN    string
	Schema string
}

// NewPostgresUploader connects a pool and ensures the schema exists.
func NewPostgresUploader(ctx context.Context, cfg PostgresConfig) (*PostgresUploader, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	u, err := NewPostgresUploaderWithPool(pool, cfg.Schema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := u.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", u.schema)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema %s: %w", u.schema, err)
	}
	return u, nil
}

// NewPostgresUploaderWithPool constructs an uploader from an existing pool
// (primarily for testing).
func NewPostgresUploaderWithPool(pool PgxPool, schema string) (*PostgresUploader, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if schema == "" {
		schema = "covid"
	}
	if !validRelationName.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}
	return &PostgresUploader{pool: pool, schema: schema}, nil
}

// Close releases the pool.
func (u *PostgresUploader) Close() {
	u.pool.Close()
}

// Upload drops and recreates the relation, then batch-inserts every row.
func (u *PostgresUploader) Upload(ctx context.Context, relation string, table *etl.NormalizedTable) error {
	if !validRelationName.MatchString(relation) {
		return fmt.Errorf("invalid relation name %q", relation)
	}
	qualified := u.schema + "." + relation

	if _, err := u.pool.Exec(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
		return classifyPostgresError(fmt.Errorf("drop %s: %w", qualified, err))
	}
	if _, err := u.pool.Exec(ctx, createTableSQL(qualified, table.Columns)); err != nil {
		return classifyPostgresError(fmt.Errorf("create %s: %w", qualified, err))
	}

	insert := insertSQL(qualified, table.Columns)
	batch := &pgx.Batch{}
	for _, row := range table.Rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = pgValue(v)
		}
		batch.Queue(insert, args...)
	}

	results := u.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range table.Rows {
		if _, err := results.Exec(); err != nil {
			return classifyPostgresError(fmt.Errorf("insert into %s: %w", qualified, err))
		}
	}
	return nil
}

func createTableSQL(qualified string, columns []etl.Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.Name + " " + pgType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))
}

func insertSQL(qualified string, columns []etl.Column) string {
	names := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		holders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(names, ", "), strings.Join(holders, ", "))
}

func pgType(t etl.ColType) string {
	switch t {
	case etl.TypeInt:
		return "BIGINT NOT NULL"
	case etl.TypeNullableInt:
		return "BIGINT"
	case etl.TypeFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func pgValue(v etl.Value) any {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case etl.TypeInt, etl.TypeNullableInt:
		return v.Int
	case etl.TypeFloat:
		return v.Flt
	default:
		return v.Str
	}
}

// pgMismatchRe pulls the column name out of a datatype-mismatch message.
var pgMismatchRe = regexp.MustCompile(`column "([^"]+)"`)

// classifyPostgresError maps datatype-mismatch failures (SQLSTATE 42804 and
// invalid text representation, 22P02) onto TypeMismatchError so the loader
// can widen and retry.
func classifyPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != "42804" && pgErr.Code != "22P02" {
		return err
	}
	column := pgErr.ColumnName
	if column == "" {
		if m := pgMismatchRe.FindStringSubmatch(pgErr.Message); m != nil {
			column = m[1]
		}
	}
	if column == "" {
		return err
	}
	return fmt.Errorf("%w: %w", &TypeMismatchError{Column: column}, err)
}
