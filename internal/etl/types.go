// Package etl defines core types shared across the pipeline stages.
package etl

import (
	"fmt"
	"strconv"
)

// Format tags the kind of downloaded artifact.
type Format string

// Artifact formats handled by the extractors.
const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// RawDocument is a downloaded artifact kept on disk as an audit trail.
type RawDocument struct {
	SourceURL string
	LocalPath string
	Format    Format
}

// RawTable is an untyped grid of cells. The first row is the header.
type RawTable [][]string

// Header returns the header row, or nil for an empty table.
func (t RawTable) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Body returns the data rows following the header.
func (t RawTable) Body() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// ColType is the declared type of a normalized column.
type ColType int

// Column types supported by the normalizer and the warehouse uploaders.
const (
	TypeString ColType = iota
	TypeInt
	TypeNullableInt
	TypeFloat
)

// String returns a short name used in logs and error messages.
func (c ColType) String() string {
	switch c {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeNullableInt:
		return "nullable integer"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("coltype(%d)", int(c))
	}
}

// Value is one typed cell of a normalized table.
type Value struct {
	Kind ColType
	Null bool
	Str  string
	Int  int64
	Flt  float64
}

// String builds a string cell.
func String(s string) Value { return Value{Kind: TypeString, Str: s} }

// Int builds an integer cell.
func Int(i int64) Value { return Value{Kind: TypeInt, Int: i} }

// NullableInt builds a non-null nullable-integer cell.
func NullableInt(i int64) Value { return Value{Kind: TypeNullableInt, Int: i} }

// NullInt builds a missing nullable-integer cell.
func NullInt() Value { return Value{Kind: TypeNullableInt, Null: true} }

// Float builds a float cell.
func Float(f float64) Value { return Value{Kind: TypeFloat, Flt: f} }

// NullFloat builds a missing float cell.
func NullFloat() Value { return Value{Kind: TypeFloat, Null: true} }

// CSV renders the cell for a CSV file. Missing values render empty.
func (v Value) CSV() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case TypeInt, TypeNullableInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Flt, 'f', -1, 64)
	default:
		return v.Str
	}
}

// Column declares the name and type of one normalized column.
type Column struct {
	Name string
	Type ColType
}

// NormalizedTable is a named relation with typed columns. Every row has
// exactly len(Columns) values.
type NormalizedTable struct {
	Name    string
	Columns []Column
	Rows    [][]Value
}

// ColumnIndex returns the position of the named column, or -1.
func (t *NormalizedTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// CastColumnToString widens the named column to string in place, rendering
// existing values with their CSV form. Missing values become empty strings.
// Reports whether the column was found.
func (t *NormalizedTable) CastColumnToString(name string) bool {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return false
	}
	t.Columns[idx].Type = TypeString
	for _, row := range t.Rows {
		row[idx] = String(row[idx].CSV())
	}
	return true
}

// UploadStatus is the tri-state outcome of one warehouse load.
type UploadStatus string

// Upload outcomes reported in the run summary.
const (
	UploadSucceeded      UploadStatus = "succeeded"
	UploadRetryExhausted UploadStatus = "retry_exhausted"
	UploadFailed         UploadStatus = "failed"
)

// UploadOutcome records the result of loading one relation.
type UploadOutcome struct {
	Relation string
	Status   UploadStatus
	Attempts int
	Err      string
}
