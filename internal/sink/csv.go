// Package sink persists normalized tables to local CSV files and optional
// mirrors.
package sink

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Render serializes a table as UTF-8, comma-delimited CSV with a header row.
// Missing values render as empty cells.
func Render(table *etl.NormalizedTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.CSV()
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVWriter writes tables to a primary path plus best-effort alternates.
type CSVWriter struct {
	logger *zap.Logger
}

// NewCSVWriter builds a CSVWriter.
func NewCSVWriter(logger *zap.Logger) *CSVWriter {
	return &CSVWriter{logger: logger}
}

// Write persists the table at path, creating parent directories. This is
// the primary failsafe output: a failure here is a failure of the run step.
func (w *CSVWriter) Write(path string, table *etl.NormalizedTable) error {
	data, err := Render(table)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create csv dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	w.logger.Info("csv written", zap.String("path", path), zap.String("table", table.Name))
	return nil
}

// WriteAlternates attempts each alternate path. An alternate whose target
// directory does not exist (typically an absent bind mount) is logged and
// skipped; the remaining sinks are still attempted. Returns the paths that
// were written.
func (w *CSVWriter) WriteAlternates(paths []string, table *etl.NormalizedTable) []string {
	data, err := Render(table)
	if err != nil {
		w.logger.Error("render csv for alternates", zap.Error(err), zap.String("table", table.Name))
		return nil
	}

	var written []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("alternate path not found, bypassing",
					zap.String("path", path),
					zap.String("table", table.Name),
				)
				continue
			}
			w.logger.Error("alternate csv write failed", zap.String("path", path), zap.Error(err))
			continue
		}
		written = append(written, path)
		w.logger.Info("alternate csv written", zap.String("path", path), zap.String("table", table.Name))
	}
	return written
}
