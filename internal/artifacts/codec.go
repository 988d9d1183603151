// Package artifacts implements the Artifact Sink / Validator (C8):
// columnar artifact persistence and post-publish validation.
//
// Artifact encoding is gzip-compressed CSV, one logical file per named
// artifact, written to a temp path and renamed into place — the
// specification leaves the on-disk encoding opaque ("the specific on-disk
// encoding is opaque to the core; only the logical schema is fixed"), so
// this is a domain-stack decision rather than a contractual one. CSV keeps
// every artifact locally inspectable with standard tools, which the
// Python source's parquet files were not without extra tooling; gzip
// keeps the per-security and per-date file counts (thousands of files
// over a multi-year panel) from costing meaningful disk space.
package artifacts

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// writeCSVAtomic writes rows (including the header, as rows[0]) to a
// gzip-compressed CSV file at path, via a temp file in the same directory
// followed by an atomic rename — so a reader never observes a
// partially-written artifact.
func writeCSVAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	gz := gzip.NewWriter(tmp)
	w := csv.NewWriter(gz)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write csv row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv writer for %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("close gzip writer for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp artifact into place at %s: %w", path, err)
	}
	return nil
}

// readCSV reads a gzip-compressed CSV file back into rows, including the
// header as rows[0]. Missing files return (nil, nil) — a not-yet-published
// artifact is a valid state, not an error.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader for %s: %w", path, err)
	}
	defer gz.Close()

	rows, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows from %s: %w", path, err)
	}
	return rows, nil
}

// formatFloat renders a missing value (nil) as an empty cell, matching the
// CSV convention for the whole artifact family.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloatValue(*v)
}

// formatFloatValue renders a non-missing float64 cell.
func formatFloatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseFloat is the inverse of formatFloat: an empty cell parses to a nil
// (missing) value.
func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
