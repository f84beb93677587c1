// Package ingest reads the DOI list an import run works through.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/model"
)

// Column is the required header, matched case-sensitively
const Column = "doi"

const bom = "\ufeff"

// ReadFile reads a .csv or .xlsx dataset and returns normalized, distinct DOIs
// in first-seen order
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrInvalidInput, path, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: unsupported input %s (expected .csv or .xlsx)", model.ErrInvalidInput, path)
	}
}

// ReadCSV reads a comma-separated dataset
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", model.ErrInvalidInput, err)
	}
	return fromRows(rows)
}

// ReadXLSX reads the first sheet of a workbook
func ReadXLSX(r io.Reader) ([]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", model.ErrInvalidInput, err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", model.ErrInvalidInput)
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", model.ErrInvalidInput, sheets[0], err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (dataset is empty)", model.ErrMissingColumn, Column)
	}

	col := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(strings.TrimPrefix(name, bom)) == Column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q (found %s)", model.ErrMissingColumn, Column, strings.Join(rows[0], ", "))
	}

	seen := make(map[string]bool)
	var out []string
	for n, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[col])
		if raw == "" {
			continue
		}

		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
		bare, err := doi.Normalize(raw)
		if err != nil {
			// Header is row 1
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		if seen[bare] {
			continue
		}
		seen[bare] = true
		out = append(out, bare)
	}
	return out, nil
}
