// Package dataset holds the tabular building blocks of the pipeline: the
// wide per-region table and readers for the raw open-data formats.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// KeyColumn is the first column of every wide table.
const KeyColumn = "region_key"

// WideTable is one row per region with arbitrary named columns. Numeric
// cells and label cells share the same string storage; a missing value is
// simply an absent or empty cell, which round-trips through CSV as an
// empty field.
type WideTable struct {
	columns []string
	lower   map[string]string // lowercased name -> canonical name
	rows    map[string]map[string]string
}

// NewWideTable returns an empty table with only the key column.
func NewWideTable() *WideTable {
	return &WideTable{
		columns: []string{KeyColumn},
		lower:   map[string]string{KeyColumn: KeyColumn},
		rows:    make(map[string]map[string]string),
	}
}

func (t *WideTable) canon(column string) (string, bool) {
	c, ok := t.lower[strings.ToLower(column)]
	return c, ok
}

func (t *WideTable) ensureColumn(column string) string {
	if c, ok := t.canon(column); ok {
		return c
	}
	t.columns = append(t.columns, column)
	t.lower[strings.ToLower(column)] = column
	return column
}

// Columns returns the column names in insertion order, key column first.
func (t *WideTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table has the column, ignoring case.
func (t *WideTable) HasColumn(column string) bool {
	_, ok := t.canon(column)
	return ok
}

// Keys returns all region keys, sorted.
func (t *WideTable) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of rows.
func (t *WideTable) Len() int { return len(t.rows) }

// Set stores a cell, creating the row and column as needed. An empty
// value still creates the row so that regions without data keep a line in
// the output.
func (t *WideTable) Set(key, column, value string) {
	column = t.ensureColumn(column)
	row, ok := t.rows[key]
	if !ok {
		row = make(map[string]string)
		t.rows[key] = row
	}
	if column != KeyColumn && value != "" {
		row[column] = value
	}
}

// SetFloat stores a numeric cell.
func (t *WideTable) SetFloat(key, column string, v float64) {
	t.Set(key, column, strconv.FormatFloat(v, 'f', -1, 64))
}

// Cell returns the raw cell value; ok is false for a missing cell.
func (t *WideTable) Cell(key, column string) (string, bool) {
	c, ok := t.canon(column)
	if !ok {
		return "", false
	}
	v, ok := t.rows[key][c]
	return v, ok
}

// Series extracts a numeric column. Empty and non-numeric cells are
// skipped, so missingness carries straight into the scoring layer.
func (t *WideTable) Series(column string) scoring.Series {
	out := make(scoring.Series)
	c, ok := t.canon(column)
	if !ok {
		return out
	}
	for key, row := range t.rows {
		raw, ok := row[c]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		out[key] = v
	}
	return out
}

// SetSeries stores a numeric column; keys absent from s keep their cell
// missing.
func (t *WideTable) SetSeries(column string, s scoring.Series) {
	t.ensureColumn(column)
	for key, v := range s {
		t.SetFloat(key, column, v)
	}
}

// SetLabels stores a string column.
func (t *WideTable) SetLabels(column string, labels map[string]string) {
	t.ensureColumn(column)
	for key, l := range labels {
		t.Set(key, column, l)
	}
}

// Labels extracts a string column, skipping empty cells.
func (t *WideTable) Labels(column string) map[string]string {
	out := make(map[string]string)
	c, ok := t.canon(column)
	if !ok {
		return out
	}
	for key, row := range t.rows {
		if v := row[c]; v != "" {
			out[key] = v
		}
	}
	return out
}

// Merge copies every column of other into t, joined on the region key.
// Rows only present in other are added.
func (t *WideTable) Merge(other *WideTable) {
	for _, col := range other.columns {
		if col == KeyColumn {
			continue
		}
		t.ensureColumn(col)
	}
	for key, row := range other.rows {
		if _, ok := t.rows[key]; !ok {
			t.Set(key, KeyColumn, "")
		}
		for col, v := range row {
			t.Set(key, col, v)
		}
	}
}

// Write emits the table as CSV with rows sorted by key and columns in
// insertion order. Missing cells become empty fields.
func (t *WideTable) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	record := make([]string, len(t.columns))
	for _, key := range t.Keys() {
		row := t.rows[key]
		for i, col := range t.columns {
			if col == KeyColumn {
				record[i] = key
				continue
			}
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush")
}

// WriteFile writes the table to a CSV file.
func (t *WideTable) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create wide table file")
	}
	defer f.Close()
	if err := t.Write(f); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "dataset: close wide table file")
}

// ReadWideTable parses a CSV produced by Write. The first column is the
// region key regardless of its header name.
func ReadWideTable(r io.Reader) (*WideTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read wide table header")
	}
	if len(header) == 0 {
		return nil, eris.New("dataset: empty wide table header")
	}

	t := NewWideTable()
	for _, col := range header[1:] {
		t.ensureColumn(col)
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read wide table row")
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		key := record[0]
		t.Set(key, KeyColumn, "")
		for i, col := range header[1:] {
			if i+1 < len(record) {
				t.Set(key, col, record[i+1])
			}
		}
	}
	return t, nil
}

// ReadWideTableFile reads a wide table CSV from disk.
func ReadWideTableFile(path string) (*WideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open wide table file")
	}
	defer f.Close()
	return ReadWideTable(f)
}
