// Package export accumulates extracted records into a single table with a
// stable column ordering and writes it out as CSV, plus a JSON run manifest
// pinning the inputs it was produced from.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/coffersTech/tcmetrics/internal/model"
)

// Identifying column prefixes per discovery mode. They always come first in
// the CSV; the union of extracted field names follows in sorted order.
var (
	ScanColumns = []string{"timestamp", "source_file", "simulation_id", "qdisc_type"}
	SimColumns  = []string{"test_id", "timestamp", "data_source", "origin", "interface", "metric_type", "qdisc_type"}
)

// Table is an append-only collection of records sharing one identifying
// prefix. Rows are written in append order.
type Table struct {
	prefix  []string
	records []model.Record
}

func NewTable(prefix []string) *Table {
	return &Table{prefix: prefix}
}

func (t *Table) Append(recs ...model.Record) {
	t.records = append(t.records, recs...)
}

func (t *Table) Len() int {
	return len(t.records)
}

// Columns finalizes the header: identifying prefix first, then the union of
// all field names seen across records, sorted for stability.
func (t *Table) Columns() []string {
	seen := make(map[string]bool)
	var extra []string
	for _, r := range t.records {
		for k := range r.Fields {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	cols := make([]string, 0, len(t.prefix)+len(extra))
	cols = append(cols, t.prefix...)
	return append(cols, extra...)
}

// Summary reports the record count and the distinct record types seen.
func (t *Table) Summary() (int, []string) {
	seen := make(map[model.QdiscType]bool)
	var types []string
	for _, r := range t.records {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, string(r.Type))
		}
	}
	sort.Strings(types)
	return len(t.records), types
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func identValue(r model.Record, col string) string {
	switch col {
	case "timestamp":
		return r.Timestamp
	case "source_file", "data_source":
		return r.SourceFile
	case "simulation_id":
		return strconv.Itoa(r.Index)
	case "qdisc_type":
		return string(r.Type)
	case "test_id":
		return r.TestID
	case "origin":
		return r.Origin
	case "interface":
		return r.Interface
	case "metric_type":
		return r.MetricType
	}
	return ""
}

// WriteCSV writes the finalized table with a header row; fields absent from
// a record render as empty cells. The file goes to a temp path first and is
// renamed into place so a failed run never leaves a truncated CSV behind.
func (t *Table) WriteCSV(path string) error {
	cols := t.Columns()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(cols)
	npfx := len(t.prefix)
	for _, r := range t.records {
		if writeErr != nil {
			break
		}
		row := make([]string, len(cols))
		for i, col := range cols {
			if i < npfx {
				row[i] = identValue(r, col)
			} else if v, ok := r.Fields[col]; ok {
				row[i] = formatValue(v)
			}
		}
		writeErr = w.Write(row)
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if err := f.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	return os.Rename(tmp, path)
}
