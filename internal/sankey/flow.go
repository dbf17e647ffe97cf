// Package sankey turns (source, target, value) flow tables into Sankey
// diagram images.
package sankey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns names the flow table columns in the input header. Matching is
// case-insensitive.
type Columns struct {
	Source string
	Target string
	Value  string
}

// DefaultColumns matches the usual export header.
var DefaultColumns = Columns{Source: "Source", Target: "Target", Value: "Value"}

// Flow is a single quantity moving from one labeled node to another.
type Flow struct {
	Source string
	Target string
	Value  float64
}

// Table holds the parsed flow rows.
type Table struct {
	Flows []Flow
}

// ReadFile loads a flow table, treating .xlsx as a workbook and anything
// else as CSV.
func ReadFile(path string, cols Columns) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, cols)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, cols)
}

// ReadCSV parses flow rows from CSV data with a header row.
func ReadCSV(r io.Reader, cols Columns) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return fromRecords(records, cols)
}

// ReadXLSX parses flow rows from the first sheet of a workbook.
func ReadXLSX(path string, cols Columns) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	return fromRecords(rows, cols)
}

func fromRecords(records [][]string, cols Columns) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.New("input table is empty")
	}

	si, ti, vi := -1, -1, -1
	for i, name := range records[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(name), cols.Source):
			si = i
		case strings.EqualFold(strings.TrimSpace(name), cols.Target):
			ti = i
		case strings.EqualFold(strings.TrimSpace(name), cols.Value):
			vi = i
		}
	}
	if si < 0 || ti < 0 || vi < 0 {
		return nil, fmt.Errorf("header is missing one of %q, %q, %q",
			cols.Source, cols.Target, cols.Value)
	}

	var flows []Flow
	for n, rec := range records[1:] {
		src := cell(rec, si)
		tgt := cell(rec, ti)
		raw := cell(rec, vi)
		if src == "" && tgt == "" && raw == "" {
			continue
		}
		if src == "" || tgt == "" {
			return nil, fmt.Errorf("row %d: empty source or target", n+2)
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad value %q", n+2, raw)
		}
		if v < 0 {
			return nil, fmt.Errorf("row %d: negative value %v", n+2, v)
		}
		flows = append(flows, Flow{Source: src, Target: tgt, Value: v})
	}
	if len(flows) == 0 {
		return nil, errors.New("no flow rows in input")
	}
	return &Table{Flows: flows}, nil
}

// cell tolerates the ragged rows spreadsheet exports produce.
func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// SourceTotals sums the outgoing value per source label.
func (t *Table) SourceTotals() map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range t.Flows {
		totals[f.Source] += f.Value
	}
	return totals
}

// TargetTotals sums the incoming value per target label.
func (t *Table) TargetTotals() map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range t.Flows {
		totals[f.Target] += f.Value
	}
	return totals
}

// Nodes lists sorted unique sources followed by sorted unique targets. A
// label appearing on both sides is emitted once; the chart links nodes by
// name, so duplicates are not allowed.
func (t *Table) Nodes() []string {
	var nodes []string
	seen := make(map[string]bool)
	for _, name := range sortedKeys(t.SourceTotals()) {
		if !seen[name] {
			seen[name] = true
			nodes = append(nodes, name)
		}
	}
	for _, name := range sortedKeys(t.TargetTotals()) {
		if !seen[name] {
			seen[name] = true
			nodes = append(nodes, name)
		}
	}
	return nodes
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
