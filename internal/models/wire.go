package models

import (
	"fmt"
)

// Response is the envelope the stats API wraps every endpoint in.
// Tables arrive as positional rowSets described by a headers array.
type Response struct {
	Resource   string      `json:"resource"`
	ResultSets []ResultSet `json:"resultSets"`
}

// ResultSet is one tabular payload inside a Response.
type ResultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`

	index map[string]int
}

// First returns the first result set of a response, which is where the
// LeagueDash endpoints put their data.
func (r *Response) First() (*ResultSet, error) {
	if len(r.ResultSets) == 0 {
		return nil, fmt.Errorf("response %q contains no result sets", r.Resource)
	}
	return &r.ResultSets[0], nil
}

// Rows wraps each raw row with header-aware accessors.
func (rs *ResultSet) Rows() []Row {
	if rs.index == nil {
		rs.index = make(map[string]int, len(rs.Headers))
		for i, h := range rs.Headers {
			rs.index[h] = i
		}
	}
	rows := make([]Row, len(rs.RowSet))
	for i, cells := range rs.RowSet {
		rows[i] = Row{index: rs.index, cells: cells}
	}
	return rows
}

// Row is a single record in a result set. Cells are untyped JSON values;
// accessors normalize them and report absence instead of panicking.
type Row struct {
	index map[string]int
	cells []interface{}
}

func (r Row) cell(column string) (interface{}, bool) {
	i, ok := r.index[column]
	if !ok || i >= len(r.cells) {
		return nil, false
	}
	if r.cells[i] == nil {
		return nil, false
	}
	return r.cells[i], true
}

// Str returns the string value of a column, or "" when absent.
func (r Row) Str(column string) string {
	v, ok := r.cell(column)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Float returns the numeric value of a column.
func (r Row) Float(column string) (float64, bool) {
	v, ok := r.cell(column)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Int returns the integral value of a column. JSON numbers decode as
// float64, so this truncates.
func (r Row) Int(column string) (int64, bool) {
	f, ok := r.Float(column)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// FloatOr returns the numeric value of a column or the given fallback.
func (r Row) FloatOr(column string, fallback float64) float64 {
	f, ok := r.Float(column)
	if !ok {
		return fallback
	}
	return f
}
