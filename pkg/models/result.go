// Package models defines the portable result shapes shared by every backend.
// All backend-native values are lowered into a small portable vocabulary
// before they cross a package boundary.
package models

import "fmt"

// Value is a portable cell value. It is always one of:
// nil, bool, int64, float64, string.
type Value = interface{}

// QueryResult is the single tabular shape every backend normalizes into.
// Either every row has exactly len(Columns) cells, or Columns and Rows are
// both empty and Message explains why (write statement, empty result,
// protocol acknowledgement).
type QueryResult struct {
	Columns  []string  `json:"columns"`
	Rows     [][]Value `json:"rows"`
	RowCount int       `json:"row_count"`
	Message  string    `json:"message,omitempty"`
}

// MessageResult builds an empty result carrying only a message.
func MessageResult(format string, args ...interface{}) *QueryResult {
	return &QueryResult{
		Columns: []string{},
		Rows:    [][]Value{},
		Message: fmt.Sprintf(format, args...),
	}
}

// ScalarResult builds a single-row, single-column result.
func ScalarResult(column string, v Value) *QueryResult {
	return &QueryResult{
		Columns:  []string{column},
		Rows:     [][]Value{{v}},
		RowCount: 1,
	}
}

// Valid reports whether the result honors the row/column invariant.
func (r *QueryResult) Valid() bool {
	if len(r.Columns) == 0 && len(r.Rows) == 0 {
		return r.RowCount == 0
	}
	for _, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return false
		}
	}
	return true
}

// ColumnInfo describes one column of a table as reported by introspection.
type ColumnInfo struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	IsNullable   bool    `json:"is_nullable"`
	Default      *string `json:"column_default"`
	IsPrimaryKey bool    `json:"is_primary_key"`
}

// IndexInfo describes one index; Columns is in index order, never alphabetic.
type IndexInfo struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
}

// ConstraintInfo describes a table constraint. ForeignTable and
// ForeignColumns are set only for foreign keys.
type ConstraintInfo struct {
	Name           string   `json:"name"`
	Type           string   `json:"constraint_type"`
	Columns        []string `json:"columns"`
	ForeignTable   *string  `json:"foreign_table,omitempty"`
	ForeignColumns []string `json:"foreign_columns,omitempty"`
}

// FunctionInfo describes a stored function and its source text.
type FunctionInfo struct {
	Name       string  `json:"name"`
	Definition string  `json:"definition"`
	ReturnType *string `json:"return_type,omitempty"`
	Language   *string `json:"language,omitempty"`
}
