package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResult(t *testing.T) {
	r := MessageResult("%d row(s) affected.", 3)
	assert.Equal(t, "3 row(s) affected.", r.Message)
	assert.Empty(t, r.Columns)
	assert.Empty(t, r.Rows)
	assert.Equal(t, 0, r.RowCount)
	assert.True(t, r.Valid())
}

func TestScalarResult(t *testing.T) {
	r := ScalarResult("value", int64(42))
	assert.Equal(t, []string{"value"}, r.Columns)
	assert.Equal(t, [][]Value{{int64(42)}}, r.Rows)
	assert.Equal(t, 1, r.RowCount)
	assert.True(t, r.Valid())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name   string
		result QueryResult
		want   bool
	}{
		{"empty", QueryResult{}, true},
		{"grid", QueryResult{Columns: []string{"a", "b"}, Rows: [][]Value{{1, 2}}, RowCount: 1}, true},
		{"ragged row", QueryResult{Columns: []string{"a", "b"}, Rows: [][]Value{{1}}}, false},
		{"empty with count", QueryResult{RowCount: 5}, false},
		{"columns without rows", QueryResult{Columns: []string{"a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Valid())
		})
	}
}
