package redisdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serialexp/dbui/pkg/models"
)

func TestShapeScalars(t *testing.T) {
	r := shapeReply("GET", "hello")
	assert.Equal(t, []string{"value"}, r.Columns)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, "hello", r.Rows[0][0])
	assert.Equal(t, 1, r.RowCount)

	r = shapeReply("INCR", int64(5))
	assert.Equal(t, int64(5), r.Rows[0][0])

	r = shapeReply("GET", nil)
	assert.Equal(t, []string{"value"}, r.Columns)
	assert.Nil(t, r.Rows[0][0])
	assert.Equal(t, 1, r.RowCount)
}

func TestShapeOKReply(t *testing.T) {
	r := shapeReply("SET", "OK")
	assert.Empty(t, r.Columns)
	assert.Empty(t, r.Rows)
	assert.Equal(t, 0, r.RowCount)
	assert.Equal(t, "OK", r.Message)
}

func TestShapeHashPairs(t *testing.T) {
	r := shapeReply("HGETALL", []interface{}{"name", "alice", "age", "30"})
	assert.Equal(t, []string{"field", "value"}, r.Columns)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []models.Value{"name", "alice"}, r.Rows[0])
	assert.Equal(t, []models.Value{"age", "30"}, r.Rows[1])
}

func TestShapeHashMapReply(t *testing.T) {
	r := shapeReply("HGETALL", map[interface{}]interface{}{"name": "alice"})
	assert.Equal(t, []string{"field", "value"}, r.Columns)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, []models.Value{"name", "alice"}, r.Rows[0])
}

func TestShapeSetMembers(t *testing.T) {
	for _, cmd := range []string{"SMEMBERS", "SINTER", "SUNION", "SDIFF", "smembers"} {
		r := shapeReply(cmd, []interface{}{"a", "b"})
		assert.Equal(t, []string{"member"}, r.Columns, cmd)
		assert.Equal(t, 2, r.RowCount, cmd)
		assert.Equal(t, []models.Value{"a"}, r.Rows[0], cmd)
	}
}

func TestShapeSortedSetWithScores(t *testing.T) {
	r := shapeReply("ZRANGE", []interface{}{"alice", "1.5", "bob", "2"})
	assert.Equal(t, []string{"member", "score"}, r.Columns)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []models.Value{"alice", "1.5"}, r.Rows[0])
	assert.Equal(t, []models.Value{"bob", "2"}, r.Rows[1])
}

func TestShapeSortedSetOddLength(t *testing.T) {
	// An odd element count cannot be member/score pairs.
	r := shapeReply("ZRANGE", []interface{}{"alice", "bob", "carol"})
	assert.Equal(t, []string{"index", "value"}, r.Columns)
	assert.Equal(t, 3, r.RowCount)
	assert.Equal(t, []models.Value{int64(0), "alice"}, r.Rows[0])
}

func TestShapeScanReply(t *testing.T) {
	r := shapeReply("SCAN", []interface{}{"42", []interface{}{"k1", "k2"}})
	assert.Equal(t, []string{"key"}, r.Columns)
	assert.Equal(t, 2, r.RowCount)
	assert.Equal(t, "Cursor: 42", r.Message)
}

func TestShapeDefaultArray(t *testing.T) {
	r := shapeReply("LRANGE", []interface{}{"one", "two"})
	assert.Equal(t, []string{"index", "value"}, r.Columns)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []models.Value{int64(0), "one"}, r.Rows[0])
	assert.Equal(t, []models.Value{int64(1), "two"}, r.Rows[1])
}

func TestShapeNestedArray(t *testing.T) {
	r := shapeReply("EXEC", []interface{}{[]interface{}{"nested"}, "flat"})
	assert.Equal(t, []string{"index", "value"}, r.Columns)
	assert.Equal(t, []interface{}{"nested"}, r.Rows[0][1])
}

func TestReplyString(t *testing.T) {
	assert.Equal(t, "42", replyString(int64(42)))
	assert.Equal(t, "abc", replyString("abc"))
	assert.Equal(t, "1.5", replyString(1.5))
}
