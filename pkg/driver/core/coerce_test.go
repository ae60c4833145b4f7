package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceSQLIntegers(t *testing.T) {
	assert.Equal(t, int64(42), CoerceSQL("INT4", int64(42)))
	assert.Equal(t, int64(7), CoerceSQL("BIGINT", []byte("7")))
	assert.Equal(t, int64(-3), CoerceSQL("SMALLINT", int32(-3)))
	assert.Equal(t, int64(1), CoerceSQL("TINYINT", int64(1)))

	// A typed read that cannot succeed degrades to nil, never an error.
	assert.Nil(t, CoerceSQL("INT8", []byte("not a number")))
}

func TestCoerceSQLFloats(t *testing.T) {
	assert.Equal(t, 1.5, CoerceSQL("FLOAT8", 1.5))
	assert.Equal(t, 2.25, CoerceSQL("DECIMAL", []byte("2.25")))
	assert.Equal(t, 3.0, CoerceSQL("NUMERIC", "3"))
	assert.Nil(t, CoerceSQL("DOUBLE", []byte("nope")))
}

func TestCoerceSQLBools(t *testing.T) {
	assert.Equal(t, true, CoerceSQL("BOOL", true))
	assert.Equal(t, true, CoerceSQL("TINYINT(1)", int64(1)))
	assert.Equal(t, false, CoerceSQL("BOOLEAN", []byte("f")))
	assert.Nil(t, CoerceSQL("BOOL", []byte("maybe")))
}

func TestCoerceSQLTemporal(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-15 10:30:00", CoerceSQL("TIMESTAMP", ts))
	assert.Equal(t, "2024-03-15 10:30:00", CoerceSQL("DATETIME", ts))
	assert.Equal(t, "2024-03-15T10:30:00Z", CoerceSQL("TIMESTAMPTZ", ts))
	assert.Equal(t, "2024-03-15", CoerceSQL("DATE", ts))
	assert.Equal(t, "10:30:00", CoerceSQL("TIME", ts))

	// Textual timestamps from database/sql drivers parse too.
	assert.Equal(t, "2024-03-15 10:30:00", CoerceSQL("TIMESTAMP", []byte("2024-03-15 10:30:00")))
	// Bare clock strings are kept verbatim.
	assert.Equal(t, "10:30:00", CoerceSQL("TIME", []byte("10:30:00")))
}

func TestCoerceSQLUUID(t *testing.T) {
	raw := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0,
		0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
	assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", CoerceSQL("UUID", raw))
	assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", CoerceSQL("UUID", raw[:]))
	assert.Equal(t, "already-a-string", CoerceSQL("UUID", "already-a-string"))
}

func TestCoerceSQLUnknownTag(t *testing.T) {
	// Unknown tags fall back to a string read.
	assert.Equal(t, "hello", CoerceSQL("VARCHAR", []byte("hello")))
	assert.Equal(t, "hello", CoerceSQL("VARCHAR(255)", "hello"))
	assert.Equal(t, "42", CoerceSQL("SOMETHING_EXOTIC", int64(42)))

	// Values with no string form degrade to nil.
	assert.Nil(t, CoerceSQL("SOMETHING_EXOTIC", struct{}{}))
}

func TestCoerceSQLNil(t *testing.T) {
	assert.Nil(t, CoerceSQL("INT4", nil))
	assert.Nil(t, CoerceSQL("VARCHAR", nil))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "VARCHAR", normalizeTag("varchar(255)"))
	assert.Equal(t, "TINYINT(1)", normalizeTag("tinyint(1)"))
	assert.Equal(t, "TINYINT", normalizeTag("TINYINT(4)"))
	assert.Equal(t, "INT4", normalizeTag(" int4 "))
}
