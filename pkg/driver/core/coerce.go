package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/serialexp/dbui/pkg/models"
)

// Layouts for the temporal type tags. Naive timestamps render without a zone,
// zone-aware ones as RFC 3339.
const (
	layoutTimestamp = "2006-01-02 15:04:05"
	layoutDate      = "2006-01-02"
	layoutTime      = "15:04:05"
)

// CoerceSQL lowers a raw driver value into a portable value based on the
// backend-declared column type tag. A failed typed read degrades to nil for
// the cell; unknown tags fall back to a plain string read. Coercion never
// returns an error: one unusual value must not fail the whole statement.
func CoerceSQL(typeTag string, raw interface{}) models.Value {
	if raw == nil {
		return nil
	}

	switch normalizeTag(typeTag) {
	case "BOOL", "BOOLEAN", "TINYINT(1)":
		if v, ok := asBool(raw); ok {
			return v
		}
		return nil
	case "INT2", "INT4", "INT8", "TINYINT", "SMALLINT", "MEDIUMINT", "INT",
		"INTEGER", "BIGINT", "SERIAL", "BIGSERIAL", "UNSIGNED BIGINT":
		if v, ok := asInt(raw); ok {
			return v
		}
		return nil
	case "FLOAT4", "FLOAT8", "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC":
		if v, ok := asFloat(raw); ok {
			return v
		}
		return nil
	case "TIMESTAMP", "DATETIME":
		if t, ok := asTime(raw); ok {
			return t.Format(layoutTimestamp)
		}
		return nil
	case "TIMESTAMPTZ":
		if t, ok := asTime(raw); ok {
			return t.Format(time.RFC3339)
		}
		return nil
	case "DATE":
		if t, ok := asTime(raw); ok {
			return t.Format(layoutDate)
		}
		return nil
	case "TIME", "TIMETZ":
		if t, ok := asTime(raw); ok {
			return t.Format(layoutTime)
		}
		// database/sql drivers report TIME columns as text
		if s, ok := asString(raw); ok {
			return s
		}
		return nil
	case "UUID":
		if s, ok := asUUID(raw); ok {
			return s
		}
		return nil
	}

	// Last resort: plain string read.
	if s, ok := asString(raw); ok {
		return s
	}
	return nil
}

// normalizeTag uppercases the tag and strips a length suffix like
// VARCHAR(255), keeping TINYINT(1) intact because it tags MySQL booleans.
func normalizeTag(tag string) string {
	upper := strings.ToUpper(strings.TrimSpace(tag))
	if upper == "TINYINT(1)" {
		return upper
	}
	if i := strings.IndexByte(upper, '('); i > 0 {
		upper = upper[:i]
	}
	return strings.TrimSpace(upper)
}

func asBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	}
	return false, false
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true, true
	case "0", "f", "false", "n", "no":
		return false, true
	}
	return false, false
}

func asInt(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func asTime(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	}
	return time.Time{}, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		layoutTimestamp,
		"2006-01-02 15:04:05.999999999",
		layoutDate,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asUUID(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case [16]byte:
		return formatUUID(v), true
	case []byte:
		if len(v) == 16 {
			var b [16]byte
			copy(b[:], v)
			return formatUUID(b), true
		}
		return string(v), true
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

func formatUUID(b [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

func asString(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case fmt.Stringer:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}
