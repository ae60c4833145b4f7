package redisdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/serialexp/dbui/pkg/models"
)

// setCommands produce member rows rather than index/value rows.
var setCommands = map[string]bool{
	"SMEMBERS": true,
	"SINTER":   true,
	"SUNION":   true,
	"SDIFF":    true,
}

// shapeReply converts a raw go-redis reply into a tabular result. The
// executed command name drives the shaping heuristics since wire replies
// carry no structure beyond arrays and scalars.
func shapeReply(command string, reply interface{}) *models.QueryResult {
	switch v := reply.(type) {
	case nil:
		return models.ScalarResult("value", nil)
	case int64:
		return models.ScalarResult("value", v)
	case string:
		// Status replies and bulk strings arrive identically. A bare OK
		// is treated as an acknowledgement.
		if v == "OK" {
			return models.MessageResult("OK")
		}
		return models.ScalarResult("value", v)
	case bool:
		return models.ScalarResult("value", v)
	case float64:
		return models.ScalarResult("value", v)
	case []interface{}:
		return shapeArray(command, v)
	case map[interface{}]interface{}:
		return shapeMap(v)
	default:
		return models.ScalarResult("value", fmt.Sprint(v))
	}
}

func shapeMap(pairs map[interface{}]interface{}) *models.QueryResult {
	rows := make([][]models.Value, 0, len(pairs))
	for k, v := range pairs {
		rows = append(rows, []models.Value{replyValue(k), replyValue(v)})
	}
	return &models.QueryResult{
		Columns:  []string{"field", "value"},
		Rows:     rows,
		RowCount: len(rows),
	}
}

func shapeArray(command string, arr []interface{}) *models.QueryResult {
	upper := strings.ToUpper(command)

	// Alternating field/value pairs.
	if upper == "HGETALL" || upper == "HSCAN" {
		rows := [][]models.Value{}
		for i := 0; i+1 < len(arr); i += 2 {
			rows = append(rows, []models.Value{replyValue(arr[i]), replyValue(arr[i+1])})
		}
		return &models.QueryResult{
			Columns:  []string{"field", "value"},
			Rows:     rows,
			RowCount: len(rows),
		}
	}

	if setCommands[upper] {
		rows := make([][]models.Value, 0, len(arr))
		for _, v := range arr {
			rows = append(rows, []models.Value{replyValue(v)})
		}
		return &models.QueryResult{
			Columns:  []string{"member"},
			Rows:     rows,
			RowCount: len(rows),
		}
	}

	// Sorted set commands with WITHSCORES interleave members and scores.
	if strings.HasPrefix(upper, "Z") && len(arr) > 0 && looksLikeScorePairs(arr) {
		rows := [][]models.Value{}
		for i := 0; i+1 < len(arr); i += 2 {
			rows = append(rows, []models.Value{replyValue(arr[i]), replyValue(arr[i+1])})
		}
		if len(rows) > 0 {
			return &models.QueryResult{
				Columns:  []string{"member", "score"},
				Rows:     rows,
				RowCount: len(rows),
			}
		}
	}

	// SCAN replies are a cursor plus a key page.
	if upper == "SCAN" && len(arr) == 2 {
		if keys, ok := arr[1].([]interface{}); ok {
			rows := make([][]models.Value, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []models.Value{replyValue(k)})
			}
			return &models.QueryResult{
				Columns:  []string{"key"},
				Rows:     rows,
				RowCount: len(rows),
				Message:  fmt.Sprintf("Cursor: %s", replyString(arr[0])),
			}
		}
	}

	rows := make([][]models.Value, 0, len(arr))
	for i, v := range arr {
		rows = append(rows, []models.Value{int64(i), replyValue(v)})
	}
	return &models.QueryResult{
		Columns:  []string{"index", "value"},
		Rows:     rows,
		RowCount: len(rows),
	}
}

// looksLikeScorePairs reports whether every odd element could be a score.
func looksLikeScorePairs(arr []interface{}) bool {
	if len(arr)%2 != 0 {
		return false
	}
	for i := 1; i < len(arr); i += 2 {
		switch arr[i].(type) {
		case string, float64:
		default:
			return false
		}
	}
	return true
}

// replyValue converts one reply element into a cell value, recursing into
// nested arrays and maps.
func replyValue(v interface{}) models.Value {
	switch val := v.(type) {
	case nil, int64, string, bool, float64:
		return val
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = replyValue(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[replyString(k)] = replyValue(item)
		}
		return out
	default:
		return fmt.Sprint(val)
	}
}

func replyString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
