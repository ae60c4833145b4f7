package core

import "strings"

// writeKeywords are the statement-leading keywords that produce no result
// set. A RETURNING clause overrides the classification because it yields
// rows despite the write keyword.
var writeKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
}

// IsWriteOnly reports whether the statement modifies data without returning
// rows. Classification looks only at the first keyword, case-insensitively,
// and at the presence of RETURNING anywhere in the text.
func IsWriteOnly(statement string) bool {
	upper := strings.ToUpper(strings.TrimSpace(statement))

	if strings.Contains(upper, "RETURNING") {
		return false
	}

	first := ""
	if fields := strings.Fields(upper); len(fields) > 0 {
		first = fields[0]
	}
	return writeKeywords[first]
}
