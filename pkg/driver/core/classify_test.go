package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWriteOnly(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      bool
	}{
		{"select", "SELECT * FROM users", false},
		{"lowercase select", "select 1", false},
		{"insert", "INSERT INTO users (id) VALUES (1)", true},
		{"insert lowercase", "insert into users values (1)", true},
		{"update", "UPDATE users SET name = 'x'", true},
		{"delete", "DELETE FROM users WHERE id = 1", true},
		{"create", "CREATE TABLE t (id INT)", true},
		{"alter", "ALTER TABLE t ADD COLUMN c INT", true},
		{"drop", "DROP TABLE t", true},
		{"truncate", "TRUNCATE t", true},
		{"grant", "GRANT SELECT ON t TO joe", true},
		{"revoke", "REVOKE SELECT ON t FROM joe", true},
		{"insert returning", "INSERT INTO users (id) VALUES (1) RETURNING id", false},
		{"delete returning", "delete from users where id = 1 returning *", false},
		{"leading whitespace", "   \n\tUPDATE users SET a = 1", true},
		{"with cte", "WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"explain", "EXPLAIN SELECT 1", false},
		{"empty", "", false},
		{"show", "SHOW TABLES", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWriteOnly(tt.statement))
		})
	}
}
