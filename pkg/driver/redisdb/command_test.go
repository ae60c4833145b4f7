package redisdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "GET key", []string{"GET", "key"}},
		{"extra whitespace", "  GET    key  ", []string{"GET", "key"}},
		{"double quotes", `SET key "hello world"`, []string{"SET", "key", "hello world"}},
		{"single quotes", `SET key 'hello world'`, []string{"SET", "key", "hello world"}},
		{"escape sequences", `SET key "a\nb\tc\rd"`, []string{"SET", "key", "a\nb\tc\rd"}},
		{"escaped quote", `SET key "say \"hi\""`, []string{"SET", "key", `say "hi"`}},
		{"trailing semicolon", "GET key;", []string{"GET", "key"}},
		{"multiple semicolons", "GET key;;", []string{"GET", "key"}},
		{"empty", "", nil},
		{"only whitespace", "   \t\n", nil},
		{"only semicolon", ";", nil},
		{"empty quoted string keeps following args", `SET key ""next`, []string{"SET", "key", "next"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}
