package redisdb

import "strings"

// Tokenize splits a command line into arguments with shell style quoting.
// Single and double quotes group words, backslash escapes inside quotes
// understand \n, \t and \r, and a trailing semicolon is ignored so SQL
// habits do not break commands.
func Tokenize(input string) []string {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.TrimSpace(strings.TrimRight(trimmed, ";"))
	if trimmed == "" {
		return nil
	}

	parts := []string{}
	var current strings.Builder
	inQuotes := false
	var quote rune

	runes := []rune(trimmed)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			if c == quote {
				inQuotes = false
			} else if c == '\\' && i+1 < len(runes) {
				i++
				switch runes[i] {
				case 'n':
					current.WriteRune('\n')
				case 't':
					current.WriteRune('\t')
				case 'r':
					current.WriteRune('\r')
				default:
					current.WriteRune(runes[i])
				}
			} else {
				current.WriteRune(c)
			}
		case c == '"' || c == '\'':
			inQuotes = true
			quote = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
