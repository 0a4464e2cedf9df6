package query

import "strings"

// EscapeLike neutralizes pattern metacharacters in a user-supplied search term
// so it can be embedded in a LIKE/ILIKE pattern as a literal substring.
// The backslash must be escaped first; doing it after the wildcards would
// double-escape the backslashes those steps introduce.
func EscapeLike(term string) string {
	escaped := strings.ReplaceAll(term, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `_`, `\_`)
	escaped = strings.ReplaceAll(escaped, `%`, `\%`)
	return escaped
}
