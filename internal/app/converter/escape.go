package converter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

const maxUnquotedHeaderLen = 100
const maxTableCellLen = 100

// SanitizeFilename makes a string safe to use as a filename: every character
// of the reserved set is replaced with an underscore, then whitespace runs
// collapse to one underscore. Total and idempotent.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isReservedFilenameRune(r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return whitespaceRun.ReplaceAllString(b.String(), "_")
}

func isReservedFilenameRune(r rune) bool {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	default:
		return false
	}
}

// EscapeHeaderValue renders an extracted property value for a key:value
// header line. Booleans and numbers pass through unquoted. Strings have
// newlines collapsed to spaces and embedded quotes escaped, and are wrapped
// in quotes when they contain a colon, contained a newline, or run past 100
// characters, so the line stays parseable as a single key:value entry.
func EscapeHeaderValue(value any) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		hadNewline := strings.ContainsAny(v, "\n\r")
		flat := strings.ReplaceAll(v, "\r\n", " ")
		flat = strings.ReplaceAll(flat, "\n", " ")
		flat = strings.ReplaceAll(flat, "\r", " ")
		escaped := strings.ReplaceAll(flat, `"`, `\"`)
		if hadNewline || strings.Contains(flat, ":") || utf8.RuneCountInString(flat) > maxUnquotedHeaderLen {
			return `"` + escaped + `"`
		}
		return escaped
	default:
		return ""
	}
}

// escapeTableCell makes a value safe inside a pipe table: truncated to 100
// characters, pipes escaped, newlines collapsed to spaces.
func escapeTableCell(s string) string {
	if runes := []rune(s); len(runes) > maxTableCellLen {
		s = string(runes[:maxTableCellLen])
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
