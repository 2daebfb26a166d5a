package parse

import "strings"

const bom = "\ufeff"

// CleanCell removes common CSV artifacts from a cell value: surrounding
// whitespace, a UTF-8 byte order mark, an Excel formula wrapper (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, bom))

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// OptionalText returns nil for an empty cell, otherwise a pointer to the
// cleaned text.
func OptionalText(s string) *string {
	s = CleanCell(s)
	if s == "" {
		return nil
	}
	return &s
}
