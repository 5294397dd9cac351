// Package agereport parses the age-distribution table out of the daily
// dashboard text.
package agereport

import "strings"

// ExtractNumbers splits a densely concatenated, comma-grouped digit stream
// into integer strings. The stream has no delimiters between successive
// numbers: "1,234567,890" holds the three numbers 1234, 567 and 890.
//
// The scan accumulates digits into a running token. A character is absorbed
// unconditionally while a comma sits within the last three characters of the
// token (the inside of a thousands group). Otherwise a token of three or
// more characters is flushed at the next boundary; a comma at such a
// boundary starts the next token's thousands group rather than extending the
// finished one.
func ExtractNumbers(s string) []string {
	var out []string
	var tok strings.Builder

	flush := func() {
		stripped := strings.ReplaceAll(tok.String(), ",", "")
		if stripped != "" {
			out = append(out, stripped)
		}
		tok.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		cur := tok.String()
		tail := cur
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		switch {
		case strings.ContainsRune(tail, ','):
			tok.WriteByte(c)
		case len(cur) >= 3:
			flush()
			tok.WriteByte(c)
		default:
			tok.WriteByte(c)
		}
	}
	flush()

	return out
}

// ExtractNumberSeries tokenizes a numeric series that may retain whitespace
// between values: each whitespace-separated field is tokenized on its own,
// so "10 20 30" yields three numbers rather than one dense stream. Stray
// punctuation around the numbers is dropped before tokenizing.
func ExtractNumberSeries(raw string) []string {
	var out []string
	for _, field := range strings.Fields(raw) {
		field = strings.Map(func(r rune) rune {
			if r == ',' || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, field)
		if field == "" {
			continue
		}
		out = append(out, ExtractNumbers(field)...)
	}
	return out
}
