/*
Copyright © 2025 texneat contributors
*/
package sanitize

import "strings"

// TeX quoting is written `` '' for double quotes and ` ' for single quotes.
// Typographic quotes from word processors and straight double quotes from
// plain-text sources both get canonicalized; straight apostrophes are already
// canonical and stay untouched.

func isQuoteRune(r rune) bool {
	switch r {
	case '“', '”', '„', '‘', '’', '"':
		return true
	}
	return false
}

// canonicalizeQuotes rewrites quote runes to the TeX convention. Directional
// typographic quotes map directly; ambiguous straight double quotes alternate
// open/close within each line, starting open.
func canonicalizeQuotes(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.ContainsFunc(line, isQuoteRune) {
			continue
		}
		var b strings.Builder
		b.Grow(len(line) + 8)
		open := true
		for _, r := range line {
			switch r {
			case '“', '„':
				b.WriteString("``")
			case '”':
				b.WriteString("''")
			case '‘':
				b.WriteByte('`')
			case '’':
				b.WriteByte('\'')
			case '"':
				if open {
					b.WriteString("``")
				} else {
					b.WriteString("''")
				}
				open = !open
			default:
				b.WriteRune(r)
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
