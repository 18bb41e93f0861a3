/*
Copyright © 2025 texneat contributors
*/
package scaffold

import "strings"

// DefaultIdentifier is used when sanitization leaves nothing usable.
const DefaultIdentifier = "placeholder"

// SanitizeIdentifier derives a LaTeX-safe command identifier from an artifact
// base name. LaTeX control sequence names may contain only letters, so
// hyphens, underscores, digits and any non-ASCII runes are stripped and the
// remaining segments are camel-cased: "ctmm-design" becomes "ctmmDesign".
// Names with no usable letters fall back to DefaultIdentifier. The result is
// never empty and always starts with a lowercase ASCII letter.
func SanitizeIdentifier(name string) string {
	var segments []string
	var current strings.Builder
	for _, r := range name {
		if isASCIILetter(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	if len(segments) == 0 {
		return DefaultIdentifier
	}

	var out strings.Builder
	for i, seg := range segments {
		if i == 0 {
			out.WriteString(strings.ToLower(seg[:1]) + seg[1:])
			continue
		}
		out.WriteString(strings.ToUpper(seg[:1]) + seg[1:])
	}
	return out.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
