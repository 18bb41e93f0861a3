/*
Copyright © 2025 texneat contributors
*/

// Package sanitize detects and strips disruptive characters that break LaTeX
// compilation: byte order marks, null bytes, merge conflict markers,
// invisible Unicode, non-canonical quotes, and stray control characters.
//
// Letters outside ASCII that belong to the document's natural language
// (diacritics and the like) are never flagged.
package sanitize

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Category identifies one class of disruptive content, in order of severity.
type Category int

const (
	CategoryBOM Category = iota
	CategoryNullByte
	CategoryMergeMarker
	CategoryInvisibleUnicode
	CategoryQuoteStyle
	CategoryControlChar
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryBOM:
		return "BOM"
	case CategoryNullByte:
		return "NullByte"
	case CategoryMergeMarker:
		return "MergeMarker"
	case CategoryInvisibleUnicode:
		return "InvisibleUnicode"
	case CategoryQuoteStyle:
		return "QuoteStyle"
	case CategoryControlChar:
		return "ControlChar"
	default:
		return "Unknown"
	}
}

// Issue is one detected occurrence. Line is 1-based; Column is the 1-based
// display column of the occurrence (wide runes count for their render width).
type Issue struct {
	Category Category `json:"category"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Detail   string   `json:"detail,omitempty"`
}

// ErrNotText indicates the stream is not decodable text after BOM removal.
var ErrNotText = errors.New("content is not decodable text")

// mergeWindow is how far the flanking conflict markers may be from an
// ambiguous ======= line for it to count as a conflict separator. A bare
// equals run without <<<<<<< above and >>>>>>> below is legitimate markup.
const mergeWindow = 10

const invisibleRunes = "​‌‍⁠\uFEFF‎‏‪‫‬‭‮⁦⁧⁨⁩"

func isInvisible(r rune) bool {
	return strings.ContainsRune(invisibleRunes, r)
}

func isDisallowedControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	// NUL is reported separately as its own category.
	if r == 0 {
		return false
	}
	return unicode.IsControl(r)
}

// Scan reports every disruptive occurrence in severity order: stream-level
// findings (BOM, null bytes) first, then line-anchored merge markers, then
// per-rune findings in document order. Content that is not decodable text
// yields the stream-level findings plus ErrNotText.
func Scan(data []byte) ([]Issue, error) {
	var issues []Issue

	if enc, _, found := GetBOMInfo(data); found {
		issues = append(issues, Issue{Category: CategoryBOM, Line: 1, Column: 1, Detail: enc + " byte order mark"})
	}
	body, _ := RemoveBOM(data)

	for offset := 0; ; {
		idx := bytes.IndexByte(body[offset:], 0)
		if idx < 0 {
			break
		}
		pos := offset + idx
		line, col := lineCol(body, pos)
		issues = append(issues, Issue{Category: CategoryNullByte, Line: line, Column: col, Detail: "embedded null byte"})
		offset = pos + 1
	}

	if !utf8.Valid(body) {
		return issues, ErrNotText
	}

	lines := splitLines(body)
	issues = append(issues, scanMergeMarkers(lines)...)
	issues = append(issues, scanRunes(lines)...)
	return issues, nil
}

func splitLines(body []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func isConflictStart(line string) bool { return strings.HasPrefix(line, "<<<<<<<") }
func isConflictEnd(line string) bool   { return strings.HasPrefix(line, ">>>>>>>") }
func isConflictBase(line string) bool  { return strings.HasPrefix(line, "|||||||") }

func isEqualsRunOnly(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < 7 {
		return false
	}
	return strings.Count(trimmed, "=") == len(trimmed)
}

// scanMergeMarkers flags conflict marker lines. Start and end markers are
// unambiguous. A bare equals run only counts when flanked by a start marker
// above and an end marker below within mergeWindow lines.
func scanMergeMarkers(lines []string) []Issue {
	var issues []Issue
	for i, line := range lines {
		switch {
		case isConflictStart(line):
			issues = append(issues, Issue{Category: CategoryMergeMarker, Line: i + 1, Column: 1, Detail: "conflict start marker"})
		case isConflictEnd(line):
			issues = append(issues, Issue{Category: CategoryMergeMarker, Line: i + 1, Column: 1, Detail: "conflict end marker"})
		case isConflictBase(line) && hasNearby(lines, i, -1, isConflictStart):
			issues = append(issues, Issue{Category: CategoryMergeMarker, Line: i + 1, Column: 1, Detail: "conflict base marker"})
		case isEqualsRunOnly(line) && hasNearby(lines, i, -1, isConflictStart) && hasNearby(lines, i, +1, isConflictEnd):
			issues = append(issues, Issue{Category: CategoryMergeMarker, Line: i + 1, Column: 1, Detail: "conflict separator"})
		}
	}
	return issues
}

func hasNearby(lines []string, from, dir int, match func(string) bool) bool {
	for step := 1; step <= mergeWindow; step++ {
		i := from + dir*step
		if i < 0 || i >= len(lines) {
			return false
		}
		if match(lines[i]) {
			return true
		}
	}
	return false
}

func scanRunes(lines []string) []Issue {
	var issues []Issue
	for lineIdx, line := range lines {
		col := 1
		for _, r := range line {
			switch {
			case isInvisible(r):
				issues = append(issues, Issue{
					Category: CategoryInvisibleUnicode,
					Line:     lineIdx + 1,
					Column:   col,
					Detail:   fmt.Sprintf("invisible code point U+%04X", r),
				})
			case isQuoteRune(r):
				issues = append(issues, Issue{
					Category: CategoryQuoteStyle,
					Line:     lineIdx + 1,
					Column:   col,
					Detail:   fmt.Sprintf("non-canonical quote %q", r),
				})
			case isDisallowedControl(r):
				issues = append(issues, Issue{
					Category: CategoryControlChar,
					Line:     lineIdx + 1,
					Column:   col,
					Detail:   fmt.Sprintf("control code point U+%04X", r),
				})
			}
			// Zero-width runes still advance the logical position by one
			// so consecutive findings do not collapse onto one column.
			w := runewidth.RuneWidth(r)
			if w == 0 {
				w = 1
			}
			col += w
		}
	}
	return issues
}

func lineCol(body []byte, pos int) (int, int) {
	line := 1 + bytes.Count(body[:pos], []byte{'\n'})
	last := bytes.LastIndexByte(body[:pos], '\n')
	prefix := body[last+1 : pos]
	col := 1
	if utf8.Valid(prefix) {
		col = runewidth.StringWidth(string(prefix)) + 1
	} else {
		col = len(prefix) + 1
	}
	return line, col
}

// Clean strips categories 1-4 and 6 and canonicalizes quotes (category 5),
// returning the cleaned stream together with the issues that were addressed.
func Clean(data []byte) ([]byte, []Issue, error) {
	issues, err := Scan(data)
	if err != nil {
		return nil, issues, err
	}

	body, _ := RemoveBOM(data)
	body = bytes.ReplaceAll(body, []byte{0}, nil)

	// Drop whole conflict marker lines, using the exact set Scan flagged.
	markerLines := make(map[int]bool)
	for _, issue := range issues {
		if issue.Category == CategoryMergeMarker {
			markerLines[issue.Line] = true
		}
	}
	lines := strings.Split(string(body), "\n")
	kept := lines[:0]
	for i, line := range lines {
		if markerLines[i+1] {
			continue
		}
		kept = append(kept, line)
	}
	text := strings.Join(kept, "\n")

	// Invisible and control runes are removed in one transform pass.
	stripper := runes.Remove(runes.Predicate(func(r rune) bool {
		return isInvisible(r) || isDisallowedControl(r)
	}))
	text, _, err = transform.String(stripper, text)
	if err != nil {
		return nil, issues, fmt.Errorf("strip invisible runes: %w", err)
	}

	text = canonicalizeQuotes(text)
	return []byte(text), issues, nil
}
