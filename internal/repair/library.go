/*
Copyright © 2025 texneat contributors
*/

// Package repair implements the multi-pass de-escaping engine and its
// ordered pattern library.
package repair

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// Category tags what a rule is for. The engine applies Escaping and Cleanup
// rules; CharRemoval rules strip stray code points left behind by converters.
type Category int

const (
	CategoryEscaping Category = iota
	CategoryCleanup
	CategoryCharRemoval
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryEscaping:
		return "escaping"
	case CategoryCleanup:
		return "cleanup"
	case CategoryCharRemoval:
		return "char-removal"
	default:
		return "unknown"
	}
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "escaping":
		return CategoryEscaping, nil
	case "cleanup":
		return CategoryCleanup, nil
	case "char-removal":
		return CategoryCharRemoval, nil
	}
	return 0, fmt.Errorf("unknown rule category %q", s)
}

// Rule is one ordered (match, replacement) pair. Rules are pure data; adding
// or reordering rules is a data change, not a code change.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Category    Category
	Note        string
}

// Library is an ordered, read-only-after-load rule set. Ordering is
// significant: simple escaping rules must run before the cleanup rules that
// depend on their output.
type Library struct {
	Version string
	Rules   []Rule
}

// DefaultLibrary returns the built-in rule set for the known corruption
// pattern: markdown-to-LaTeX converters re-escaping already escaped control
// sequences. Deeper nesting levels collapse across engine passes because the
// escaped-brace variants only become visible after the simple rules ran.
func DefaultLibrary() *Library {
	return &Library{
		Version: "1",
		Rules: []Rule{
			{
				Pattern:     regexp.MustCompile(`\\textbackslash\{\}`),
				Replacement: `\`,
				Category:    CategoryEscaping,
				Note:        "over-escaped backslash with empty group",
			},
			{
				Pattern:     regexp.MustCompile(`\\textbackslash\\\{\\\}`),
				Replacement: `\`,
				Category:    CategoryEscaping,
				Note:        "over-escaped backslash with re-escaped group braces",
			},
			{
				Pattern:     regexp.MustCompile(`\\textbackslash +(?=[A-Za-z])`),
				Replacement: `\`,
				Category:    CategoryEscaping,
				Note:        "over-escaped backslash without group, glued to a command name",
			},
			{
				Pattern:     regexp.MustCompile(`\\\\(section|subsection|subsubsection|chapter|paragraph|textbf|textit|emph|item|begin|end|label|ref|cite|input|include|usepackage|newcommand|hypertarget)\b`),
				Replacement: `\$1`,
				Category:    CategoryEscaping,
				Note:        "doubled backslash before a known command name",
			},
			{
				Pattern:     regexp.MustCompile(`\\\{`),
				Replacement: `{`,
				Category:    CategoryCleanup,
				Note:        "converter-escaped structural open brace",
			},
			{
				Pattern:     regexp.MustCompile(`\\\}`),
				Replacement: `}`,
				Category:    CategoryCleanup,
				Note:        "converter-escaped structural close brace",
			},
			{
				Pattern:     regexp.MustCompile(`\{\[\}`),
				Replacement: `[`,
				Category:    CategoryCleanup,
				Note:        "pandoc bracket group around open square bracket",
			},
			{
				Pattern:     regexp.MustCompile(`\{\]\}`),
				Replacement: `]`,
				Category:    CategoryCleanup,
				Note:        "pandoc bracket group around close square bracket",
			},
			{
				Pattern:     regexp.MustCompile(`\\textquotesingle\{\}`),
				Replacement: `'`,
				Category:    CategoryCleanup,
				Note:        "converter artifact for straight apostrophe",
			},
			{
				Pattern:     regexp.MustCompile("­"),
				Replacement: "",
				Category:    CategoryCharRemoval,
				Note:        "soft hyphen",
			},
			{
				Pattern:     regexp.MustCompile("​"),
				Replacement: "",
				Category:    CategoryCharRemoval,
				Note:        "zero width space",
			},
		},
	}
}

// tomlLibrary mirrors the override file layout.
type tomlLibrary struct {
	Version string     `toml:"version"`
	Rules   []tomlRule `toml:"rules"`
}

type tomlRule struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
	Category    string `toml:"category"`
	Note        string `toml:"note"`
}

// LoadLibrary reads a rule library from a TOML file. Rules keep file order.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- explicit user-provided patterns file
	if err != nil {
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var doc tomlLibrary
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse patterns file %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("patterns file %s defines no rules", path)
	}

	lib := &Library{Version: doc.Version}
	for i, r := range doc.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Pattern, err)
		}
		cat, err := parseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		lib.Rules = append(lib.Rules, Rule{
			Pattern:     re,
			Replacement: r.Replacement,
			Category:    cat,
			Note:        r.Note,
		})
	}
	return lib, nil
}

// Subset returns the rules belonging to the given categories, preserving order.
func (l *Library) Subset(categories ...Category) []Rule {
	want := make(map[Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	var out []Rule
	for _, r := range l.Rules {
		if want[r.Category] {
			out = append(out, r)
		}
	}
	return out
}
