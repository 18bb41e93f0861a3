/*
Copyright © 2025 texneat contributors
*/
package repair

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/texneat/texneat/pkg/logger"
	"github.com/texneat/texneat/pkg/safeio"
)

// DefaultMaxPasses bounds the fixed-point iteration. Three passes unwind the
// deepest nesting seen in practice; the bound guards against pathological input.
const DefaultMaxPasses = 5

// Report is the per-buffer repair outcome.
type Report struct {
	Path         string   `json:"path,omitempty" yaml:"path,omitempty"`
	Passes       int      `json:"passes" yaml:"passes"`
	Replacements int      `json:"replacements" yaml:"replacements"`
	Changed      bool     `json:"changed" yaml:"changed"`
	PassCounts   []int    `json:"pass_counts,omitempty" yaml:"pass_counts,omitempty"`
	Warnings     []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// DecodeError indicates a file's content could not be decoded as text.
// The batch driver reports it and continues with the next file.
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s as UTF-8 text", e.Path)
}

// Engine applies a pattern library's escaping and cleanup rules to text
// buffers. Safe for concurrent use: the library is read-only after load and
// every call works on its own buffer.
type Engine struct {
	rules     []Rule
	maxPasses int
}

// NewEngine builds an engine over the Escaping and Cleanup subset of lib.
func NewEngine(lib *Library) *Engine {
	return &Engine{
		rules:     lib.Subset(CategoryEscaping, CategoryCleanup),
		maxPasses: DefaultMaxPasses,
	}
}

// WithMaxPasses overrides the pass bound. Values below 1 are ignored.
func (e *Engine) WithMaxPasses(n int) *Engine {
	if n >= 1 {
		e.maxPasses = n
	}
	return e
}

// Repair runs every rule, in declared order, globally across the buffer, and
// repeats until a pass makes zero replacements or the pass bound is hit.
// Running Repair on already repaired text reports zero replacements.
func (e *Engine) Repair(text string) (string, Report) {
	report := Report{}
	for pass := 1; pass <= e.maxPasses; pass++ {
		count := 0
		for _, rule := range e.rules {
			matches := rule.Pattern.FindAllStringIndex(text, -1)
			if len(matches) == 0 {
				continue
			}
			count += len(matches)
			text = rule.Pattern.ReplaceAllString(text, rule.Replacement)
		}
		report.Passes = pass
		report.PassCounts = append(report.PassCounts, count)
		report.Replacements += count
		if count == 0 {
			break
		}
	}
	report.Changed = report.Replacements > 0
	return text, report
}

// FileOptions controls RepairFile behavior.
type FileOptions struct {
	Backup   bool // write a .bak sibling before overwriting
	Validate bool // run the post-repair brace balance check
	DryRun   bool // report only, never write
}

// RepairFile repairs one file in place. Undecodable content yields a
// DecodeError so batch processing can skip the file and continue.
func (e *Engine) RepairFile(path string, opts FileOptions) (Report, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path selected by the caller's file walk
	if err != nil {
		return Report{Path: path}, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return Report{Path: path}, &DecodeError{Path: path}
	}

	repaired, report := e.Repair(string(data))
	report.Path = path

	if opts.Validate {
		report.Warnings = append(report.Warnings, ValidateBalance(repaired)...)
	}

	if !report.Changed || opts.DryRun {
		return report, nil
	}

	if opts.Backup {
		if _, err := safeio.WriteBackup(path); err != nil {
			return report, fmt.Errorf("backup %s: %w", path, err)
		}
	}
	if err := safeio.WriteFileAtomic(path, []byte(repaired)); err != nil {
		return report, fmt.Errorf("write %s: %w", path, err)
	}

	logger.Debug("Repaired file",
		logger.String("path", path),
		logger.Int("passes", report.Passes),
		logger.Int("replacements", report.Replacements))
	return report, nil
}

// ValidateBalance checks for unbalanced unescaped braces after rewriting.
// A detected imbalance is a warning for human review; content is never
// reverted or discarded.
func ValidateBalance(text string) []string {
	depth := 0
	minDepth := 0
	escaped := false
	for _, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			depth--
			if depth < minDepth {
				minDepth = depth
			}
		}
	}

	var warnings []string
	if depth != 0 || minDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("unbalanced braces after repair (final depth %d, min depth %d); review before committing", depth, minDepth))
	}
	return warnings
}
