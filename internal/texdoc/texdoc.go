/*
Copyright © 2025 texneat contributors
*/

// Package texdoc parses LaTeX root documents for inclusion directives.
package texdoc

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/texneat/texneat/pkg/safeio"
)

// RefKind classifies what an inclusion directive pulls in.
type RefKind int

const (
	// KindStyleFragment is a presentation/formatting package (\usepackage, \RequirePackage).
	KindStyleFragment RefKind = iota
	// KindContentModule is a document body file (\input, \include).
	KindContentModule
)

// String returns the string representation of the kind
func (k RefKind) String() string {
	switch k {
	case KindStyleFragment:
		return "style"
	case KindContentModule:
		return "module"
	default:
		return "unknown"
	}
}

// Reference is one inclusion directive found in the root document.
type Reference struct {
	Path string  `json:"path"` // as written in the directive, forward slashes
	Kind RefKind `json:"kind"`
	Line int     `json:"line"` // 1-based source line, for diagnostics
}

// SourceReadError indicates the root document could not be read or decoded.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("cannot read root document %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

var (
	// \input{...} and \include{...} splice in content modules.
	moduleRe = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)
	// \usepackage[...]{...} and \RequirePackage[...]{...} load style packages.
	styleRe = regexp.MustCompile(`\\(?:usepackage|RequirePackage)(?:\[[^\]]*\])?\{([^}]+)\}`)
)

// ExtractReferences parses the root document and returns its inclusion
// directives in source order. The root document must live inside baseDir;
// a configured root that points outside the document tree is a read error.
// Lines whose first non-whitespace character is the comment marker are
// skipped entirely; trailing comments are cut at the first unescaped %
// (line-level detection, not full tokenization).
//
// Style directives with a bare name (\usepackage{graphicx}) refer to
// system-installed packages and are not tree-local artifacts; only arguments
// containing a path separator are reported as style-fragment references.
func ExtractReferences(baseDir, rootPath string) ([]Reference, error) {
	data, err := safeio.ReadFileContained(baseDir, rootPath)
	if err != nil {
		return nil, &SourceReadError{Path: rootPath, Err: err}
	}
	if !utf8.Valid(data) || bytes.Contains(data, []byte{0}) {
		return nil, &SourceReadError{Path: rootPath, Err: fmt.Errorf("content is not decodable text")}
	}

	var refs []Reference
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "%") {
			continue
		}
		code := stripTrailingComment(line)

		for _, m := range moduleRe.FindAllStringSubmatch(code, -1) {
			refs = append(refs, Reference{
				Path: strings.TrimSpace(m[1]),
				Kind: KindContentModule,
				Line: lineNo,
			})
		}
		for _, m := range styleRe.FindAllStringSubmatch(code, -1) {
			// \usepackage accepts a comma-separated package list
			for _, name := range strings.Split(m[1], ",") {
				name = strings.TrimSpace(name)
				if name == "" || !strings.Contains(name, "/") {
					continue
				}
				refs = append(refs, Reference{
					Path: name,
					Kind: KindStyleFragment,
					Line: lineNo,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &SourceReadError{Path: rootPath, Err: err}
	}
	return refs, nil
}

// stripTrailingComment cuts a line at the first % that is not escaped as \%.
func stripTrailingComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '%' {
			continue
		}
		// Count preceding backslashes; an odd run escapes the marker.
		backslashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return line[:i]
		}
	}
	return line
}
