/*
Copyright © 2025 texneat contributors
*/

// Package scaffold synthesizes placeholder artifacts for missing references
// so an incomplete document tree stays compilable.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/texneat/texneat/internal/resolve"
	"github.com/texneat/texneat/internal/texdoc"
	"github.com/texneat/texneat/pkg/logger"
	"github.com/texneat/texneat/pkg/safeio"
)

// Inside the templates single braces are literal LaTeX; values that must sit
// inside braces are passed pre-braced as SafeString so raymond leaves them alone.
const styleTemplate = `% ==========================================================
% PLACEHOLDER STYLE FILE - generated by texneat
% Referenced as {{refPath}} (root document line {{line}})
% Replace with real content, then delete the companion .todo file.
% ==========================================================
\NeedsTeXFormat{LaTeX2e}
\ProvidesPackage{{bracedBase}}[{{date}} texneat placeholder]

% Visible marker so skeleton builds show the gap instead of failing.
\newcommand{{bracedCommand}}{\textbf{[TODO: {{refPath}} needs content]}}
`

const moduleTemplate = `% ==========================================================
% PLACEHOLDER CONTENT MODULE - generated by texneat
% Referenced as {{refPath}} (root document line {{line}})
% Replace with real content, then delete the companion .todo file.
% ==========================================================
% \section{{bracedTitle}}

\textbf{[TODO: {{refPath}} needs content]}
`

const todoTemplate = `texneat placeholder marker
===========================
artifact: {{artifact}}
referenced as: {{refPath}} (root document line {{line}})
created: {{date}}

This file marks an auto-generated placeholder. Author the real content in
the artifact above, then delete this marker.
`

// Synthesizer renders placeholder artifacts from compiled templates.
type Synthesizer struct {
	style  *raymond.Template
	module *raymond.Template
	todo   *raymond.Template
	now    func() time.Time
}

// NewSynthesizer compiles the built-in templates.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		style:  raymond.MustParse(styleTemplate),
		module: raymond.MustParse(moduleTemplate),
		todo:   raymond.MustParse(todoTemplate),
		now:    time.Now,
	}
}

// Synthesize writes a placeholder artifact plus a companion .todo marker for
// one missing reference. Calling it for an existing artifact is a no-op.
// Returns the path of the created artifact, or "" when nothing was written.
func (s *Synthesizer) Synthesize(status resolve.ArtifactStatus) (string, error) {
	if status.Exists {
		return "", nil
	}

	// The resolver rejects traversing references, but Synthesize is the
	// component that actually writes to disk, so it verifies again.
	if _, err := safeio.CleanUserPath(status.Ref.Path); err != nil {
		return "", fmt.Errorf("refusing placeholder for %s: %w", status.Ref.Path, err)
	}

	path := status.ResolvedPath
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ident := SanitizeIdentifier(base)
	ctx := map[string]interface{}{
		"refPath":       status.Ref.Path,
		"line":          status.Ref.Line,
		"date":          s.now().Format("2006/01/02"),
		"artifact":      path,
		"bracedBase":    raymond.SafeString("{" + base + "}"),
		"bracedTitle":   raymond.SafeString("{" + base + "}"),
		"bracedCommand": raymond.SafeString(`{\` + ident + `Placeholder}`),
	}

	var tpl *raymond.Template
	switch status.Ref.Kind {
	case texdoc.KindStyleFragment:
		tpl = s.style
	case texdoc.KindContentModule:
		tpl = s.module
	default:
		return "", fmt.Errorf("unknown reference kind %d for %s", status.Ref.Kind, status.Ref.Path)
	}

	content, err := tpl.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("render placeholder template: %w", err)
	}
	if err := safeio.WriteFileAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("write placeholder %s: %w", path, err)
	}

	marker, err := s.todo.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("render todo marker: %w", err)
	}
	if err := safeio.WriteFileAtomic(path+".todo", []byte(marker)); err != nil {
		return "", fmt.Errorf("write todo marker: %w", err)
	}

	logger.Info("Synthesized placeholder artifact",
		logger.String("path", path),
		logger.String("kind", status.Ref.Kind.String()))
	return path, nil
}

// SynthesizeAll fills every gap in statuses and returns the created paths in
// input order.
func (s *Synthesizer) SynthesizeAll(statuses []resolve.ArtifactStatus) ([]string, error) {
	var created []string
	for _, status := range statuses {
		path, err := s.Synthesize(status)
		if err != nil {
			return created, err
		}
		if path != "" {
			created = append(created, path)
		}
	}
	return created, nil
}
