/*
Copyright © 2025 texneat contributors
*/

// Package report aggregates the outcome of a validation or build run into a
// single pass/fail summary with counts.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/texneat/texneat/internal/buildtest"
	"github.com/texneat/texneat/internal/gitctx"
	"github.com/texneat/texneat/internal/repair"
	"github.com/texneat/texneat/pkg/exitcode"
)

// BuildReport is the single top-level result of a run. Every orchestration
// path ends in one of these; no error propagates past it.
type BuildReport struct {
	Root        string             `json:"root" yaml:"root"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Git         *gitctx.Context    `json:"git,omitempty" yaml:"git,omitempty"`
	References  int                `json:"references" yaml:"references"`
	Styles      int                `json:"style_fragments" yaml:"style_fragments"`
	Modules     int                `json:"content_modules" yaml:"content_modules"`
	Missing     int                `json:"missing_before_synthesis" yaml:"missing_before_synthesis"`
	Synthesized []string           `json:"synthesized,omitempty" yaml:"synthesized,omitempty"`
	Unresolved  []string           `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Repairs     []repair.Report    `json:"repairs,omitempty" yaml:"repairs,omitempty"`
	Skipped     []string           `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`
	Build       *buildtest.Outcome `json:"build,omitempty" yaml:"build,omitempty"`
}

// Passed reports whether the run as a whole succeeded: every reference
// resolved (after synthesis) and, when a build ran, both phases passed.
func (r *BuildReport) Passed() bool {
	if len(r.Unresolved) > 0 {
		return false
	}
	if r.Build != nil && r.Build.State != buildtest.StateAllPassed {
		return false
	}
	return true
}

// ExitCode maps the report onto the CLI exit contract.
func (r *BuildReport) ExitCode() int {
	if r.Passed() {
		return exitcode.Success
	}
	return exitcode.ValidationError
}

// Render serializes the report as text, json, or yaml.
func (r *BuildReport) Render(format string) (string, error) {
	switch format {
	case "", "text":
		return r.renderText(), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json, or yaml)", format)
	}
}

func (r *BuildReport) renderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Root document: %s\n", r.Root)
	if r.Git != nil {
		fmt.Fprintf(&b, "Git: branch %s @ %.8s, %d dirty file(s)", r.Git.Branch, r.Git.SHA, r.Git.DirtyFiles)
		if r.Git.MergeInProgress {
			b.WriteString(", merge in progress")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "References: %d (%d style, %d module), %d missing\n", r.References, r.Styles, r.Modules, r.Missing)

	for _, path := range r.Synthesized {
		fmt.Fprintf(&b, "  synthesized placeholder: %s\n", path)
	}
	for _, path := range r.Unresolved {
		fmt.Fprintf(&b, "  UNRESOLVED: %s\n", path)
	}
	for _, path := range r.Skipped {
		fmt.Fprintf(&b, "  skipped (undecodable): %s\n", path)
	}

	if len(r.Repairs) > 0 {
		changed := 0
		total := 0
		for _, rep := range r.Repairs {
			if rep.Changed {
				changed++
			}
			total += rep.Replacements
		}
		fmt.Fprintf(&b, "Repairs: %d file(s) changed, %d replacement(s)\n", changed, total)
	}

	if r.Build != nil {
		for _, attempt := range r.Build.Attempts {
			status := "ok"
			if !attempt.Succeeded {
				status = "FAILED"
			}
			fmt.Fprintf(&b, "Build %s: %s (exit %d, artifact %d bytes)\n",
				attempt.Phase, status, attempt.ExitCode, attempt.ArtifactSizeBytes)
			if attempt.Output != "" {
				fmt.Fprintf(&b, "  diagnostics: %s\n", firstLine(attempt.Output))
			}
		}
		fmt.Fprintf(&b, "Build state: %s\n", r.Build.State)
	}

	if r.Passed() {
		b.WriteString("Result: PASS\n")
	} else {
		b.WriteString("Result: FAIL\n")
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
