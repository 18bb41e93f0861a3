/*
Copyright © 2025 texneat contributors
*/

// Package buildtest drives the external document compiler through a
// two-phase skeleton/full build and validates the produced artifacts.
package buildtest

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
)

// CompileResult is the raw outcome of one compiler invocation. The compiler
// is a black box: only the exit code and captured output are interpreted.
type CompileResult struct {
	ExitCode int
	Output   string
}

// CompilerAdapter abstracts the external typesetting engine.
type CompilerAdapter interface {
	// Compile runs the compiler on the given root document. The returned
	// error is reserved for invocation failures (binary missing, context
	// cancelled); compiler diagnostics travel in CompileResult.
	Compile(ctx context.Context, rootPath string) (CompileResult, error)

	// ArtifactPath returns where the output artifact for rootPath lands.
	ArtifactPath(rootPath string) string
}

// CommandAdapter invokes a LaTeX engine as a subprocess.
type CommandAdapter struct {
	Command   string   // e.g. "pdflatex"
	Args      []string // e.g. ["-interaction=nonstopmode", "-halt-on-error"]
	OutputDir string   // compiler output directory; defaults to the root document's directory
	OutputExt string   // artifact extension; defaults to ".pdf"
}

// NewCommandAdapter returns an adapter with conventional pdflatex settings.
func NewCommandAdapter(command string, outputDir string) *CommandAdapter {
	if command == "" {
		command = "pdflatex"
	}
	return &CommandAdapter{
		Command:   command,
		Args:      []string{"-interaction=nonstopmode", "-halt-on-error"},
		OutputDir: outputDir,
		OutputExt: ".pdf",
	}
}

// Compile runs the engine with the document's directory as working directory
// so relative \input and \usepackage paths resolve.
func (a *CommandAdapter) Compile(ctx context.Context, rootPath string) (CompileResult, error) {
	args := append([]string{}, a.Args...)
	if a.OutputDir != "" {
		args = append(args, "-output-directory="+a.OutputDir)
	}
	args = append(args, filepath.Base(rootPath))

	cmd := exec.CommandContext(ctx, a.Command, args...) // #nosec G204 -- command comes from trusted config
	cmd.Dir = filepath.Dir(rootPath)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	result := CompileResult{Output: buf.String()}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	// Invocation-level failure: binary missing, context cancelled, etc.
	return result, err
}

// ArtifactPath follows the engine convention: same base name, fixed
// extension. A relative OutputDir is resolved against the document's
// directory, matching how the engine resolves it with Compile's working
// directory.
func (a *CommandAdapter) ArtifactPath(rootPath string) string {
	base := strings.TrimSuffix(filepath.Base(rootPath), filepath.Ext(rootPath))
	dir := a.OutputDir
	switch {
	case dir == "":
		dir = filepath.Dir(rootPath)
	case !filepath.IsAbs(dir):
		dir = filepath.Join(filepath.Dir(rootPath), dir)
	}
	ext := a.OutputExt
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join(dir, base+ext)
}
