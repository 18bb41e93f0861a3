/*
Copyright © 2025 texneat contributors
*/
package repair

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultLibrary())
}

func TestRepairSimpleOverEscape(t *testing.T) {
	// One converter pass over \section{Intro}
	input := `\textbackslash{}section\{Intro\}`

	out, report := newTestEngine().Repair(input)
	assert.Equal(t, `\section{Intro}`, out)
	assert.True(t, report.Changed)
	assert.Equal(t, 2, report.Passes)
	assert.Equal(t, 0, report.PassCounts[len(report.PassCounts)-1])
}

func TestRepairNestedOverEscape(t *testing.T) {
	// Two converter passes over \section{Intro}: the escaped-brace variants
	// only become visible after the simple rules ran, forcing a second pass.
	input := `\textbackslash{}textbackslash\{\}section\textbackslash{}\{Intro\textbackslash{}\}`

	out, report := newTestEngine().Repair(input)
	assert.Equal(t, `\section{Intro}`, out)
	assert.Equal(t, 3, report.Passes)
	assert.Greater(t, report.PassCounts[0], 0, "pass 1 must make replacements")
	assert.Equal(t, 0, report.PassCounts[len(report.PassCounts)-1], "final pass must make none")
}

func TestRepairTripleChain(t *testing.T) {
	// Three chained over-escape levels around a single command.
	input := `\textbackslash{}textbackslash\{\}textbackslash\{\}section`

	out, report := newTestEngine().Repair(input)
	assert.Equal(t, `\section`, out)
	assert.LessOrEqual(t, report.Passes, 3, "three levels must reduce within three passes")
	assert.Greater(t, report.PassCounts[0], 0)
	assert.Equal(t, 0, report.PassCounts[len(report.PassCounts)-1])
}

func TestRepairIdempotence(t *testing.T) {
	inputs := []string{
		`\textbackslash{}section\{Intro\}`,
		`\textbackslash{}textbackslash\{\}section\textbackslash{}\{Intro\textbackslash{}\}`,
		`plain text, no markup at all`,
		`\section{Intro} with \textbf{bold} and 50\% done`,
	}

	e := newTestEngine()
	for _, input := range inputs {
		once, first := e.Repair(input)
		twice, second := e.Repair(once)
		assert.Equal(t, once, twice, "repair must be idempotent for %q", input)
		assert.Equal(t, 0, second.Replacements, "second repair of %q must report zero replacements", input)
		assert.False(t, second.Changed)
		_ = first
	}
}

func TestRepairCleanTextUntouched(t *testing.T) {
	input := `\section{Intro}
Body text with \textbf{bold}, math $x+y$, and 50\% complete.
`
	out, report := newTestEngine().Repair(input)
	assert.Equal(t, input, out)
	assert.False(t, report.Changed)
	assert.Equal(t, 1, report.Passes)
}

func TestRepairPassBound(t *testing.T) {
	e := NewEngine(DefaultLibrary()).WithMaxPasses(1)
	// Needs two fixing passes; the bound cuts iteration off after one.
	input := `\textbackslash{}textbackslash\{\}section\textbackslash{}\{Intro\textbackslash{}\}`
	_, report := e.Repair(input)
	assert.Equal(t, 1, report.Passes)
	assert.Greater(t, report.Replacements, 0)
}

func TestRepairFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.tex")
	require.NoError(t, os.WriteFile(path, []byte(`\textbackslash{}section\{Methods\}`), 0o644))

	report, err := newTestEngine().RepairFile(path, FileOptions{Backup: true})
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.Equal(t, path, report.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `\section{Methods}`, string(data))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, `\textbackslash{}section\{Methods\}`, string(bak))
}

func TestRepairFileDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.tex")
	original := `\textbackslash{}item`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	report, err := newTestEngine().RepairFile(path, FileOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "dry run must not modify the file")
	assert.NoFileExists(t, path+".bak")
}

func TestRepairFileDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.tex")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x41, 0x00}, 0o644))

	_, err := newTestEngine().RepairFile(path, FileOptions{})
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr), "expected DecodeError, got %v", err)
	assert.Equal(t, path, decErr.Path)
}

func TestValidateBalance(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantWarning bool
	}{
		{"balanced", `\section{Intro}{nested{deep}}`, false},
		{"escaped braces ignored", `literal \{ and \} stay out of the count`, false},
		{"unclosed", `\section{Intro`, true},
		{"close before open", `}{`, true},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateBalance(tt.input)
			if tt.wantWarning {
				assert.NotEmpty(t, warnings)
			} else {
				assert.Empty(t, warnings)
			}
		})
	}
}
