/*
Copyright © 2025 texneat contributors
*/
package buildtest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter simulates the external engine. It records every invocation and
// writes an artifact of the configured size.
type fakeAdapter struct {
	exitSkeleton     int
	exitFull         int
	artifactSkeleton int64
	artifactFull     int64
	block            bool // wait for context cancellation instead of returning

	compiled        []string
	skeletonContent string
}

func (f *fakeAdapter) isSkeleton(path string) bool {
	return strings.Contains(filepath.Base(path), "-skeleton-")
}

func (f *fakeAdapter) Compile(ctx context.Context, rootPath string) (CompileResult, error) {
	f.compiled = append(f.compiled, rootPath)

	if f.block {
		<-ctx.Done()
		return CompileResult{Output: "interrupted"}, ctx.Err()
	}

	exit := f.exitFull
	size := f.artifactFull
	if f.isSkeleton(rootPath) {
		exit = f.exitSkeleton
		size = f.artifactSkeleton
		if data, err := os.ReadFile(rootPath); err == nil {
			f.skeletonContent = string(data)
		}
	}

	if size > 0 {
		if err := os.WriteFile(f.ArtifactPath(rootPath), bytes.Repeat([]byte{'x'}, int(size)), 0o644); err != nil {
			return CompileResult{}, err
		}
	}
	return CompileResult{ExitCode: exit, Output: "engine log output"}, nil
}

func (f *fakeAdapter) ArtifactPath(rootPath string) string {
	base := strings.TrimSuffix(filepath.Base(rootPath), filepath.Ext(rootPath))
	return filepath.Join(filepath.Dir(rootPath), base+".pdf")
}

func writeRootDoc(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `\documentclass{article}
\usepackage{style/design}
\begin{document}
\input{modules/intro}
  \include{modules/methods}
\end{document}
`
	path := filepath.Join(dir, "main.tex")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunAllPassed(t *testing.T) {
	root := writeRootDoc(t)
	fake := &fakeAdapter{artifactSkeleton: 2048, artifactFull: 4096}

	tester := NewTester(fake, root)
	outcome := tester.Run(context.Background())

	assert.Equal(t, StateAllPassed, outcome.State)
	require.Len(t, outcome.Attempts, 2)
	assert.Equal(t, PhaseSkeleton, outcome.Attempts[0].Phase)
	assert.Equal(t, PhaseFull, outcome.Attempts[1].Phase)
	assert.True(t, outcome.Attempts[0].Succeeded)
	assert.True(t, outcome.Attempts[1].Succeeded)

	// Second invocation compiled the unmodified root document.
	require.Len(t, fake.compiled, 2)
	assert.Equal(t, root, fake.compiled[1])
}

func TestRunSkeletonElidesContentModules(t *testing.T) {
	root := writeRootDoc(t)
	fake := &fakeAdapter{artifactSkeleton: 2048, artifactFull: 4096}

	NewTester(fake, root).Run(context.Background())

	require.NotEmpty(t, fake.skeletonContent)
	assert.Contains(t, fake.skeletonContent, `% [skeleton] \input{modules/intro}`)
	assert.Contains(t, fake.skeletonContent, `% [skeleton] \include{modules/methods}`)
	assert.Contains(t, fake.skeletonContent, `\usepackage{style/design}`, "style fragments must stay active in the skeleton")

	// The indented include keeps its indentation in front of the comment.
	assert.Contains(t, fake.skeletonContent, "  % [skeleton] \\include{modules/methods}")
}

func TestRunFailFastOnSkeletonFailure(t *testing.T) {
	root := writeRootDoc(t)
	fake := &fakeAdapter{exitSkeleton: 1, artifactSkeleton: 0}

	outcome := NewTester(fake, root).Run(context.Background())

	assert.Equal(t, StateSkeletonFailed, outcome.State)
	require.Len(t, outcome.Attempts, 1, "full build must never run after a failed skeleton")
	assert.Equal(t, PhaseSkeleton, outcome.Attempts[0].Phase)
	assert.NotEmpty(t, outcome.Attempts[0].Output, "diagnostics must be attached on failure")
	require.Len(t, fake.compiled, 1)
}

func TestRunUndersizedArtifactFails(t *testing.T) {
	root := writeRootDoc(t)
	// Exit code 0 but a 200 byte artifact against a 1024 byte threshold.
	fake := &fakeAdapter{artifactSkeleton: 2048, artifactFull: 200}

	tester := NewTester(fake, root)
	outcome := tester.Run(context.Background())

	assert.Equal(t, StateFullFailed, outcome.State)
	require.Len(t, outcome.Attempts, 2)
	full := outcome.Attempts[1]
	assert.Equal(t, 0, full.ExitCode)
	assert.True(t, full.ArtifactExists)
	assert.Equal(t, int64(200), full.ArtifactSizeBytes)
	assert.False(t, full.Succeeded, "exit 0 with an undersized artifact must fail")
}

func TestRunRecordsVerdictAgainstConfiguredThreshold(t *testing.T) {
	root := writeRootDoc(t)
	// 800 byte artifacts fail the default threshold but pass a lowered one.
	fake := &fakeAdapter{artifactSkeleton: 800, artifactFull: 800}

	tester := NewTester(fake, root)
	tester.MinArtifactBytes = 512
	outcome := tester.Run(context.Background())

	assert.Equal(t, StateAllPassed, outcome.State)
	require.Len(t, outcome.Attempts, 2)
	assert.True(t, outcome.Attempts[0].Succeeded)
	assert.True(t, outcome.Attempts[1].Succeeded)
}

func TestRunTimeout(t *testing.T) {
	root := writeRootDoc(t)
	fake := &fakeAdapter{block: true}

	tester := NewTester(fake, root)
	tester.Timeout = 50 * time.Millisecond
	outcome := tester.Run(context.Background())

	assert.Equal(t, StateSkeletonFailed, outcome.State)
	require.Len(t, outcome.Attempts, 1)
	assert.True(t, outcome.Attempts[0].TimedOut)
	assert.Contains(t, outcome.Attempts[0].Output, "timeout")
}

func TestRunCleansUpSkeleton(t *testing.T) {
	root := writeRootDoc(t)
	fake := &fakeAdapter{exitSkeleton: 1}

	NewTester(fake, root).Run(context.Background())

	entries, err := os.ReadDir(filepath.Dir(root))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "-skeleton-", "skeleton copies must be removed on every exit path")
	}
}

func TestAttemptResultSuccessConjunction(t *testing.T) {
	tests := []struct {
		name    string
		result  AttemptResult
		success bool
	}{
		{"all good", AttemptResult{ExitCode: 0, ArtifactExists: true, ArtifactSizeBytes: 2048}, true},
		{"nonzero exit", AttemptResult{ExitCode: 1, ArtifactExists: true, ArtifactSizeBytes: 2048}, false},
		{"missing artifact", AttemptResult{ExitCode: 0, ArtifactExists: false}, false},
		{"undersized artifact", AttemptResult{ExitCode: 0, ArtifactExists: true, ArtifactSizeBytes: 200}, false},
		{"at threshold is too small", AttemptResult{ExitCode: 0, ArtifactExists: true, ArtifactSizeBytes: 1024}, false},
		{"timed out", AttemptResult{ExitCode: 0, ArtifactExists: true, ArtifactSizeBytes: 2048, TimedOut: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.success, tt.result.Success(DefaultMinArtifactBytes))
		})
	}
}

func TestCommandAdapterArtifactPath(t *testing.T) {
	a := NewCommandAdapter("pdflatex", "")
	assert.Equal(t, filepath.Join("/doc", "main.pdf"), a.ArtifactPath("/doc/main.tex"))

	b := NewCommandAdapter("", "/out")
	assert.Equal(t, "pdflatex", b.Command)
	assert.Equal(t, filepath.Join("/out", "main.pdf"), b.ArtifactPath("/doc/main.tex"))

	// A relative output directory lands under the document's directory, the
	// same place the engine puts it when Compile runs from there.
	c := NewCommandAdapter("", "out")
	assert.Equal(t, filepath.Join("/doc", "out", "main.pdf"), c.ArtifactPath("/doc/main.tex"))
}

func TestCommandAdapterMissingBinary(t *testing.T) {
	a := NewCommandAdapter("texneat-test-no-such-engine", "")
	_, err := a.Compile(context.Background(), filepath.Join(t.TempDir(), "main.tex"))
	assert.Error(t, err)
}
