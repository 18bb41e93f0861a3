/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/texneat/texneat/internal/resolve"
	"github.com/texneat/texneat/internal/texdoc"
	"github.com/texneat/texneat/pkg/exitcode"
)

func TestPipelineExitCode(t *testing.T) {
	srcErr := &texdoc.SourceReadError{Path: "main.tex", Err: errors.New("not decodable")}
	assert.Equal(t, exitcode.InputError, pipelineExitCode(srcErr))

	escErr := &resolve.EscapeError{Ref: texdoc.Reference{Path: "../evil", Line: 3}}
	assert.Equal(t, exitcode.ValidationError, pipelineExitCode(escErr))

	assert.Equal(t, exitcode.GeneralError, pipelineExitCode(errors.New("anything else")))
}

// The two batch commands share one exit mapping, so a run degraded by
// undecodable files exits the same way from both.
func TestBatchExitCode(t *testing.T) {
	tests := []struct {
		name        string
		failed      int
		undecodable int
		pending     int
		dryRun      bool
		expected    int
	}{
		{"clean run", 0, 0, 0, false, exitcode.Success},
		{"clean dry run", 0, 0, 0, true, exitcode.Success},
		{"pending changes only count in dry run", 0, 0, 3, false, exitcode.Success},
		{"dry run with pending changes", 0, 0, 3, true, exitcode.ValidationError},
		{"undecodable files", 0, 2, 0, false, exitcode.InputError},
		{"undecodable files in dry run", 0, 2, 0, true, exitcode.InputError},
		{"undecodable outranks pending", 0, 1, 3, true, exitcode.InputError},
		{"hard failure outranks everything", 1, 2, 3, true, exitcode.GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, batchExitCode(tt.failed, tt.undecodable, tt.pending, tt.dryRun))
		})
	}
}
