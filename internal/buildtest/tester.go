/*
Copyright © 2025 texneat contributors
*/
package buildtest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/texneat/texneat/pkg/logger"
	"github.com/texneat/texneat/pkg/safeio"
)

// Phase names one compiler invocation of the two-phase test.
type Phase string

const (
	PhaseSkeleton Phase = "skeleton" // content modules elided
	PhaseFull     Phase = "full"     // unmodified root document
)

// State is the terminal state of a build test run.
type State string

const (
	StateAllPassed      State = "all-passed"
	StateSkeletonFailed State = "skeleton-failed"
	StateFullFailed     State = "full-failed"
)

// DefaultMinArtifactBytes is the smallest artifact size accepted as a real
// document. Exit-code-only validation produces false positives: an engine
// can exit 0 while emitting a truncated or empty artifact.
const DefaultMinArtifactBytes int64 = 1024

// DefaultTimeout bounds one compiler invocation.
const DefaultTimeout = 2 * time.Minute

// AttemptResult records one compiler invocation and its artifact validation.
type AttemptResult struct {
	Phase             Phase `json:"phase" yaml:"phase"`
	ExitCode          int   `json:"exit_code" yaml:"exit_code"`
	ArtifactExists    bool  `json:"artifact_exists" yaml:"artifact_exists"`
	ArtifactSizeBytes int64 `json:"artifact_size_bytes" yaml:"artifact_size_bytes"`
	TimedOut          bool  `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
	// Succeeded is the verdict against the tester's configured threshold,
	// recorded when the attempt ran.
	Succeeded  bool   `json:"success" yaml:"success"`
	Output     string `json:"output,omitempty" yaml:"output,omitempty"` // captured diagnostics, populated on failure
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Success requires the exit code, artifact existence, and artifact size checks
// to all pass.
func (r AttemptResult) Success(minBytes int64) bool {
	return !r.TimedOut && r.ExitCode == 0 && r.ArtifactExists && r.ArtifactSizeBytes > minBytes
}

// Outcome aggregates both phases.
type Outcome struct {
	State    State           `json:"state" yaml:"state"`
	Attempts []AttemptResult `json:"attempts" yaml:"attempts"`
}

// Tester orchestrates the skeleton and full builds.
type Tester struct {
	Adapter          CompilerAdapter
	RootPath         string
	MinArtifactBytes int64
	Timeout          time.Duration
}

// NewTester creates a tester with default thresholds.
func NewTester(adapter CompilerAdapter, rootPath string) *Tester {
	return &Tester{
		Adapter:          adapter,
		RootPath:         rootPath,
		MinArtifactBytes: DefaultMinArtifactBytes,
		Timeout:          DefaultTimeout,
	}
}

// Run executes the two-phase test. The skeleton phase compiles a throwaway
// copy of the root document with all content modules commented out; only if
// it succeeds is the full document compiled. A broken skeleton means the
// failure is structural, and running the full build would obscure the cause.
// Temporary files are removed on every exit path.
func (t *Tester) Run(ctx context.Context) Outcome {
	outcome := Outcome{}

	skeleton, cleanup, err := t.writeSkeleton()
	if err != nil {
		outcome.State = StateSkeletonFailed
		outcome.Attempts = append(outcome.Attempts, AttemptResult{
			Phase:  PhaseSkeleton,
			Output: fmt.Sprintf("prepare skeleton: %v", err),
		})
		return outcome
	}
	defer cleanup()

	skeletonResult := t.attempt(ctx, PhaseSkeleton, skeleton)
	outcome.Attempts = append(outcome.Attempts, skeletonResult)
	if !skeletonResult.Succeeded {
		outcome.State = StateSkeletonFailed
		return outcome
	}

	fullResult := t.attempt(ctx, PhaseFull, t.RootPath)
	outcome.Attempts = append(outcome.Attempts, fullResult)
	if !fullResult.Succeeded {
		outcome.State = StateFullFailed
		return outcome
	}

	outcome.State = StateAllPassed
	return outcome
}

func (t *Tester) attempt(ctx context.Context, phase Phase, rootPath string) AttemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	logger.Info("Running build phase",
		logger.String("phase", string(phase)),
		logger.String("root", rootPath))

	start := time.Now()
	compile, err := t.Adapter.Compile(attemptCtx, rootPath)
	result := AttemptResult{
		Phase:      phase,
		ExitCode:   compile.ExitCode,
		DurationMS: time.Since(start).Milliseconds(),
	}

	if attemptCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		result.Output = fmt.Sprintf("timeout: compiler exceeded %s bound", t.Timeout)
		return result
	}
	if err != nil {
		result.ExitCode = -1
		result.Output = fmt.Sprintf("compiler invocation failed: %v", err)
		return result
	}

	artifact := t.Adapter.ArtifactPath(rootPath)
	if st, statErr := os.Stat(artifact); statErr == nil {
		result.ArtifactExists = true
		result.ArtifactSizeBytes = st.Size()
	}

	// The verdict is recorded here, against the threshold this run actually
	// used, so downstream rendering never has to re-derive it.
	result.Succeeded = result.Success(t.MinArtifactBytes)
	if !result.Succeeded {
		result.Output = tailOf(compile.Output, 4096)
	}
	return result
}

var includeLineRe = regexp.MustCompile(`^(\s*)(\\(?:input|include)\{[^}]*\}.*)$`)

// writeSkeleton puts a copy of the root document next to the original (so
// relative includes still resolve) with every content-module include
// commented out. The file name carries a UUID so concurrent invocations
// never collide. The returned cleanup removes the skeleton and its artifact.
func (t *Tester) writeSkeleton() (string, func(), error) {
	data, err := os.ReadFile(t.RootPath) // #nosec G304 -- root document path comes from CLI/config
	if err != nil {
		return "", nil, fmt.Errorf("read root document: %w", err)
	}

	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := includeLineRe.FindStringSubmatch(line); m != nil {
			out.WriteString(m[1] + "% [skeleton] " + m[2] + "\n")
			continue
		}
		out.WriteString(line + "\n")
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("scan root document: %w", err)
	}

	dir := filepath.Dir(t.RootPath)
	base := strings.TrimSuffix(filepath.Base(t.RootPath), filepath.Ext(t.RootPath))
	name := fmt.Sprintf("%s-skeleton-%s.tex", base, uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	if err := safeio.WriteFileAtomic(path, []byte(out.String())); err != nil {
		return "", nil, fmt.Errorf("write skeleton copy: %w", err)
	}

	cleanup := func() {
		_ = os.Remove(path)
		_ = os.Remove(t.Adapter.ArtifactPath(path))
	}
	return path, cleanup, nil
}

func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
