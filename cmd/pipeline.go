/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/texneat/texneat/internal/gitctx"
	"github.com/texneat/texneat/internal/report"
	"github.com/texneat/texneat/internal/resolve"
	"github.com/texneat/texneat/internal/scaffold"
	"github.com/texneat/texneat/internal/texdoc"
	"github.com/texneat/texneat/pkg/config"
	"github.com/texneat/texneat/pkg/exitcode"
	"github.com/texneat/texneat/pkg/logger"
)

// validationOptions controls the shared check/build pipeline
type validationOptions struct {
	Target     string // document tree directory
	Synthesize bool   // write placeholders for missing artifacts
}

// runValidation executes the reference scan, resolution, and (optionally)
// synthesis steps shared by check and build. A SourceReadError from the
// extractor propagates so callers can map it to the input-error exit code.
func runValidation(opts validationOptions) (*report.BuildReport, *config.Config, error) {
	cfg, err := config.LoadProjectConfig(opts.Target)
	if err != nil {
		return nil, nil, err
	}

	doc := cfg.GetDocConfig()
	rootPath := filepath.Join(opts.Target, doc.Root)

	refs, err := texdoc.ExtractReferences(opts.Target, rootPath)
	if err != nil {
		return nil, nil, err
	}

	resolver := resolve.NewResolver(opts.Target)
	resolver.StyleDir = doc.StyleDir
	resolver.ModulesDir = doc.ModulesDir

	statuses, err := resolver.Resolve(refs)
	if err != nil {
		return nil, nil, err
	}
	missing := resolve.Missing(statuses)

	rep := &report.BuildReport{
		Root:        rootPath,
		GeneratedAt: time.Now(),
		Git:         gitctx.Collect(opts.Target),
		References:  len(refs),
		Missing:     len(missing),
	}
	for _, ref := range refs {
		switch ref.Kind {
		case texdoc.KindStyleFragment:
			rep.Styles++
		case texdoc.KindContentModule:
			rep.Modules++
		}
	}

	if opts.Synthesize && len(missing) > 0 {
		created, err := scaffold.NewSynthesizer().SynthesizeAll(missing)
		rep.Synthesized = created
		if err != nil {
			return nil, nil, err
		}
		// Everything must resolve after synthesis.
		after, err := resolver.Resolve(refs)
		if err != nil {
			return nil, nil, err
		}
		for _, s := range resolve.Missing(after) {
			rep.Unresolved = append(rep.Unresolved, s.ResolvedPath)
		}
	} else {
		for _, s := range missing {
			rep.Unresolved = append(rep.Unresolved, s.ResolvedPath)
		}
	}

	return rep, cfg, nil
}

// emitReport renders the report and returns the process exit code
func emitReport(rep *report.BuildReport, format string) int {
	out, err := rep.Render(format)
	if err != nil {
		logger.Error("Failed to render report", logger.Err(err))
		return exitcode.GeneralError
	}
	fmt.Print(out)
	return rep.ExitCode()
}

// pipelineExitCode maps pipeline errors onto the exit contract
func pipelineExitCode(err error) int {
	var srcErr *texdoc.SourceReadError
	if errors.As(err, &srcErr) {
		return exitcode.InputError
	}
	var escErr *resolve.EscapeError
	if errors.As(err, &escErr) {
		return exitcode.ValidationError
	}
	return exitcode.GeneralError
}

// batchExitCode maps a batch command outcome onto the exit contract, shared
// by fix-escaping and scan-chars so degraded runs exit identically: hard
// failures first, then undecodable inputs, then pending dry-run changes.
func batchExitCode(failed, undecodable, pending int, dryRun bool) int {
	switch {
	case failed > 0:
		return exitcode.GeneralError
	case undecodable > 0:
		return exitcode.InputError
	case dryRun && pending > 0:
		return exitcode.ValidationError
	}
	return exitcode.Success
}
