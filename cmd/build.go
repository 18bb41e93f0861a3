/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/texneat/texneat/internal/buildtest"
	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/pkg/logger"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the full pipeline including the two-phase compile test",
	Long: `Build runs the complete pipeline: reference validation, placeholder
synthesis, then a two-phase compile test. The skeleton phase compiles the
document with content modules elided to verify the style layer in isolation;
only when it passes does the full compile run.`,
	Run: runBuild,
}

func init() {
	buildCmd.Flags().String("target", ".", "Document tree directory")
	buildCmd.Flags().StringP("output", "o", "", "Output format (text|json|yaml)")
	buildCmd.Flags().Duration("timeout", 0, "Per-phase compile timeout (default from config)")

	if err := ops.RegisterCommand("build", ops.GroupWorkflow, buildCmd, "Validate, synthesize, and compile-test the tree"); err != nil {
		logger.Error(fmt.Sprintf("Failed to register build command: %v", err))
	}
}

func runBuild(cmd *cobra.Command, _ []string) {
	target, _ := cmd.Flags().GetString("target")
	format, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noOp, _ := cmd.Flags().GetBool("no-op")

	rep, cfg, err := runValidation(validationOptions{
		Target:     target,
		Synthesize: !noOp,
	})
	if err != nil {
		logger.Error("Build failed", logger.Err(err))
		os.Exit(pipelineExitCode(err))
	}
	if format == "" {
		format = cfg.Output.Format
	}

	// Unresolved references make a compile attempt pointless.
	if len(rep.Unresolved) > 0 || noOp {
		os.Exit(emitReport(rep, format))
	}

	buildCfg := cfg.GetBuildConfig()
	adapter := buildtest.NewCommandAdapter(buildCfg.Command, buildCfg.OutputDir)
	if len(buildCfg.Args) > 0 {
		adapter.Args = buildCfg.Args
	}

	tester := buildtest.NewTester(adapter, rep.Root)
	if buildCfg.MinArtifactBytes > 0 {
		tester.MinArtifactBytes = buildCfg.MinArtifactBytes
	}
	if timeout == 0 {
		timeout = buildCfg.Timeout
	}
	if timeout > 0 {
		tester.Timeout = timeout
	}

	start := time.Now()
	outcome := tester.Run(cmd.Context())
	logger.Info("Compile test finished",
		logger.String("state", string(outcome.State)),
		logger.Duration("elapsed", time.Since(start)))

	rep.Build = &outcome
	os.Exit(emitReport(rep, format))
}
