/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/pkg/logger"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate document references and synthesize missing files",
	Long: `Check scans the root document for style and module references, resolves each
one against the document tree, and synthesizes placeholder files for anything
missing. With --no-synth it only reports, leaving the tree untouched.`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().String("target", ".", "Document tree directory")
	checkCmd.Flags().StringP("output", "o", "", "Output format (text|json|yaml)")
	checkCmd.Flags().Bool("no-synth", false, "Report missing files without synthesizing placeholders")

	if err := ops.RegisterCommand("check", ops.GroupWorkflow, checkCmd, "Validate references, synthesize missing files"); err != nil {
		logger.Error(fmt.Sprintf("Failed to register check command: %v", err))
	}
}

func runCheck(cmd *cobra.Command, _ []string) {
	target, _ := cmd.Flags().GetString("target")
	format, _ := cmd.Flags().GetString("output")
	noSynth, _ := cmd.Flags().GetBool("no-synth")
	noOp, _ := cmd.Flags().GetBool("no-op")

	rep, cfg, err := runValidation(validationOptions{
		Target:     target,
		Synthesize: !noSynth && !noOp,
	})
	if err != nil {
		logger.Error("Check failed", logger.Err(err))
		os.Exit(pipelineExitCode(err))
	}

	if format == "" {
		format = cfg.Output.Format
	}
	os.Exit(emitReport(rep, format))
}
