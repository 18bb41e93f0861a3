/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/internal/sanitize"
	"github.com/texneat/texneat/pkg/exitcode"
	"github.com/texneat/texneat/pkg/logger"
	"github.com/texneat/texneat/pkg/safeio"
	"github.com/texneat/texneat/pkg/work"
)

// scanCharsCmd represents the scan-chars command
var scanCharsCmd = &cobra.Command{
	Use:   "scan-chars [paths...]",
	Short: "Detect and remove problematic characters from document sources",
	Long: `Scan-chars inspects document sources for byte-level problems a compiler
chokes on or silently mangles: byte order marks, null bytes, merge conflict
markers, invisible Unicode, typographic quotes, and stray control characters.
Without --dry-run the fixable categories are cleaned in place.`,
	Run: runScanChars,
}

func init() {
	scanCharsCmd.Flags().Bool("dry-run", false, "Report issues without modifying files")
	scanCharsCmd.Flags().String("strategy", "sequential", "Execution strategy (sequential|parallel)")

	if err := ops.RegisterCommand("scan-chars", ops.GroupRepair, scanCharsCmd, "Detect and remove problematic characters"); err != nil {
		logger.Error(fmt.Sprintf("Failed to register scan-chars command: %v", err))
	}
}

func runScanChars(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	strategyFlag, _ := cmd.Flags().GetString("strategy")
	noOp, _ := cmd.Flags().GetBool("no-op")
	if noOp {
		dryRun = true
	}

	strategy, err := work.ParseStrategy(strategyFlag)
	if err != nil {
		logger.Error("Invalid strategy", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}

	items, err := work.NewPlanner(work.PlannerConfig{Paths: args}).Discover()
	if err != nil {
		logger.Error("File discovery failed", logger.Err(err))
		os.Exit(exitcode.InputError)
	}
	if len(items) == 0 {
		logger.Info("No document sources found")
		os.Exit(exitcode.Success)
	}

	var mu sync.Mutex
	totalIssues := 0
	filesWithIssues := 0
	undecodable := 0

	fn := func(_ context.Context, item work.WorkItem) error {
		data, err := os.ReadFile(item.Path) // #nosec G304 -- paths come from planner discovery
		if err != nil {
			return err
		}

		if dryRun {
			issues, err := sanitize.Scan(data)
			if err != nil && !errors.Is(err, sanitize.ErrNotText) {
				return err
			}
			recordIssues(item.Path, issues)
			mu.Lock()
			if errors.Is(err, sanitize.ErrNotText) {
				undecodable++
			}
			if len(issues) > 0 {
				filesWithIssues++
				totalIssues += len(issues)
			}
			mu.Unlock()
			return nil
		}

		cleaned, issues, err := sanitize.Clean(data)
		if err != nil {
			if errors.Is(err, sanitize.ErrNotText) {
				recordIssues(item.Path, issues)
				mu.Lock()
				undecodable++
				mu.Unlock()
				return nil
			}
			return err
		}
		recordIssues(item.Path, issues)
		mu.Lock()
		if len(issues) > 0 {
			filesWithIssues++
			totalIssues += len(issues)
		}
		mu.Unlock()

		if len(issues) == 0 {
			return nil
		}
		return safeio.WriteFileAtomic(item.Path, cleaned)
	}

	failures, err := work.NewDispatcher(strategy).Execute(cmd.Context(), items, fn)
	if err != nil {
		logger.Error("Scan aborted", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
	for _, f := range failures {
		logger.Error("Scan failed", logger.String("path", f.Item.Path), logger.Err(f.Err))
	}

	verb := "cleaned"
	if dryRun {
		verb = "found in"
	}
	logger.Info(fmt.Sprintf("%d issue(s) %s %d of %d file(s), %d undecodable",
		totalIssues, verb, filesWithIssues, len(items), undecodable))

	os.Exit(batchExitCode(len(failures), undecodable, totalIssues, dryRun))
}

func recordIssues(path string, issues []sanitize.Issue) {
	for _, issue := range issues {
		logger.Info(fmt.Sprintf("%s:%d:%d: %s: %s",
			path, issue.Line, issue.Column, issue.Category, issue.Detail))
	}
}
