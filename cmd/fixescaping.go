/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/internal/repair"
	"github.com/texneat/texneat/pkg/config"
	"github.com/texneat/texneat/pkg/exitcode"
	"github.com/texneat/texneat/pkg/logger"
	"github.com/texneat/texneat/pkg/work"
)

// fixEscapingCmd represents the fix-escaping command
var fixEscapingCmd = &cobra.Command{
	Use:   "fix-escaping [paths...]",
	Short: "Repair converter over-escaping in document sources",
	Long: `Fix-escaping removes the over-escaping artifacts that markdown-to-LaTeX
converters leave behind: \textbackslash{} chains, doubled command backslashes,
and escaped braces. Rules are applied in repeated passes until the content
stops changing. The operation is idempotent; running it twice is safe.`,
	Run: runFixEscaping,
}

func init() {
	fixEscapingCmd.Flags().Bool("backup", false, "Write a .bak copy before modifying each file")
	fixEscapingCmd.Flags().Bool("validate", false, "Check brace balance after repair and report warnings")
	fixEscapingCmd.Flags().BoolP("verbose", "v", false, "Log a per-file replacement summary")
	fixEscapingCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	fixEscapingCmd.Flags().String("strategy", "sequential", "Execution strategy (sequential|parallel)")
	fixEscapingCmd.Flags().String("patterns", "", "TOML file overriding the built-in rule library")

	if err := ops.RegisterCommand("fix-escaping", ops.GroupRepair, fixEscapingCmd, "Repair converter over-escaping"); err != nil {
		logger.Error(fmt.Sprintf("Failed to register fix-escaping command: %v", err))
	}
}

// repairFlags captures the fix-escaping flag surface after config merging
type repairFlags struct {
	Backup       bool
	Validate     bool
	Verbose      bool
	DryRun       bool
	Strategy     string
	PatternsFile string
}

// mergeRepairFlags resolves flag values against the configuration layers:
// explicit flags win, project config supplies the rest, and a patterns.toml
// in the texneat home serves as the last-resort rule library override.
func mergeRepairFlags(flags *pflag.FlagSet, cfg *config.Config) repairFlags {
	var rf repairFlags
	rf.Backup, _ = flags.GetBool("backup")
	rf.Validate, _ = flags.GetBool("validate")
	rf.Verbose, _ = flags.GetBool("verbose")
	rf.DryRun, _ = flags.GetBool("dry-run")
	rf.Strategy, _ = flags.GetString("strategy")
	rf.PatternsFile, _ = flags.GetString("patterns")

	if noOp, _ := flags.GetBool("no-op"); noOp {
		rf.DryRun = true
	}
	repairCfg := cfg.GetRepairConfig()
	if !flags.Changed("backup") {
		rf.Backup = repairCfg.Backup
	}
	if rf.PatternsFile == "" {
		rf.PatternsFile = repairCfg.PatternsFile
	}
	if rf.PatternsFile == "" {
		if path, ok := config.UserPatternsFile(); ok {
			rf.PatternsFile = path
		}
	}
	return rf
}

func runFixEscaping(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadProjectConfig(".")
	if err != nil {
		logger.Error("Failed to load configuration", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}

	rf := mergeRepairFlags(cmd.Flags(), cfg)
	backup := rf.Backup
	validate := rf.Validate
	verbose := rf.Verbose
	dryRun := rf.DryRun
	strategyFlag := rf.Strategy
	patternsFile := rf.PatternsFile

	lib := repair.DefaultLibrary()
	if patternsFile != "" {
		lib, err = repair.LoadLibrary(patternsFile)
		if err != nil {
			logger.Error("Failed to load pattern library", logger.Err(err))
			os.Exit(exitcode.InputError)
		}
	}

	engine := repair.NewEngine(lib)
	if cfg.Repair.MaxPasses > 0 {
		engine = engine.WithMaxPasses(cfg.Repair.MaxPasses)
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

	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.Path] = i
	}

	reports := make([]repair.Report, len(items))
	fn := func(_ context.Context, item work.WorkItem) error {
		rep, err := engine.RepairFile(item.Path, repair.FileOptions{
			Backup:   backup,
			Validate: validate,
			DryRun:   dryRun,
		})
		if err != nil {
			return err
		}
		reports[index[item.Path]] = rep
		return nil
	}

	failures, err := work.NewDispatcher(strategy).Execute(cmd.Context(), items, fn)
	if err != nil {
		logger.Error("Repair run aborted", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}

	changed := 0
	for _, rep := range reports {
		if rep.Changed {
			changed++
		}
		if verbose && rep.Path != "" {
			logger.Info("Repaired file",
				logger.String("path", rep.Path),
				logger.Int("passes", rep.Passes),
				logger.Int("replacements", rep.Replacements),
				logger.Bool("changed", rep.Changed))
		}
		for _, warning := range rep.Warnings {
			logger.Warn(fmt.Sprintf("%s: %s", rep.Path, warning))
		}
	}

	skipped := 0
	for _, f := range failures {
		var decodeErr *repair.DecodeError
		if errors.As(f.Err, &decodeErr) {
			skipped++
			continue
		}
		logger.Error("Repair failed", logger.String("path", f.Item.Path), logger.Err(f.Err))
	}

	if dryRun {
		logger.Info(fmt.Sprintf("Dry run: %d of %d file(s) would change, %d skipped", changed, len(items), skipped))
	} else {
		logger.Info(fmt.Sprintf("Repaired %d of %d file(s), %d skipped", changed, len(items), skipped))
	}
	os.Exit(batchExitCode(len(failures)-skipped, skipped, changed, dryRun))
}
