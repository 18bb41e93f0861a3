/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/pkg/buildinfo"
	"github.com/texneat/texneat/pkg/exitcode"
	"github.com/texneat/texneat/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texneat",
		Short: "Validation and repair tool for modular LaTeX document trees",
		Long: `Texneat validates and repairs modular LaTeX source trees: it scans the root
document for style and module references, synthesizes placeholders for missing
files, repairs converter over-escaping, and verifies the tree still compiles.

Examples:
   texneat check               # Validate references, synthesize missing files
   texneat build               # Full pipeline with two-phase compile test
   texneat fix-escaping FILE   # Repair pandoc-style over-escaping
   texneat scan-chars FILE     # Detect BOMs, merge markers, invisible runes
   texneat version             # Show version (use --extended for build info)`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Run tasks without making changes (assessment mode)")

	// Wire Cobra's built-in --version using texneat's binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("texneat {{.Version}}\n")

	// Grouped help by command group (Workflow → Repair → Support)
	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		cmd.Println()
		cmd.Println("Workflow Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupWorkflow) {
			cmd.Printf("  %-14s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Repair Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupRepair) {
			cmd.Printf("  %-14s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Support Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupSupport) {
			cmd.Printf("  %-14s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Flags:")
		cmd.Print(cmd.UsageString())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(checkCmd)
	cmd.AddCommand(buildCmd)
	cmd.AddCommand(fixEscapingCmd)
	cmd.AddCommand(scanCharsCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

func init() {
	// Register all subcommands with the production rootCmd
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	var logLevel logger.Level
	switch strings.ToLower(logLevelStr) {
	case "trace":
		logLevel = logger.TraceLevel
	case "debug":
		logLevel = logger.DebugLevel
	case "info":
		logLevel = logger.InfoLevel
	case "warn":
		logLevel = logger.WarnLevel
	case "error":
		logLevel = logger.ErrorLevel
	default:
		logLevel = logger.InfoLevel
	}

	config := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "texneat",
		NoOp:      noOp,
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.GeneralError)
	}
}
