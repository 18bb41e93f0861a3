/*
Copyright © 2025 texneat contributors
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/texneat/texneat/internal/gitctx"
	"github.com/texneat/texneat/internal/ops"
	"github.com/texneat/texneat/pkg/buildinfo"
	"github.com/texneat/texneat/pkg/logger"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show texneat version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build and git information")
	versionCmd.Flags().Bool("json", false, "Output version information in JSON format")

	if err := ops.RegisterCommand("version", ops.GroupSupport, versionCmd, "Show version information"); err != nil {
		logger.Error(fmt.Sprintf("Failed to register version command: %v", err))
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	version := buildinfo.BinaryVersion

	var git *gitctx.Context
	if extended {
		if wd, err := os.Getwd(); err == nil {
			git = gitctx.Collect(wd)
		}
	}

	if jsonOutput {
		versionInfo := map[string]interface{}{
			"version":   version,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if extended {
			versionInfo["moduleVersion"] = buildinfo.ModuleVersion()
			if git != nil {
				versionInfo["gitBranch"] = git.Branch
				versionInfo["gitCommit"] = shortSHA(git.SHA)
				versionInfo["gitDirty"] = git.DirtyFiles > 0
			}
		}
		jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	}

	if extended {
		fmt.Fprintf(out, "texneat %s\n", version)
		fmt.Fprintf(out, "  module:   %s\n", buildinfo.ModuleVersion())
		fmt.Fprintf(out, "  go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		if git != nil {
			dirty := ""
			if git.DirtyFiles > 0 {
				dirty = " (dirty)"
			}
			fmt.Fprintf(out, "  git:      %s @ %s%s\n", git.Branch, shortSHA(git.SHA), dirty)
		}
		return nil
	}

	fmt.Fprintf(out, "texneat %s\n", version)
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
