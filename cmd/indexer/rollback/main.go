// Package rollback implements the "rollback" subcommand: load a sidecar (or
// directory of sidecars), plan an ordered restore, and execute it.
package rollback

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shruggietech/indexer/cmd"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/rollback"
)

func rollbackMain(command *cobra.Command, arguments []string) error {
	source, targetDir := arguments[0], arguments[1]

	logger := logging.RootLogger
	if level, ok := logging.NameToLevel(rollbackConfiguration.logLevel); ok {
		logger = logging.NewRoot(level)
	}

	entries, err := rollback.Load(source, rollbackConfiguration.recursive)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Warning(fmt.Sprintf("no entries found in %s", source))
		return nil
	}

	if !rollbackConfiguration.flat {
		if ids := rollback.SessionIDs(entries); len(ids) > 1 {
			cmd.Warning(fmt.Sprintf(
				"entries originate from %d sessions; restored relative paths may not share a common root", len(ids)))
		}
	}

	plan := rollback.BuildPlan(entries, targetDir, rollback.Options{Flat: rollbackConfiguration.flat})
	for _, warning := range plan.Warnings {
		cmd.Warning(warning)
	}

	searchDir := rollbackConfiguration.searchDir
	if searchDir == "" {
		searchDir = searchDirFor(source)
	}

	report, err := rollback.Execute(plan, rollback.ExecuteOptions{
		DryRun:    rollbackConfiguration.dryRun,
		NoVerify:  rollbackConfiguration.noVerify,
		Force:     rollbackConfiguration.force,
		SearchDir: searchDir,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	for _, warning := range report.Warnings {
		cmd.Warning(warning)
	}
	if rollbackConfiguration.dryRun {
		logger.Infof("dry run: %d item(s) would be restored, %d conflict(s)", len(report.Created), len(report.Conflicts))
	} else {
		logger.Infof("restored %d item(s), skipped %d, %d conflict(s)", len(report.Created), len(report.Skipped), len(report.Conflicts))
	}
	if len(report.Conflicts) > 0 && !rollbackConfiguration.force {
		os.Exit(1)
	}

	return nil
}

func searchDirFor(source string) string {
	info, err := os.Stat(source)
	if err == nil && info.IsDir() {
		return source
	}
	return filepath.Dir(source)
}

// Command is the rollback command.
var Command = &cobra.Command{
	Use:          "rollback <sidecar-or-directory> <target-dir>",
	Short:        "Reverse a prior rename/merge/delete run from its sidecars",
	Args:         cobra.ExactArgs(2),
	Run:          cmd.Mainify(rollbackMain),
	SilenceUsage: true,
}

var rollbackConfiguration struct {
	recursive bool
	flat      bool
	dryRun    bool
	noVerify  bool
	force     bool
	searchDir string
	logLevel  string
}

func init() {
	flags := Command.Flags()
	flags.SortFlags = false

	flags.BoolVar(&rollbackConfiguration.recursive, "recursive", false, "Search a directory source below its immediate contents")
	flags.BoolVar(&rollbackConfiguration.flat, "flat", false, "Restore every file by name directly into target-dir, ignoring relative paths")
	flags.BoolVar(&rollbackConfiguration.dryRun, "dry-run", false, "Log intended actions without performing them")
	flags.BoolVar(&rollbackConfiguration.noVerify, "no-verify", false, "Skip content-hash verification before restoring")
	flags.BoolVar(&rollbackConfiguration.force, "force", false, "Overwrite conflicting targets instead of skipping them")
	flags.StringVar(&rollbackConfiguration.searchDir, "search-dir", "", "Directory to search for source file content (default: source's own directory)")
	flags.StringVar(&rollbackConfiguration.logLevel, "log-level", "info", "Log level (disabled, error, warn, info, debug, trace)")
}
