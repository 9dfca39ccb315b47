// Package index implements the "index" subcommand: load configuration,
// compile it, and run the six-stage indexing pipeline against a target.
package index

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/shruggietech/indexer/cmd"
	"github.com/shruggietech/indexer/pkg/config"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/orchestrator"
)

func indexMain(command *cobra.Command, arguments []string) error {
	target := arguments[0]

	if indexConfiguration.envFile != "" {
		if err := config.LoadEnvFile(indexConfiguration.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(indexConfiguration.configPath)
	if err != nil {
		return err
	}
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(command, cfg)

	compiled, err := orchestrator.Compile(cfg)
	if err != nil {
		cmd.Error(err)
		os.Exit(orchestrator.StatusConfigurationError.ExitCode())
		return nil
	}

	level, ok := logging.NameToLevel(indexConfiguration.logLevel)
	if !ok {
		level = logging.LevelInfo
	}
	logger := logging.NewRoot(level)

	var cancelled int32
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			atomic.StoreInt32(&cancelled, 1)
		}
	}()

	result, err := orchestrator.Run(context.Background(), target, compiled, orchestrator.RunOptions{
		Cancel: func() bool { return atomic.LoadInt32(&cancelled) == 1 },
		Stdout: command.OutOrStdout(),
		Logger: logger,
	})
	if err != nil {
		switch e := err.(type) {
		case *orchestrator.ConfigurationError:
			cmd.Error(e)
			os.Exit(orchestrator.StatusConfigurationError.ExitCode())
		case *orchestrator.TargetError:
			cmd.Error(e)
			os.Exit(orchestrator.StatusTargetError.ExitCode())
		case *orchestrator.RuntimeError:
			cmd.Error(e)
			os.Exit(orchestrator.StatusRuntimeError.ExitCode())
		case *orchestrator.Cancelled:
			os.Exit(orchestrator.StatusInterrupted.ExitCode())
		default:
			return err
		}
		return nil
	}

	if result.DedupAbsorbed > 0 || result.RenameResult.Renamed > 0 {
		logger.Infof("absorbed %d duplicate(s), renamed %d item(s)", result.DedupAbsorbed, result.RenameResult.Renamed)
	}
	if result.DeleteFailures > 0 {
		logger.Warnf("%d merged sidecar(s) could not be deleted", result.DeleteFailures)
	}

	os.Exit(result.Status.ExitCode())
	return nil
}

// Command is the index command.
var Command = &cobra.Command{
	Use:          "index <path>",
	Short:        "Build a content-addressed index of a file or directory",
	Args:         cobra.ExactArgs(1),
	Run:          cmd.Mainify(indexMain),
	SilenceUsage: true,
}

var indexConfiguration struct {
	configPath string
	envFile    string
	logLevel   string

	recursive       bool
	idAlgorithm     string
	sha512          bool
	outputFile      string
	outputStdout    bool
	outputInplace   bool
	writeDirMeta    bool
	extractEXIF     bool
	metaMerge       bool
	metaMergeDelete bool
	renameEnabled   bool
	renameDryRun    bool
}

func init() {
	flags := Command.Flags()
	flags.SortFlags = false

	flags.StringVar(&indexConfiguration.configPath, "config", "", "Path to a TOML configuration file")
	flags.StringVar(&indexConfiguration.envFile, "env-file", "", "Path to a .env file overlaying process environment")
	flags.StringVar(&indexConfiguration.logLevel, "log-level", "info", "Log level (disabled, error, warn, info, debug, trace)")

	flags.BoolVar(&indexConfiguration.recursive, "recursive", true, "Recurse into subdirectories")
	flags.StringVar(&indexConfiguration.idAlgorithm, "id-algorithm", "", "Identity hash algorithm (md5 or sha256)")
	flags.BoolVar(&indexConfiguration.sha512, "sha512", false, "Also compute SHA-512 digests")
	flags.StringVar(&indexConfiguration.outputFile, "output-file", "", "Write an aggregate index to this path")
	flags.BoolVar(&indexConfiguration.outputStdout, "stdout", false, "Write the index to standard output")
	flags.BoolVar(&indexConfiguration.outputInplace, "inplace", false, "Write a sidecar alongside every indexed item")
	flags.BoolVar(&indexConfiguration.writeDirMeta, "write-directory-meta", false, "Accepted for configuration parity; has no effect (directory sidecars are written by --inplace)")
	flags.BoolVar(&indexConfiguration.extractEXIF, "extract-exif", false, "Extract EXIF metadata via exiftool")
	flags.BoolVar(&indexConfiguration.metaMerge, "meta-merge", false, "Merge matching sidecars into their parent entry")
	flags.BoolVar(&indexConfiguration.metaMergeDelete, "meta-merge-delete", false, "Merge sidecars and delete them once merged")
	flags.BoolVar(&indexConfiguration.renameEnabled, "rename", false, "Rename items to their content-derived storage name")
	flags.BoolVar(&indexConfiguration.renameDryRun, "rename-dry-run", false, "Log intended renames without performing them")
}

// applyFlagOverrides layers explicitly-set CLI flags on top of the loaded
// configuration, so a flag a user never passed never clobbers a value the
// TOML file or an environment override already set.
func applyFlagOverrides(command *cobra.Command, cfg *config.Config) {
	flags := command.Flags()

	if flags.Changed("recursive") {
		cfg.Traversal.Recursive = indexConfiguration.recursive
	}
	if flags.Changed("id-algorithm") {
		cfg.Traversal.IDAlgorithm = indexConfiguration.idAlgorithm
	}
	if flags.Changed("sha512") {
		cfg.Traversal.ComputeSHA512 = indexConfiguration.sha512
	}
	if flags.Changed("output-file") {
		cfg.Output.File = indexConfiguration.outputFile
	}
	if flags.Changed("stdout") {
		cfg.Output.Stdout = indexConfiguration.outputStdout
	}
	if flags.Changed("inplace") {
		cfg.Output.Inplace = indexConfiguration.outputInplace
	}
	if flags.Changed("write-directory-meta") {
		cfg.Output.WriteDirectoryMeta = indexConfiguration.writeDirMeta
	}
	if flags.Changed("extract-exif") {
		cfg.Metadata.ExtractEXIF = indexConfiguration.extractEXIF
	}
	if flags.Changed("meta-merge") {
		cfg.Metadata.MetaMerge = indexConfiguration.metaMerge
	}
	if flags.Changed("meta-merge-delete") {
		cfg.Metadata.MetaMergeDelete = indexConfiguration.metaMergeDelete
	}
	if flags.Changed("rename") {
		cfg.Rename.Enabled = indexConfiguration.renameEnabled
	}
	if flags.Changed("rename-dry-run") {
		cfg.Rename.DryRun = indexConfiguration.renameDryRun
	}
}
