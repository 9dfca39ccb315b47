package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shruggietech/indexer/cmd"
	indexcmd "github.com/shruggietech/indexer/cmd/indexer/index"
	rollbackcmd "github.com/shruggietech/indexer/cmd/indexer/rollback"
)

// version identifies this build. It's a plain var rather than a const so a
// release build can set it via -ldflags.
var version = "dev"

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "indexer",
	Short: "Build, merge, and roll back content-addressed filesystem indexes",
	Run:   rootMain,
}

var rootConfiguration struct {
	version bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		indexcmd.Command,
		rollbackcmd.Command,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
