package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toncell-lab/emubridge/versioning"
)

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Returns the current version",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}
}

func runCommand(cmd *cobra.Command, _ []string) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"Version: %s\nCommit: %s\nBuild Time: %s\n",
		versioning.Version,
		versioning.Commit,
		versioning.BuildTime,
	)
}
