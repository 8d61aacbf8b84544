package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version set at build time with -ldflags "-X github.com/minibatch/minibatch/internal/cli.Version=..."
var Version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "minibatch",
		Short:        "Run batch jobs made of task and chunk steps",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "minibatch %s\n", Version)
		},
	}
}
