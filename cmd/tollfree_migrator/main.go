package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "tollfree-migrator"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tollfree_migrator",
		Short:         "Move filtered long codes in messaging services onto toll-free numbers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config-path", "./configs", "directory holding the config file")
	root.PersistentFlags().String("config-name", "config.defaults", "config file name without extension")

	root.AddCommand(newRunCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
