package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diagsnap/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "diagsnap",
	Short:         "Golden stderr-snapshot harness for compiler diagnostics",
	Long:          `diagsnap runs a compiler against snapshot tests and diffs its stderr output against blessed golden files`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(blessCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "diagsnap.toml", "path to the project manifest")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
