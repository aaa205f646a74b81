package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "futures-cli",
	Short: "Generate boilerplate for poll-driven futures",
	Long: `futures-cli generates the boilerplate for programs built on the futures
module: a custom future implementation, an executor to drive it, and a
stopper wired up so the work can be cancelled.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
