package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool
	log     *logrus.Logger
)

// rootCmd is the base command for errgen.
var rootCmd = &cobra.Command{
	Use:   "errgen",
	Short: "Generate error-handling boilerplate from annotated Go files",
	Long: `Errgen reads build-tagged Go files with errgen directives and generates
the error types and rewritten function bodies they describe: message and
context-stack fields, source-error unions, constructors, formatters, and
explicit convert-and-contextualize checks around fallible calls.

Everything is driven by a YAML configuration file (errgen.yaml).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(logrus.InfoLevel)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "errgen.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "parse and rewrite but don't write files")

	log = logrus.New()
	log.SetOutput(os.Stderr)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
