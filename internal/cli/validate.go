package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frherrer/errgen/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the errgen.yaml configuration and the annotated sources",
	Long:  `Loads the configuration file, checks it for errors, then runs a write-free generation pass and reports every diagnostic it produces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Printf("Configuration file %q is valid.\n", cfgFile)
		log.Debugf("Loaded config: %+v", cfg)

		cfg.DryRun = true
		res, _, err := runPipeline(cfg)
		if err != nil {
			return err
		}
		return reportDiagnostics(res)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
