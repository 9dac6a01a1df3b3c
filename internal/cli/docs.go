package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frherrer/errgen/internal/report"
)

var docsCheck bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Write or check the Markdown error catalog",
	Long: `Runs a write-free generation pass and renders the error catalog
describing every generated type. With --check, the existing catalog is
compared against the current types instead and drift fails the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.DryRun = true

		res, gen, err := runPipeline(cfg)
		if err != nil {
			return err
		}
		if err := reportDiagnostics(res); err != nil {
			return err
		}

		w := report.NewWriter(cfg.Report)
		if docsCheck {
			drift, err := w.Check(gen.Types)
			if err != nil {
				return err
			}
			if len(drift) > 0 {
				for _, d := range drift {
					diagColor.Println(d)
				}
				return fmt.Errorf("%s is out of date (%d finding(s)); run errgen docs", cfg.Report.File, len(drift))
			}
			fmt.Printf("%s is up to date.\n", cfg.Report.File)
			return nil
		}

		log.Infof("Writing: %s", cfg.Report.File)
		return w.Write(gen.Types)
	},
}

func init() {
	docsCmd.Flags().BoolVar(&docsCheck, "check", false, "verify the catalog instead of writing it")
	rootCmd.AddCommand(docsCmd)
}
