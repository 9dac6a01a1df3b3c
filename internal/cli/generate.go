package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/frherrer/errgen/internal/builder"
	"github.com/frherrer/errgen/internal/config"
	"github.com/frherrer/errgen/internal/directive"
	"github.com/frherrer/errgen/internal/emitter"
	"github.com/frherrer/errgen/internal/generator"
	"github.com/frherrer/errgen/internal/scanner"
)

var (
	diagColor    = color.New(color.FgRed)
	summaryColor = color.New(color.FgGreen, color.Bold)
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate error types and rewritten functions",
	Long:  `Scans the configured directories for build-tagged annotated files and writes one generated Go file per input file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log.Info("Configuration loaded successfully")
		log.Infof("Scanning directories: %v", cfg.Input.Directories)

		res, _, err := runPipeline(cfg)
		if err != nil {
			return err
		}
		return reportDiagnostics(res)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

// loadConfig loads and validates the configuration, applying the dry-run
// flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}

// runPipeline wires all components and runs the generator.
func runPipeline(cfg *config.Config) (*generator.Result, *generator.Generated, error) {
	recursive := true
	if cfg.Input.Recursive != nil {
		recursive = *cfg.Input.Recursive
	}
	s := scanner.NewScanner(recursive, cfg.Output.FileSuffix)
	p := directive.NewParser(cfg.Directives.Prefix)
	b := builder.NewBuilder()

	engine, err := emitter.NewEngine("", cfg.Render)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create emitter: %w", err)
	}

	gen := generator.NewGenerator(s, p, b, engine, log)
	return gen.Generate(cfg)
}

// reportDiagnostics prints collected per-item failures and returns an
// error when any exist, so the process exits non-zero.
func reportDiagnostics(res *generator.Result) error {
	if len(res.Diagnostics) == 0 {
		summaryColor.Printf("errgen: %d file(s) generated, %d type(s), %d function(s) rewritten\n",
			res.FilesGenerated, res.TypesEmitted, res.FuncsRewritten)
		return nil
	}
	for _, d := range res.Diagnostics {
		diagColor.Println(d.Error())
	}
	return fmt.Errorf("%d generation failure(s)", len(res.Diagnostics))
}
