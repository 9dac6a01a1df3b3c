package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/frherrer/errgen/internal/domain"
)

// Config is the top-level configuration struct.
type Config struct {
	Input      InputConfig     `yaml:"input"`
	Directives DirectiveConfig `yaml:"directives"`
	Output     OutputConfig    `yaml:"output"`
	Render     RenderConfig    `yaml:"render"`
	Report     ReportConfig    `yaml:"report"`
	Logging    LoggingConfig   `yaml:"logging"`
	DryRun     bool            `yaml:"dry_run"`
}

type InputConfig struct {
	Directories []string `yaml:"directories"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Recursive   *bool    `yaml:"recursive"` // pointer to distinguish unset from false
}

type DirectiveConfig struct {
	BuildTag string `yaml:"build_tag"`
	Prefix   string `yaml:"prefix"`
}

type OutputConfig struct {
	FileSuffix          string `yaml:"file_suffix"`
	Header              string `yaml:"header"`
	CleanBeforeGenerate bool   `yaml:"clean_before_generate"`
}

// RenderConfig controls the separators baked into generated formatters.
type RenderConfig struct {
	BecauseSeparator string `yaml:"because_separator"`
	SourceSeparator  string `yaml:"source_separator"`
}

type ReportConfig struct {
	File  string `yaml:"file"`
	Title string `yaml:"title"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.KindConfig, path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError(domain.KindConfig, path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}
