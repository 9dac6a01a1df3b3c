package config

// DefaultBecauseSeparator joins the current message with each superseded
// message in the default template.
const DefaultBecauseSeparator = "...because..."

// DefaultSourceSeparator precedes the wrapped source error's own text.
const DefaultSourceSeparator = "...caused by: "

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	return &Config{
		Input: InputConfig{
			Directories: []string{"."},
			Include:     []string{"*.go"},
			Exclude:     []string{"vendor/**", "testdata/**", "*_test.go"},
			Recursive:   &recursive,
		},
		Directives: DirectiveConfig{
			BuildTag: "errgen",
			Prefix:   "errgen",
		},
		Output: OutputConfig{
			FileSuffix:          "_errgen.go",
			Header:              "Code generated by errgen. DO NOT EDIT.",
			CleanBeforeGenerate: true,
		},
		Render: RenderConfig{
			BecauseSeparator: DefaultBecauseSeparator,
			SourceSeparator:  DefaultSourceSeparator,
		},
		Report: ReportConfig{
			File:  "ERRORS.md",
			Title: "Error catalog",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		DryRun: false,
	}
}
