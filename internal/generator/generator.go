// Package generator wires the pipeline together: scan, parse directives,
// build the type models, rewrite annotated functions and write the
// generated files.
package generator

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/frherrer/errgen/internal/builder"
	"github.com/frherrer/errgen/internal/config"
	"github.com/frherrer/errgen/internal/directive"
	"github.com/frherrer/errgen/internal/domain"
	"github.com/frherrer/errgen/internal/emitter"
	"github.com/frherrer/errgen/internal/rewriter"
	"github.com/frherrer/errgen/internal/scanner"
)

// Result summarizes one generator run. Diagnostics are per-item failures;
// an item failure aborts that item only, never the whole run.
type Result struct {
	FilesScanned   int
	FilesGenerated int
	TypesEmitted   int
	FuncsRewritten int
	Diagnostics    []*domain.Error
}

// Generated holds everything produced for sharing with the report writer.
type Generated struct {
	Types []*domain.GeneratedType
	Steps []domain.ConversionStep
}

// Generator is the top-level orchestrator.
type Generator struct {
	scanner scanner.Scanner
	parser  *directive.Parser
	builder *builder.Builder
	engine  *emitter.Engine
	log     *logrus.Logger
}

// NewGenerator creates a Generator with all dependencies.
func NewGenerator(s scanner.Scanner, p *directive.Parser, b *builder.Builder, e *emitter.Engine, log *logrus.Logger) *Generator {
	return &Generator{scanner: s, parser: p, builder: b, engine: e, log: log}
}

// Generate runs the full pipeline: clean, scan, parse, build, rewrite,
// render, write. Per-item failures are collected in the Result; the error
// return is reserved for infrastructure failures.
func (g *Generator) Generate(cfg *config.Config) (*Result, *Generated, error) {
	res := &Result{}
	gen := &Generated{}

	// Step 1: Remove a previous run's output.
	if cfg.Output.CleanBeforeGenerate && !cfg.DryRun {
		for _, dir := range cfg.Input.Directories {
			if err := cleanGenerated(dir, cfg.Output.FileSuffix); err != nil {
				return nil, nil, domain.NewErrorWithSuggestion(domain.KindWrite, dir, 0,
					"failed to clean generated files",
					"check file permissions or set output.clean_before_generate to false in errgen.yaml",
					err)
			}
		}
	}

	// Step 2: Scan for candidate Go files.
	var allFiles []string
	for _, dir := range cfg.Input.Directories {
		g.log.Debugf("Scanning directory: %s", dir)
		files, err := g.scanner.Scan(dir, cfg.Input.Include, cfg.Input.Exclude)
		if err != nil {
			g.log.Warnf("Failed to scan directory %s: %v", dir, err)
			continue
		}
		allFiles = append(allFiles, files...)
	}
	res.FilesScanned = len(allFiles)

	if len(allFiles) == 0 {
		g.log.Warn("No Go source files found")
		return res, gen, nil
	}

	// Step 3: Parse every file. Files carrying the build tag hold the
	// annotated declarations; conversion providers may live in any file of
	// the same package directory, since they must exist in the normal
	// build.
	var tagged []*domain.ParsedFile
	providers := make(map[string]map[string]domain.Provider) // dir -> target type -> provider
	specsByDir := make(map[string]map[string]bool)           // dir -> annotated type names

	for _, filePath := range allFiles {
		content, err := os.ReadFile(filePath)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, domain.NewError(domain.KindParse, filePath, 0,
				"failed to read file", err))
			continue
		}

		parsed, diags, err := g.parser.Parse(filePath, content)
		if err != nil {
			if de, ok := err.(*domain.Error); ok {
				res.Diagnostics = append(res.Diagnostics, de)
			} else {
				res.Diagnostics = append(res.Diagnostics, domain.NewError(domain.KindParse, filePath, 0, "parse failed", err))
			}
			continue
		}
		dir := filepath.Dir(filePath)
		for _, prov := range parsed.Providers {
			if providers[dir] == nil {
				providers[dir] = make(map[string]domain.Provider)
			}
			if dup, ok := providers[dir][prov.TargetType]; ok {
				g.log.Warnf("Duplicate errgen:from provider for *%s (%s and %s), keeping the first",
					prov.TargetType, dup.FuncName, prov.FuncName)
				continue
			}
			providers[dir][prov.TargetType] = prov
		}

		// Directive diagnostics only count inside tagged files; an untagged
		// file is skipped with a warning either way.
		if !directive.HasBuildTag(content, cfg.Directives.BuildTag) {
			if len(parsed.Specs) > 0 || len(parsed.Funcs) > 0 || len(diags) > 0 {
				g.log.Warnf("%s has errgen directives but no %q build tag, skipping",
					filePath, cfg.Directives.BuildTag)
			}
			continue
		}
		res.Diagnostics = append(res.Diagnostics, diags...)

		if len(parsed.Specs) == 0 && len(parsed.Funcs) == 0 {
			g.log.Debugf("No directives found in %s", filePath)
			continue
		}

		if specsByDir[dir] == nil {
			specsByDir[dir] = make(map[string]bool)
		}
		for _, spec := range parsed.Specs {
			specsByDir[dir][spec.TypeName] = true
		}
		tagged = append(tagged, parsed)
	}

	// Step 4: Build, rewrite and render one generated file per tagged
	// input file.
	for _, parsed := range tagged {
		out, types, steps, ok := g.processFile(cfg, parsed, providers, specsByDir, res)
		if !ok {
			continue
		}
		gen.Types = append(gen.Types, types...)
		gen.Steps = append(gen.Steps, steps...)

		outputPath := strings.TrimSuffix(parsed.FilePath, ".go") + cfg.Output.FileSuffix
		if cfg.DryRun {
			g.log.Infof("[DRY-RUN] Would write: %s", outputPath)
			g.log.Debugf("[DRY-RUN] Content:\n%s", out)
			res.FilesGenerated++
			continue
		}

		g.log.Infof("Writing: %s", outputPath)
		if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
			res.Diagnostics = append(res.Diagnostics, domain.NewErrorWithSuggestion(domain.KindWrite, outputPath, 0,
				"failed to write generated file",
				"check disk space and write permissions", err))
			continue
		}
		res.FilesGenerated++
	}

	g.log.Infof("Generated %d file(s), %d type(s), %d rewritten function(s)",
		res.FilesGenerated, res.TypesEmitted, res.FuncsRewritten)
	return res, gen, nil
}

// processFile builds and renders the output for one tagged file. Items
// that fail are dropped and reported; the rest of the file still renders.
func (g *Generator) processFile(
	cfg *config.Config,
	parsed *domain.ParsedFile,
	providers map[string]map[string]domain.Provider,
	specsByDir map[string]map[string]bool,
	res *Result,
) (string, []*domain.GeneratedType, []domain.ConversionStep, bool) {
	dir := filepath.Dir(parsed.FilePath)

	var types []*domain.GeneratedType
	for _, spec := range parsed.Specs {
		gen, err := g.builder.Build(spec)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, asDomain(err, parsed.FilePath))
			continue
		}
		types = append(types, gen)
	}

	var funcs []string
	var steps []domain.ConversionStep
	for _, fn := range parsed.Funcs {
		if fn.TargetType == "" || !specsByDir[dir][fn.TargetType] {
			g.log.Debugf("Skipping %s: final result type is not an annotated error type", fn.FuncName)
			continue
		}
		providerName := ""
		if prov, ok := providers[dir][fn.TargetType]; ok {
			providerName = prov.FuncName
		}
		fnSteps, err := rewriter.Rewrite(parsed, fn, providerName)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, asDomain(err, parsed.FilePath))
			continue
		}
		printed, err := printDecl(parsed, fn.Decl)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, domain.NewError(domain.KindEmit, parsed.FilePath, fn.Line,
				fmt.Sprintf("failed to print rewritten function %s", fn.FuncName), err))
			continue
		}
		funcs = append(funcs, printed)
		steps = append(steps, fnSteps...)
	}

	if len(types) == 0 && len(funcs) == 0 {
		return "", nil, nil, false
	}

	data := emitter.FileData{
		Header:      cfg.Output.Header,
		BuildTag:    cfg.Directives.BuildTag,
		PackageName: parsed.PackageName,
		SourceFile:  filepath.Base(parsed.FilePath),
		Imports:     pruneImports(parsed, types),
		Types:       types,
		Funcs:       funcs,
	}

	out, err := g.engine.RenderFile(data)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, asDomain(err, parsed.FilePath))
		return "", nil, nil, false
	}

	res.TypesEmitted += len(types)
	res.FuncsRewritten += len(funcs)
	return out, types, steps, true
}

func asDomain(err error, file string) *domain.Error {
	if de, ok := err.(*domain.Error); ok {
		return de
	}
	return domain.NewError(domain.KindEmit, file, 0, err.Error(), err)
}

// printDecl renders one declaration back to source text.
func printDecl(parsed *domain.ParsedFile, decl ast.Decl) (string, error) {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, parsed.Fset, decl); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cleanGenerated removes files carrying the generated suffix under dir.
func cleanGenerated(dir, suffix string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil // Nothing to clean
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			return os.Remove(path)
		}
		return nil
	})
}

// pruneImports keeps only the source imports the generated file actually
// references, plus the stdlib packages the emission templates rely on.
func pruneImports(parsed *domain.ParsedFile, types []*domain.GeneratedType) []emitter.Import {
	used := make(map[string]bool)

	collect := func(n ast.Node) {
		ast.Inspect(n, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					used[id.Name] = true
				}
			}
			return true
		})
	}

	for _, gen := range types {
		for _, f := range gen.Spec.Fields {
			collect(f.TypeExpr)
			if f.DefaultOverride != "" {
				if expr, err := parser.ParseExpr(f.DefaultOverride); err == nil {
					collect(expr)
				}
			}
		}
	}
	for _, decl := range parsed.AST.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		for _, fn := range parsed.Funcs {
			if fn.Decl == fd {
				collect(fd)
			}
		}
	}

	var imports []emitter.Import
	added := make(map[string]bool)
	if len(types) > 0 {
		imports = append(imports, emitter.Import{Path: "strings"})
		added["strings"] = true
		for _, gen := range types {
			if emitter.NeedsFmt(gen) {
				imports = append(imports, emitter.Import{Path: "fmt"})
				added["fmt"] = true
				break
			}
		}
	}

	for _, imp := range parsed.AST.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path == directive.MarkerImportPath {
			continue
		}
		name := ""
		local := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
			local = name
		}
		if added[local] {
			continue
		}
		if used[local] {
			imports = append(imports, emitter.Import{Name: name, Path: path})
		}
	}

	return imports
}
