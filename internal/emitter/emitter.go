// Package emitter renders the generated-type model and the rewritten
// function bodies into Go source files.
package emitter

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/frherrer/errgen/internal/config"
	"github.com/frherrer/errgen/internal/domain"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// Import is one entry of the generated file's import block.
type Import struct {
	Name string // local name, "" for the default
	Path string
}

// FileData is everything needed to render one generated file.
type FileData struct {
	Header      string
	BuildTag    string
	PackageName string
	SourceFile  string
	Imports     []Import
	Types       []*domain.GeneratedType
	Funcs       []string // pre-printed rewritten function declarations
}

// Engine renders FileData into formatted Go source.
type Engine struct {
	templates map[string]*template.Template
	render    config.RenderConfig
}

// NewEngine creates an engine with the embedded templates. A non-empty
// overrideDir may shadow any of them with same-named .tmpl files.
func NewEngine(overrideDir string, render config.RenderConfig) (*Engine, error) {
	e := &Engine{
		templates: make(map[string]*template.Template),
		render:    render,
	}

	entries, err := defaultTemplates.ReadDir("templates")
	if err != nil {
		return nil, domain.NewError(domain.KindEmit, "templates", 0, "failed to read embedded templates", err)
	}
	for _, entry := range entries {
		content, err := defaultTemplates.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, domain.NewError(domain.KindEmit, entry.Name(), 0, "failed to read embedded template", err)
		}
		if err := e.add(entry.Name(), string(content)); err != nil {
			return nil, err
		}
	}

	if overrideDir != "" {
		if err := e.loadOverrides(overrideDir); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// loadOverrides reads .tmpl files from the override directory.
func (e *Engine) loadOverrides(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.NewError(domain.KindEmit, dir, 0, "failed to read template directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return domain.NewError(domain.KindEmit, path, 0, "failed to read template file", err)
		}
		if err := e.add(entry.Name(), string(content)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) add(fileName, content string) error {
	name := strings.TrimSuffix(fileName, ".tmpl")
	tmpl, err := template.New(name).Funcs(CustomFuncMap()).Parse(content)
	if err != nil {
		return domain.NewError(domain.KindEmit, fileName, 0, "failed to parse template", err)
	}
	e.templates[name] = tmpl
	return nil
}

// RenderFile renders one complete generated file and formats it with
// go/format. On a formatting failure the unformatted text is returned
// together with the error, which helps debugging broken templates.
func (e *Engine) RenderFile(data FileData) (string, error) {
	var buf bytes.Buffer

	if err := e.exec(&buf, "file_header", headerData{
		Header:      data.Header,
		BuildTag:    data.BuildTag,
		PackageName: data.PackageName,
		SourceFile:  data.SourceFile,
		Imports:     data.Imports,
	}); err != nil {
		return "", err
	}

	for _, gen := range data.Types {
		buf.WriteString("\n")
		if err := e.exec(&buf, "error_type", e.typeData(gen)); err != nil {
			return "", err
		}
		if gen.Union != nil {
			buf.WriteString("\n")
			if err := e.exec(&buf, "source_union", unionData{
				SourceUnion: *gen.Union,
				SourceSep:   e.render.SourceSeparator,
			}); err != nil {
				return "", err
			}
		}
	}

	for _, fn := range data.Funcs {
		buf.WriteString("\n")
		buf.WriteString(fn)
		buf.WriteString("\n")
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.String(), domain.NewError(domain.KindEmit, data.SourceFile, 0,
			"generated code failed go/format validation", err)
	}
	return string(formatted), nil
}

func (e *Engine) exec(buf *bytes.Buffer, name string, data any) error {
	tmpl, ok := e.templates[name]
	if !ok {
		return domain.NewError(domain.KindEmit, "", 0, fmt.Sprintf("template %q not found", name), nil)
	}
	if err := tmpl.Execute(buf, data); err != nil {
		return domain.NewError(domain.KindEmit, "", 0, fmt.Sprintf("failed to execute template %q", name), err)
	}
	return nil
}

// NeedsFmt reports whether the generated code for this type calls into the
// fmt package.
func NeedsFmt(gen *domain.GeneratedType) bool {
	return gen.Union != nil || gen.Template != nil
}

type headerData struct {
	Header      string
	BuildTag    string
	PackageName string
	SourceFile  string
	Imports     []Import
}

type unionData struct {
	domain.SourceUnion
	SourceSep string
}

type typeData struct {
	TypeName       string
	DeclaredFields []domain.EmitField
	Inits          []domain.EmitField
	Union          *domain.SourceUnion
	Because        string
	CustomFormat   string
	CustomArgs     []string
}

// typeData flattens a GeneratedType for the error_type template,
// precomputing constructor initializers and the custom-format call.
func (e *Engine) typeData(gen *domain.GeneratedType) typeData {
	data := typeData{
		TypeName: gen.Spec.TypeName,
		Union:    gen.Union,
		Because:  e.render.BecauseSeparator,
	}

	// Fields[0:2] are the injected msg and innerMsgs; a trailing source
	// field is rendered by the template itself.
	declared := gen.Fields[2:]
	if gen.Union != nil {
		declared = declared[:len(declared)-1]
	}
	data.DeclaredFields = declared

	for _, f := range declared {
		if f.Init != "" {
			data.Inits = append(data.Inits, f)
		}
	}

	if gen.Template != nil {
		data.CustomFormat, data.CustomArgs = formatCall(gen)
	}
	return data
}

// formatCall translates the parsed template segments into a fmt.Sprintf
// format string and argument list, substituting placeholders left to right.
func formatCall(gen *domain.GeneratedType) (string, []string) {
	var fmtStr strings.Builder
	var args []string
	for _, seg := range gen.Template {
		if seg.Placeholder == "" {
			fmtStr.WriteString(strings.ReplaceAll(seg.Literal, "%", "%%"))
			continue
		}
		fmtStr.WriteString("%v")
		switch seg.Placeholder {
		case "msg":
			args = append(args, "e.msg")
		case "inner_msgs":
			args = append(args, "e.innerText()")
		case "source":
			args = append(args, "e.source.text()")
		default:
			args = append(args, "e."+seg.Placeholder)
		}
	}
	return fmtStr.String(), args
}
