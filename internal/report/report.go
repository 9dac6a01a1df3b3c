// Package report maintains the Markdown error catalog: a generated
// document describing every generated error type, plus a drift check that
// compares an existing catalog against the current generation run.
package report

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/frherrer/errgen/internal/config"
	"github.com/frherrer/errgen/internal/domain"
)

const catalogTemplate = `# {{ .Title }}

Generated by errgen. Do not edit by hand; run ` + "`errgen docs`" + ` to refresh.
{{ range .Types }}
## {{ .Spec.TypeName }}

Declared in {{ .Spec.File }}.

{{ if .Template }}Format: ` + "`{{ .Spec.FormatTemplate }}`" + `{{ else }}Format: default (message chain{{ if .Union }} + wrapped cause{{ end }}){{ end }}

Fields:
{{ range .Fields }}
- ` + "`{{ .Name }} {{ .DeclaredType }}`" + `{{ if .Init }} (default ` + "`{{ .Init }}`" + `){{ end }}
{{- end }}
{{ if .Union }}
Wrapped causes ({{ .Union.TypeName }}):
{{ range .Union.Variants }}
- ` + "`{{ .FieldName }} {{ .PayloadType }}`" + `
{{- end }}
{{ end }}
{{- end }}
`

// Writer renders and checks the catalog.
type Writer struct {
	cfg config.ReportConfig
}

// NewWriter creates a Writer.
func NewWriter(cfg config.ReportConfig) *Writer {
	return &Writer{cfg: cfg}
}

// Render produces the catalog text for the given generated types, ordered
// by type name.
func (w *Writer) Render(types []*domain.GeneratedType) (string, error) {
	sorted := append([]*domain.GeneratedType(nil), types...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Spec.TypeName < sorted[j].Spec.TypeName
	})

	tmpl, err := template.New("catalog").Parse(catalogTemplate)
	if err != nil {
		return "", domain.NewError(domain.KindReport, w.cfg.File, 0, "failed to parse catalog template", err)
	}

	var buf bytes.Buffer
	data := struct {
		Title string
		Types []*domain.GeneratedType
	}{Title: w.cfg.Title, Types: sorted}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", domain.NewError(domain.KindReport, w.cfg.File, 0, "failed to render catalog", err)
	}
	return buf.String(), nil
}

// Write renders the catalog and writes it to the configured file.
func (w *Writer) Write(types []*domain.GeneratedType) error {
	out, err := w.Render(types)
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.cfg.File, []byte(out), 0644); err != nil {
		return domain.NewError(domain.KindReport, w.cfg.File, 0, "failed to write catalog", err)
	}
	return nil
}

// Check parses the existing catalog and reports drift against the current
// generated types: documented types that are gone and generated types that
// are undocumented. A missing catalog file reports every type as
// undocumented.
func (w *Writer) Check(types []*domain.GeneratedType) ([]string, error) {
	current := make(map[string]bool)
	for _, gen := range types {
		current[gen.Spec.TypeName] = true
	}

	documented := make(map[string]bool)
	content, err := os.ReadFile(w.cfg.File)
	if err == nil {
		documented, err = documentedTypes(content)
		if err != nil {
			return nil, domain.NewError(domain.KindReport, w.cfg.File, 0, "failed to parse catalog", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, domain.NewError(domain.KindReport, w.cfg.File, 0, "failed to read catalog", err)
	}

	var drift []string
	for name := range documented {
		if !current[name] {
			drift = append(drift, fmt.Sprintf("documented type %s is no longer generated", name))
		}
	}
	for name := range current {
		if !documented[name] {
			drift = append(drift, fmt.Sprintf("generated type %s is missing from %s", name, w.cfg.File))
		}
	}
	sort.Strings(drift)
	return drift, nil
}

// documentedTypes extracts the level-2 headings of the catalog, one per
// documented error type.
func documentedTypes(content []byte) (map[string]bool, error) {
	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	names := make(map[string]bool)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 2 {
			if name := strings.TrimSpace(extractText(h, content)); name != "" {
				names[name] = true
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// extractText gets the text content of a heading node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}
