// Package builder derives the full generated-type model from a parsed
// ErrorSpec: the injected bookkeeping fields, the declared fields with
// their constructor defaults, and the synthesized source union.
package builder

import (
	"fmt"
	"strings"

	"github.com/frherrer/errgen/internal/domain"
)

// Injected bookkeeping field names. They always lead the generated struct.
const (
	MsgField       = "msg"
	InnerMsgsField = "innerMsgs"
	SourceField    = "source"
)

// Builder turns ErrorSpecs into GeneratedTypes.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the ordered field list, union and parsed template for one
// ErrorSpec. Field order is fixed: msg, innerMsgs, the non-source declared
// fields in declaration order, then the source union field if any field is
// source-marked.
func (b *Builder) Build(spec domain.ErrorSpec) (*domain.GeneratedType, error) {
	gen := &domain.GeneratedType{
		Spec: spec,
		Fields: []domain.EmitField{
			{Name: MsgField, DeclaredType: "string"},
			{Name: InnerMsgsField, DeclaredType: "[]string"},
		},
	}

	var sources []domain.FieldSpec
	for _, f := range spec.Fields {
		switch f.Name {
		case MsgField, InnerMsgsField, SourceField:
			return nil, domain.NewErrorWithSuggestion(domain.MalformedAnnotation, spec.File, f.Line,
				fmt.Sprintf("field name %s of %s is reserved for an injected field", f.Name, spec.TypeName),
				"rename the field", nil)
		}
		if f.IsSource {
			sources = append(sources, f)
			continue
		}

		init := f.DefaultOverride
		if init == "" {
			// A Go composite literal zero-initializes omitted fields, which
			// covers every type with a usable zero value. Func- and
			// chan-typed fields have no renderable default, so they must
			// carry an override.
			if !hasRenderableZero(f.TypeExpr) {
				return nil, domain.NewErrorWithSuggestion(domain.UnsupportedFieldType, spec.File, f.Line,
					fmt.Sprintf("field %s of %s has type %s with no derivable default", f.Name, spec.TypeName, f.DeclaredType),
					"add an errgen:default override or change the field type", nil)
			}
		}
		gen.Fields = append(gen.Fields, domain.EmitField{
			Name:         f.Name,
			DeclaredType: f.DeclaredType,
			Init:         init,
		})
	}

	if len(sources) > 0 {
		union := synthesizeUnion(spec.TypeName, sources)
		gen.Union = union
		gen.Fields = append(gen.Fields, domain.EmitField{
			Name:         SourceField,
			DeclaredType: union.TypeName,
		})
	}

	if spec.FormatTemplate != "" {
		segs, err := parseTemplate(spec, gen)
		if err != nil {
			return nil, err
		}
		gen.Template = segs
	}

	return gen, nil
}

// parseTemplate splits a custom format template into literal and
// placeholder segments and checks every placeholder against the final
// field list plus the injected bookkeeping names.
func parseTemplate(spec domain.ErrorSpec, gen *domain.GeneratedType) ([]domain.TemplateSegment, error) {
	valid := map[string]bool{
		"msg":        true,
		"inner_msgs": true,
	}
	for _, f := range gen.Fields[2:] {
		valid[f.Name] = true
	}
	if gen.Union != nil {
		valid["source"] = true
	}

	var segs []domain.TemplateSegment
	tmpl := spec.FormatTemplate
	for len(tmpl) > 0 {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			segs = append(segs, domain.TemplateSegment{Literal: tmpl})
			break
		}
		if open > 0 {
			segs = append(segs, domain.TemplateSegment{Literal: tmpl[:open]})
		}
		tmpl = tmpl[open+1:]
		closing := strings.IndexByte(tmpl, '}')
		if closing < 0 {
			return nil, domain.NewError(domain.MalformedAnnotation, spec.File, spec.Line,
				fmt.Sprintf("format template of %s has an unclosed placeholder", spec.TypeName), nil)
		}
		name := tmpl[:closing]
		if !valid[name] {
			return nil, domain.NewError(domain.MalformedAnnotation, spec.File, spec.Line,
				fmt.Sprintf("format template of %s references unknown field %q", spec.TypeName, name), nil)
		}
		segs = append(segs, domain.TemplateSegment{Placeholder: name})
		tmpl = tmpl[closing+1:]
	}
	return segs, nil
}
