// Package directive parses the errgen annotation surface: directive
// comments attached to type declarations, struct fields and functions in
// build-tagged source files.
package directive

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/frherrer/errgen/internal/domain"
)

// MarkerImportPath is the import path of the package holding the Try and
// Check markers.
const MarkerImportPath = "github.com/frherrer/errgen"

// Parser extracts directive specifications from one source file.
type Parser struct {
	prefix string
}

// NewParser creates a Parser for the given directive prefix (normally
// "errgen").
func NewParser(prefix string) *Parser {
	return &Parser{prefix: prefix}
}

// HasBuildTag reports whether the file content carries a build constraint
// satisfied only when the given tag is set.
func HasBuildTag(content []byte, tag string) bool {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			if !constraint.IsGoBuild(line) {
				continue
			}
			expr, err := constraint.Parse(line)
			if err != nil {
				return false
			}
			return expr.Eval(func(t string) bool { return t == tag })
		}
		// First non-comment line ends the header.
		return false
	}
	return false
}

// Parse reads one annotated file and returns its specifications together
// with per-declaration diagnostics. A declaration with a malformed
// directive is dropped and reported; the rest of the file is still
// returned. A file that is not valid Go fails outright.
func (p *Parser) Parse(filePath string, content []byte) (*domain.ParsedFile, []*domain.Error, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindParse, filePath, 0, "failed to parse Go source", err)
	}

	parsed := &domain.ParsedFile{
		FilePath:    filePath,
		PackageName: file.Name.Name,
		Fset:        fset,
		AST:         file,
		MarkerName:  markerName(file),
	}

	var diags []*domain.Error

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			specs, errs := p.typeSpecs(fset, filePath, d)
			parsed.Specs = append(parsed.Specs, specs...)
			diags = append(diags, errs...)
		case *ast.FuncDecl:
			fn, prov, ferr := p.funcSpec(fset, filePath, d)
			if ferr != nil {
				diags = append(diags, ferr)
				continue
			}
			if fn != nil {
				parsed.Funcs = append(parsed.Funcs, *fn)
			}
			if prov != nil {
				parsed.Providers = append(parsed.Providers, *prov)
			}
		}
	}

	return parsed, diags, nil
}

// typeSpecs extracts ErrorSpecs from one type declaration group.
func (p *Parser) typeSpecs(fset *token.FileSet, filePath string, decl *ast.GenDecl) ([]domain.ErrorSpec, []*domain.Error) {
	var specs []domain.ErrorSpec
	var diags []*domain.Error

	for _, s := range decl.Specs {
		ts, ok := s.(*ast.TypeSpec)
		if !ok {
			continue
		}
		// The directive may sit on the group or on the individual spec.
		doc := ts.Doc
		if doc == nil {
			doc = decl.Doc
		}
		var dir directiveLine
		var found, bad bool
		for _, d := range p.all(fset, doc) {
			if d.name == "error" {
				dir, found = d, true
				continue
			}
			diags = append(diags, domain.NewError(domain.MalformedAnnotation, filePath, d.line,
				fmt.Sprintf("unknown type directive %s:%s", p.prefix, d.name), nil))
			bad = true
		}
		if bad || !found {
			continue
		}
		line := fset.Position(ts.Pos()).Line

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			diags = append(diags, domain.NewError(domain.MalformedAnnotation, filePath, line,
				fmt.Sprintf("%s:error requires a struct type, %s is not one", p.prefix, ts.Name.Name), nil))
			continue
		}

		spec := domain.ErrorSpec{
			TypeName: ts.Name.Name,
			File:     filePath,
			Line:     line,
		}

		tmpl, err := p.errorArgs(filePath, line, dir)
		if err != nil {
			diags = append(diags, err)
			continue
		}
		spec.FormatTemplate = tmpl

		fields, err := p.fieldSpecs(fset, filePath, st)
		if err != nil {
			diags = append(diags, err)
			continue
		}
		spec.Fields = fields
		specs = append(specs, spec)
	}

	return specs, diags
}

// errorArgs parses the argument list of an errgen:error directive and
// returns the format template, if any.
func (p *Parser) errorArgs(filePath string, line int, dir directiveLine) (string, *domain.Error) {
	args := splitArgs(dir.rest)
	var tmpl string
	var seen bool
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key != "format" {
			return "", domain.NewError(domain.MalformedAnnotation, filePath, line,
				fmt.Sprintf("unknown argument %q in %s:error directive", arg, p.prefix), nil)
		}
		unq, err := strconv.Unquote(val)
		if err != nil {
			return "", domain.NewError(domain.MalformedAnnotation, filePath, line,
				fmt.Sprintf("format argument must be a quoted string, got %s", val), err)
		}
		if seen {
			return "", domain.NewError(domain.MalformedAnnotation, filePath, line,
				"duplicate format argument", nil)
		}
		if unq == "" {
			return "", domain.NewError(domain.MalformedAnnotation, filePath, line,
				"format template must not be empty; drop the argument for the default template", nil)
		}
		tmpl = unq
		seen = true
	}
	return tmpl, nil
}

// fieldSpecs extracts the ordered FieldSpecs of an annotated struct.
func (p *Parser) fieldSpecs(fset *token.FileSet, filePath string, st *ast.StructType) ([]domain.FieldSpec, *domain.Error) {
	var fields []domain.FieldSpec

	for _, f := range st.Fields.List {
		line := fset.Position(f.Pos()).Line
		if len(f.Names) == 0 {
			return nil, domain.NewError(domain.MalformedAnnotation, filePath, line,
				"embedded fields are not supported in annotated error types", nil)
		}

		var isSource bool
		var override string
		for _, dir := range p.all(fset, f.Doc) {
			switch dir.name {
			case "source":
				if dir.rest != "" {
					return nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
						fmt.Sprintf("%s:source takes no arguments", p.prefix), nil)
				}
				isSource = true
			case "default":
				if override != "" {
					return nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
						"at most one default override per field", nil)
				}
				if dir.rest == "" {
					return nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
						fmt.Sprintf("%s:default requires a literal value", p.prefix), nil)
				}
				if _, err := parser.ParseExpr(dir.rest); err != nil {
					return nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
						fmt.Sprintf("default override %q is not a valid Go expression", dir.rest), err)
				}
				override = dir.rest
			default:
				return nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("unknown field directive %s:%s", p.prefix, dir.name), nil)
			}
		}

		if isSource && override != "" {
			return nil, domain.NewError(domain.MalformedAnnotation, filePath, line,
				"a source field defaults to the empty variant and cannot carry a default override", nil)
		}
		if (isSource || override != "") && len(f.Names) > 1 {
			return nil, domain.NewError(domain.MalformedAnnotation, filePath, line,
				"field directives require a single field name per declaration", nil)
		}

		for _, name := range f.Names {
			fields = append(fields, domain.FieldSpec{
				Name:            name.Name,
				DeclaredType:    types.ExprString(f.Type),
				TypeExpr:        f.Type,
				IsSource:        isSource,
				DefaultOverride: override,
				Line:            line,
			})
		}
	}

	return fields, nil
}

// funcSpec extracts a ContextSpec or Provider from one function declaration.
func (p *Parser) funcSpec(fset *token.FileSet, filePath string, decl *ast.FuncDecl) (*domain.ContextSpec, *domain.Provider, *domain.Error) {
	line := fset.Position(decl.Pos()).Line

	var spec *domain.ContextSpec
	var prov *domain.Provider
	for _, dir := range p.all(fset, decl.Doc) {
		switch dir.name {
		case "context":
			msg, err := strconv.Unquote(strings.TrimSpace(dir.rest))
			if err != nil {
				return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("%s:context requires a quoted message string", p.prefix), err)
			}
			if spec != nil {
				return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("conflicting rewrite directives on %s", decl.Name.Name), nil)
			}
			spec = &domain.ContextSpec{
				FuncName:   decl.Name.Name,
				Message:    msg,
				TargetType: resultTarget(decl),
				Decl:       decl,
				Line:       line,
			}
		case "convert":
			if dir.rest != "" {
				return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("%s:convert takes no arguments", p.prefix), nil)
			}
			if spec != nil {
				return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("conflicting rewrite directives on %s", decl.Name.Name), nil)
			}
			spec = &domain.ContextSpec{
				FuncName:    decl.Name.Name,
				ConvertOnly: true,
				TargetType:  resultTarget(decl),
				Decl:        decl,
				Line:        line,
			}
		case "from":
			target, ok := providerTarget(decl)
			if !ok {
				return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
					fmt.Sprintf("%s:from requires the signature func(error) *T", p.prefix), nil)
			}
			prov = &domain.Provider{
				FuncName:   decl.Name.Name,
				TargetType: target,
				Line:       line,
			}
		default:
			return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, dir.line,
				fmt.Sprintf("unknown function directive %s:%s", p.prefix, dir.name), nil)
		}
	}

	if spec != nil && prov != nil {
		return nil, nil, domain.NewError(domain.MalformedAnnotation, filePath, line,
			fmt.Sprintf("%s cannot be both a rewrite target and a conversion provider", decl.Name.Name), nil)
	}
	return spec, prov, nil
}

// resultTarget returns E when the function's final result type is *E, else "".
func resultTarget(decl *ast.FuncDecl) string {
	res := decl.Type.Results
	if res == nil || len(res.List) == 0 {
		return ""
	}
	last := res.List[len(res.List)-1].Type
	star, ok := last.(*ast.StarExpr)
	if !ok {
		return ""
	}
	id, ok := star.X.(*ast.Ident)
	if !ok {
		return ""
	}
	return id.Name
}

// providerTarget checks the func(error) *T shape and returns T.
func providerTarget(decl *ast.FuncDecl) (string, bool) {
	ft := decl.Type
	if decl.Recv != nil || ft.Params == nil || ft.Results == nil {
		return "", false
	}
	if len(ft.Params.List) != 1 || len(ft.Params.List[0].Names) > 1 {
		return "", false
	}
	if id, ok := ft.Params.List[0].Type.(*ast.Ident); !ok || id.Name != "error" {
		return "", false
	}
	if len(ft.Results.List) != 1 {
		return "", false
	}
	star, ok := ft.Results.List[0].Type.(*ast.StarExpr)
	if !ok {
		return "", false
	}
	id, ok := star.X.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// markerName returns the local name under which the errgen marker package
// is imported, or "" if it is not imported.
func markerName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != MarkerImportPath {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "errgen"
	}
	return ""
}
