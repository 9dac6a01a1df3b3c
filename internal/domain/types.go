package domain

import (
	"go/ast"
	"go/token"
)

// ParsedFile holds everything extracted from one annotated source file.
type ParsedFile struct {
	FilePath    string
	PackageName string
	Fset        *token.FileSet
	AST         *ast.File
	MarkerName  string // local import name of the errgen package ("" if not imported)
	Specs       []ErrorSpec
	Funcs       []ContextSpec
	Providers   []Provider
}

// ErrorSpec is the parsed errgen:error directive for one type declaration.
type ErrorSpec struct {
	TypeName       string
	FormatTemplate string // "" selects the default template
	Fields         []FieldSpec
	File           string
	Line           int
}

// FieldSpec is one declared field of an annotated type.
type FieldSpec struct {
	Name            string
	DeclaredType    string   // source text of the type expression
	TypeExpr        ast.Expr // the type expression itself
	IsSource        bool
	DefaultOverride string // literal text, "" if unset
	Line            int
}

// GeneratedType is the emission target derived from an ErrorSpec: the two
// injected bookkeeping fields, the declared non-source fields in order, and
// at most one source field of the synthesized union type.
type GeneratedType struct {
	Spec     ErrorSpec
	Fields   []EmitField // full ordered field list
	Union    *SourceUnion
	Template []TemplateSegment // parsed custom template, nil for the default
}

// EmitField is one field of the generated struct.
type EmitField struct {
	Name         string
	DeclaredType string
	Init         string // constructor initializer, "" to rely on the zero value
}

// SourceUnion is the tagged union synthesized for source-marked fields.
// The none variant is the zero value; a later source-set replaces any
// earlier value.
type SourceUnion struct {
	TypeName string // e.g. ManifestErrorSource
	KindName string // e.g. manifestErrorSourceKind
	NoneName string // kind constant for the empty variant
	Variants []SourceVariant
}

// SourceVariant wraps one source field's declared type unchanged.
type SourceVariant struct {
	FieldName   string // as declared, e.g. ioErr
	PayloadType string
	ConstName   string // kind constant, e.g. manifestErrorSourceIoErr
	CtorName    string // variant constructor, e.g. ManifestErrorSourceIoErr
}

// TemplateSegment is one piece of a parsed custom format template: either a
// literal run or a placeholder naming a field.
type TemplateSegment struct {
	Literal     string
	Placeholder string // field name, "msg", "inner_msgs" or "source"
}

// ContextSpec is one function annotated with errgen:context or
// errgen:convert.
type ContextSpec struct {
	FuncName    string
	Message     string // shared context message, "" in convert-only mode
	ConvertOnly bool
	TargetType  string // E for a final result type *E, "" otherwise
	Decl        *ast.FuncDecl
	Line        int
}

// Provider is a conversion contract supplied by the surrounding program: a
// package-level func(error) *T marked with errgen:from.
type Provider struct {
	FuncName   string
	TargetType string // T
	Line       int
}

// ConversionStep records one marked fallible expression during a rewrite
// pass. Every step of one pass shares the same context message and target
// error type.
type ConversionStep struct {
	Expression     string
	TargetType     string
	ContextMessage string
	Line           int
}
