package builder

import (
	"unicode"
	"unicode/utf8"

	"github.com/frherrer/errgen/internal/domain"
)

// synthesizeUnion builds the SourceUnion for a type with at least one
// source-marked field: one variant per field wrapping the field's declared
// type unchanged, plus the distinguished empty variant, which is the zero
// value. A later source-set replaces any earlier value.
func synthesizeUnion(typeName string, sources []domain.FieldSpec) *domain.SourceUnion {
	unionName := typeName + "Source"
	kindName := lowerFirst(typeName) + "SourceKind"

	union := &domain.SourceUnion{
		TypeName: unionName,
		KindName: kindName,
		NoneName: lowerFirst(typeName) + "SourceNone",
	}
	for _, f := range sources {
		union.Variants = append(union.Variants, domain.SourceVariant{
			FieldName:   f.Name,
			PayloadType: f.DeclaredType,
			ConstName:   lowerFirst(typeName) + "Source" + UpperFirst(f.Name),
			CtorName:    unionName + UpperFirst(f.Name),
		})
	}
	return union
}

// UpperFirst exports an identifier by upper-casing its first rune.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
