package builder

import (
	"go/ast"
	"go/types"
)

// basicZeros maps predeclared types to their zero literal.
var basicZeros = map[string]string{
	"bool":       "false",
	"string":     `""`,
	"int":        "0",
	"int8":       "0",
	"int16":      "0",
	"int32":      "0",
	"int64":      "0",
	"uint":       "0",
	"uint8":      "0",
	"uint16":     "0",
	"uint32":     "0",
	"uint64":     "0",
	"uintptr":    "0",
	"byte":       "0",
	"rune":       "0",
	"float32":    "0",
	"float64":    "0",
	"complex64":  "0",
	"complex128": "0",
	"error":      "nil",
	"any":        "nil",
}

// ZeroLiteral derives the zero-value expression for a declared type, used
// for the early-return values the rewriter must fabricate. The *new(T)
// fallback is valid for any type, so the derivation is total.
func ZeroLiteral(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		if z, ok := basicZeros[t.Name]; ok {
			return z
		}
	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return "nil"
	case *ast.ArrayType:
		if t.Len == nil { // slice
			return "nil"
		}
	}
	return "*new(" + types.ExprString(expr) + ")"
}

// hasRenderableZero reports whether a field of this type can default to its
// zero value and still take part in text rendering. Func and chan types
// cannot.
func hasRenderableZero(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.FuncType, *ast.ChanType:
		return false
	}
	return true
}
