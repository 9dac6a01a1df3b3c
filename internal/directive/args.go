package directive

import (
	"go/ast"
	"go/token"
	"strings"
)

// directiveLine is one parsed //errgen:<name> <rest> comment line.
type directiveLine struct {
	name string
	rest string
	line int
}

// all returns every directive line in the comment group, in order.
func (p *Parser) all(fset *token.FileSet, doc *ast.CommentGroup) []directiveLine {
	if doc == nil {
		return nil
	}
	marker := "//" + p.prefix + ":"
	var dirs []directiveLine
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, marker) {
			continue
		}
		body := strings.TrimPrefix(c.Text, marker)
		name, rest, _ := strings.Cut(body, " ")
		dirs = append(dirs, directiveLine{
			name: strings.TrimSpace(name),
			rest: strings.TrimSpace(rest),
			line: fset.Position(c.Pos()).Line,
		})
	}
	return dirs
}

// splitArgs splits a directive argument string into tokens, respecting
// quoted values:
//
//	format="{code}: {msg}" other=x
//
// yields two tokens with the quotes preserved.
func splitArgs(s string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			current.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				current.WriteByte(s[i])
				continue
			}
			if c == quoteChar {
				inQuote = false
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			inQuote = true
			quoteChar = c
			current.WriteByte(c)
		case c == ' ' || c == '\t':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
