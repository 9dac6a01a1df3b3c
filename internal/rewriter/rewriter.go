// Package rewriter performs the structural rewrite of annotated function
// bodies: every marked fallible expression and every fallible return is
// expanded into an explicit check that converts the carried error into the
// function's error type and, in context mode, pushes the context message.
package rewriter

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"

	"github.com/frherrer/errgen/internal/builder"
	"github.com/frherrer/errgen/internal/domain"
)

// Rewrite transforms the function of one ContextSpec in place and returns
// the conversion steps it performed. The provider is the errgen:from
// function resolved for the function's error type; it may be "" when the
// package supplies none, in which case the first expression that needs a
// conversion fails with NoConversionPath.
func Rewrite(file *domain.ParsedFile, spec domain.ContextSpec, provider string) ([]domain.ConversionStep, error) {
	p := &pass{
		file:     file,
		spec:     spec,
		provider: provider,
		used:     collectIdents(spec.Decl),
	}

	if res := spec.Decl.Type.Results; res != nil {
		for _, f := range res.List {
			n := len(f.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				p.results = append(p.results, f.Type)
			}
		}
	}

	body, err := p.stmts(spec.Decl.Body.List)
	if err != nil {
		return nil, err
	}
	spec.Decl.Body.List = body
	spec.Decl.Doc = nil

	if bad := remainingMarker(file.MarkerName, spec.Decl); bad != "" {
		return nil, domain.NewErrorWithSuggestion(domain.MalformedAnnotation, file.FilePath, spec.Line,
			fmt.Sprintf("%s used in an unsupported position in %s", bad, spec.FuncName),
			"markers are only rewritten on the right-hand side of := or as a statement", nil)
	}

	return p.steps, nil
}

// pass holds the state of one rewrite over one function body. Nothing is
// shared across passes.
type pass struct {
	file     *domain.ParsedFile
	spec     domain.ContextSpec
	provider string
	results  []ast.Expr
	used     map[string]bool
	steps    []domain.ConversionStep
}

// stmts rewrites a statement list, expanding marked statements in source
// order.
func (p *pass) stmts(list []ast.Stmt) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, s := range list {
		repl, err := p.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, repl...)
	}
	return out, nil
}

// stmt rewrites one statement into its replacement sequence.
func (p *pass) stmt(s ast.Stmt) ([]ast.Stmt, error) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		if call, ok := p.marker(st.Rhs, "Try"); ok {
			return p.tryAssign(st, call)
		}
		if _, ok := p.marker(st.Rhs, "Check"); ok {
			return nil, p.malformed(st.Pos(), "the result of Check cannot be assigned")
		}
	case *ast.ExprStmt:
		if call, ok := p.markerExpr(st.X, "Check"); ok {
			return p.checkStmt(st, call)
		}
		if _, ok := p.markerExpr(st.X, "Try"); ok {
			return nil, p.malformed(st.Pos(), "the result of Try is unused; use Check for error-only calls")
		}
	case *ast.ReturnStmt:
		return p.returnStmt(st)
	case *ast.BlockStmt:
		inner, err := p.stmts(st.List)
		if err != nil {
			return nil, err
		}
		st.List = inner
	case *ast.IfStmt:
		if err := p.block(st.Body); err != nil {
			return nil, err
		}
		if st.Else != nil {
			repl, err := p.stmt(st.Else)
			if err != nil {
				return nil, err
			}
			st.Else = asSingle(repl)
		}
	case *ast.ForStmt:
		if err := p.block(st.Body); err != nil {
			return nil, err
		}
	case *ast.RangeStmt:
		if err := p.block(st.Body); err != nil {
			return nil, err
		}
	case *ast.SwitchStmt:
		if err := p.caseBodies(st.Body); err != nil {
			return nil, err
		}
	case *ast.TypeSwitchStmt:
		if err := p.caseBodies(st.Body); err != nil {
			return nil, err
		}
	case *ast.SelectStmt:
		for _, c := range st.Body.List {
			comm, ok := c.(*ast.CommClause)
			if !ok {
				continue
			}
			inner, err := p.stmts(comm.Body)
			if err != nil {
				return nil, err
			}
			comm.Body = inner
		}
	case *ast.LabeledStmt:
		repl, err := p.stmt(st.Stmt)
		if err != nil {
			return nil, err
		}
		st.Stmt = asSingle(repl)
	}
	return []ast.Stmt{s}, nil
}

func (p *pass) block(b *ast.BlockStmt) error {
	inner, err := p.stmts(b.List)
	if err != nil {
		return err
	}
	b.List = inner
	return nil
}

func (p *pass) caseBodies(b *ast.BlockStmt) error {
	for _, c := range b.List {
		cc, ok := c.(*ast.CaseClause)
		if !ok {
			continue
		}
		inner, err := p.stmts(cc.Body)
		if err != nil {
			return err
		}
		cc.Body = inner
	}
	return nil
}

// tryAssign expands `x := errgen.Try(f(...))` into the capture-and-branch
// form.
func (p *pass) tryAssign(st *ast.AssignStmt, call *ast.CallExpr) ([]ast.Stmt, error) {
	if st.Tok != token.DEFINE {
		return nil, p.malformedWithHint(st.Pos(), "Try requires a := definition",
			"assign to a fresh variable and copy it afterwards")
	}
	if len(st.Lhs) != 1 {
		return nil, p.malformed(st.Pos(), "Try produces exactly one value")
	}
	if len(call.Args) == 0 {
		return nil, p.malformed(st.Pos(), "Try requires a fallible expression")
	}
	errName := p.fresh("err")

	assign := &ast.AssignStmt{
		Lhs: []ast.Expr{st.Lhs[0], ast.NewIdent(errName)},
		Tok: token.DEFINE,
		Rhs: call.Args,
	}
	guard, err := p.failureGuard(errName, call.Args[0])
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{assign, guard}, nil
}

// checkStmt expands `errgen.Check(g(...))` the same way for error-only
// calls.
func (p *pass) checkStmt(st *ast.ExprStmt, call *ast.CallExpr) ([]ast.Stmt, error) {
	if len(call.Args) != 1 {
		return nil, p.malformed(st.Pos(), "Check takes a single error expression")
	}
	errName := p.fresh("err")

	assign := &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(errName)},
		Tok: token.DEFINE,
		Rhs: call.Args,
	}
	guard, err := p.failureGuard(errName, call.Args[0])
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{assign, guard}, nil
}

// returnStmt gives the trailing result expression the same conversion and
// context treatment without disturbing the success path. A naked return
// over named results is expanded first so the carried error never escapes
// unconverted.
func (p *pass) returnStmt(st *ast.ReturnStmt) ([]ast.Stmt, error) {
	if len(p.results) == 0 {
		return []ast.Stmt{st}, nil
	}
	if len(st.Results) == 0 {
		named := p.namedResults()
		if named == nil {
			return []ast.Stmt{st}, nil
		}
		st.Results = named
	}
	if id, ok := st.Results[len(st.Results)-1].(*ast.Ident); ok && id.Name == "nil" {
		return []ast.Stmt{st}, nil
	}

	if err := p.needConversion(st.Results[len(st.Results)-1], st.Pos()); err != nil {
		return nil, err
	}

	n := len(p.results)
	temps := make([]ast.Expr, n)
	for i := 0; i < n-1; i++ {
		temps[i] = ast.NewIdent(p.fresh("ret"))
	}
	errName := p.fresh("err")
	temps[n-1] = ast.NewIdent(errName)

	assign := &ast.AssignStmt{
		Lhs: temps,
		Tok: token.DEFINE,
		Rhs: st.Results,
	}

	failure := &ast.ReturnStmt{Results: append(p.zeroValues(n-1), p.convert(errName))}
	guard := &ast.IfStmt{
		Cond: &ast.BinaryExpr{X: ast.NewIdent(errName), Op: token.NEQ, Y: ast.NewIdent("nil")},
		Body: &ast.BlockStmt{List: []ast.Stmt{failure}},
	}

	success := make([]ast.Expr, n)
	for i := 0; i < n-1; i++ {
		success[i] = ast.NewIdent(temps[i].(*ast.Ident).Name)
	}
	success[n-1] = ast.NewIdent("nil")

	return []ast.Stmt{assign, guard, &ast.ReturnStmt{Results: success}}, nil
}

// namedResults returns one ident per declared result name, or nil when the
// results are unnamed.
func (p *pass) namedResults() []ast.Expr {
	res := p.spec.Decl.Type.Results
	if res == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range res.List {
		if len(f.Names) == 0 {
			return nil
		}
		for _, n := range f.Names {
			out = append(out, ast.NewIdent(n.Name))
		}
	}
	return out
}

// failureGuard builds `if errName != nil { return zeros..., convert(errName) }`.
func (p *pass) failureGuard(errName string, marked ast.Expr) (ast.Stmt, error) {
	if err := p.needConversion(marked, marked.Pos()); err != nil {
		return nil, err
	}
	n := len(p.results)
	failure := &ast.ReturnStmt{Results: append(p.zeroValues(n-1), p.convert(errName))}
	return &ast.IfStmt{
		Cond: &ast.BinaryExpr{X: ast.NewIdent(errName), Op: token.NEQ, Y: ast.NewIdent("nil")},
		Body: &ast.BlockStmt{List: []ast.Stmt{failure}},
	}, nil
}

// convert builds provider(errName), in context mode followed by
// .MakeInner().Msg(message).
func (p *pass) convert(errName string) ast.Expr {
	var e ast.Expr = &ast.CallExpr{
		Fun:  ast.NewIdent(p.provider),
		Args: []ast.Expr{ast.NewIdent(errName)},
	}
	if p.spec.ConvertOnly {
		return e
	}
	e = &ast.CallExpr{Fun: &ast.SelectorExpr{X: e, Sel: ast.NewIdent("MakeInner")}}
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: e, Sel: ast.NewIdent("Msg")},
		Args: []ast.Expr{&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(p.spec.Message)}},
	}
}

// needConversion records the conversion step and enforces the visibility
// of a provider; a missing conversion contract is a generation-time
// failure, never a runtime one.
func (p *pass) needConversion(expr ast.Expr, pos token.Pos) error {
	if p.provider == "" {
		return domain.NewErrorWithSuggestion(domain.NoConversionPath, p.file.FilePath, p.line(pos),
			fmt.Sprintf("%s needs a conversion into *%s and no %s provider is visible",
				p.spec.FuncName, p.spec.TargetType, "errgen:from"),
			fmt.Sprintf("declare a func(error) *%s and mark it with errgen:from", p.spec.TargetType), nil)
	}
	p.steps = append(p.steps, domain.ConversionStep{
		Expression:     types.ExprString(expr),
		TargetType:     p.spec.TargetType,
		ContextMessage: p.spec.Message,
		Line:           p.line(pos),
	})
	return nil
}

// zeroValues fabricates zero expressions for the leading k result types.
func (p *pass) zeroValues(k int) []ast.Expr {
	out := make([]ast.Expr, 0, k)
	for i := 0; i < k; i++ {
		lit := builder.ZeroLiteral(p.results[i])
		expr, err := parser.ParseExpr(lit)
		if err != nil {
			// ZeroLiteral output is always parseable; fall back anyway.
			expr = ast.NewIdent("nil")
		}
		out = append(out, expr)
	}
	return out
}

// marker matches a single-expression RHS that is a marker call.
func (p *pass) marker(rhs []ast.Expr, name string) (*ast.CallExpr, bool) {
	if len(rhs) != 1 {
		return nil, false
	}
	return p.markerExpr(rhs[0], name)
}

func (p *pass) markerExpr(e ast.Expr, name string) (*ast.CallExpr, bool) {
	if p.file.MarkerName == "" {
		return nil, false
	}
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil, false
	}
	id, ok := sel.X.(*ast.Ident)
	if !ok || id.Name != p.file.MarkerName || sel.Sel.Name != name {
		return nil, false
	}
	return call, true
}

// fresh returns an identifier that collides with nothing in the function.
func (p *pass) fresh(base string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if !p.used[name] {
			p.used[name] = true
			return name
		}
	}
}

func (p *pass) line(pos token.Pos) int {
	return p.file.Fset.Position(pos).Line
}

func (p *pass) malformed(pos token.Pos, msg string) error {
	return domain.NewError(domain.MalformedAnnotation, p.file.FilePath, p.line(pos), msg, nil)
}

func (p *pass) malformedWithHint(pos token.Pos, msg, hint string) error {
	return domain.NewErrorWithSuggestion(domain.MalformedAnnotation, p.file.FilePath, p.line(pos), msg, hint, nil)
}

// collectIdents gathers every identifier in the function so fabricated
// names never collide.
func collectIdents(fn *ast.FuncDecl) map[string]bool {
	used := make(map[string]bool)
	ast.Inspect(fn, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			used[id.Name] = true
		}
		return true
	})
	return used
}

// remainingMarker reports a marker call that survived the rewrite, which
// means it sat in a position the rewrite does not support.
func remainingMarker(markerName string, fn *ast.FuncDecl) string {
	if markerName == "" {
		return ""
	}
	found := ""
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && id.Name == markerName {
			if sel.Sel.Name == "Try" || sel.Sel.Name == "Check" {
				found = markerName + "." + sel.Sel.Name
				return false
			}
		}
		return true
	})
	return found
}

// asSingle wraps a replacement sequence into one statement when the parent
// node can only hold one.
func asSingle(list []ast.Stmt) ast.Stmt {
	if len(list) == 1 {
		return list[0]
	}
	return &ast.BlockStmt{List: list}
}
