// Package resolve implements the minic semantic pass: alpha-renaming of
// every local variable to a globally-unique name, scope checking,
// break/continue-outside-loop rejection and lvalue validation, per
// spec.md §4.3.
package resolve

import (
	"fmt"

	"github.com/go-minic/minic/ast"
	"github.com/go-minic/minic/cerrors"
	"github.com/go-minic/minic/token"
)

// scope maps a source-level name to its resolved, globally-unique name
// within the current block.
type scope struct {
	names map[string]string
}

func newScope() *scope {
	return &scope{names: make(map[string]string)}
}

// resolver carries the state shared across one function's resolution
// pass: the scope stack, the monotonic renaming counter, and the
// current loop nesting depth (spec.md §4.3 "Loop tracking").
type resolver struct {
	scopes    []*scope
	counter   int
	loopDepth int
	errs      cerrors.ErrorList
}

// Resolve rewrites prog in place, renaming every declared variable to a
// fresh unique name and checking scoping, loop-nesting, and lvalue
// rules. It returns the first batch of errors found, if any.
func Resolve(prog *ast.Program) error {
	r := &resolver{}
	r.pushScope()
	for i, item := range prog.Function.Body {
		prog.Function.Body[i] = r.resolveBlockItem(item)
	}
	r.popScope()

	if r.errs.HasErrors() {
		return &r.errs
	}
	return nil
}

func (r *resolver) pushScope() {
	r.scopes = append(r.scopes, newScope())
}

func (r *resolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) currentScope() *scope {
	return r.scopes[len(r.scopes)-1]
}

func (r *resolver) addError(kind cerrors.Kind, message string) {
	r.errs.Add(cerrors.NewError(token.Position{}, kind, message))
}

// declare introduces name in the current scope, returning its fresh
// resolved name. It records a redeclaration error (and keeps the
// original mapping) if name already exists in this scope.
func (r *resolver) declare(name string) string {
	scope := r.currentScope()
	if _, exists := scope.names[name]; exists {
		r.addError(cerrors.KindSemantic, fmt.Sprintf("redeclaration of '%s'", name))
		return scope.names[name]
	}
	unique := fmt.Sprintf("%s_%d", name, r.counter)
	r.counter++
	scope.names[name] = unique
	return unique
}

// lookup resolves name from the innermost scope outward.
func (r *resolver) lookup(name string) (string, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if resolved, ok := r.scopes[i].names[name]; ok {
			return resolved, true
		}
	}
	return "", false
}

func (r *resolver) resolveBlockItem(item ast.BlockItem) ast.BlockItem {
	switch it := item.(type) {
	case *ast.Declaration:
		return r.resolveDeclaration(it)
	case ast.Statement:
		return r.resolveStatement(it)
	default:
		return item
	}
}

func (r *resolver) resolveDeclaration(decl *ast.Declaration) *ast.Declaration {
	// Resolve the initializer first: `int x = x;` must see the outer x,
	// not the not-yet-declared one.
	if decl.Init != nil {
		decl.Init = r.resolveExpression(decl.Init)
	}
	decl.Name = r.declare(decl.Name)
	return decl
}

func (r *resolver) resolveStatement(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		s.Value = r.resolveExpression(s.Value)
		return s
	case *ast.ExpressionStmt:
		s.Expr = r.resolveExpression(s.Expr)
		return s
	case *ast.NullStmt:
		return s
	case *ast.IfStmt:
		s.Cond = r.resolveExpression(s.Cond)
		s.Then = r.resolveStatement(s.Then)
		if s.Else != nil {
			s.Else = r.resolveStatement(s.Else)
		}
		return s
	case *ast.CompoundStmt:
		r.pushScope()
		for i, item := range s.Body {
			s.Body[i] = r.resolveBlockItem(item)
		}
		r.popScope()
		return s
	case *ast.WhileStmt:
		s.Cond = r.resolveExpression(s.Cond)
		r.loopDepth++
		s.Body = r.resolveStatement(s.Body)
		r.loopDepth--
		return s
	case *ast.DoWhileStmt:
		r.loopDepth++
		s.Body = r.resolveStatement(s.Body)
		r.loopDepth--
		s.Cond = r.resolveExpression(s.Cond)
		return s
	case *ast.ForStmt:
		return r.resolveFor(s)
	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.addError(cerrors.KindSemantic, "'break' used outside of a loop")
		}
		return s
	case *ast.ContinueStmt:
		if r.loopDepth == 0 {
			r.addError(cerrors.KindSemantic, "'continue' used outside of a loop")
		}
		return s
	default:
		return stmt
	}
}

func (r *resolver) resolveFor(s *ast.ForStmt) *ast.ForStmt {
	r.pushScope()
	switch init := s.Init.(type) {
	case *ast.Declaration:
		s.Init = r.resolveDeclaration(init)
	case *ast.ExpressionStmt:
		init.Expr = r.resolveExpression(init.Expr)
	}
	if s.Cond != nil {
		s.Cond = r.resolveExpression(s.Cond)
	}
	r.loopDepth++
	s.Body = r.resolveStatement(s.Body)
	r.loopDepth--
	if s.Post != nil {
		s.Post = r.resolveExpression(s.Post)
	}
	r.popScope()
	return s
}

func (r *resolver) resolveExpression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.ConstantExpr:
		return e
	case *ast.VariableExpr:
		resolved, ok := r.lookup(e.Name)
		if !ok {
			r.addError(cerrors.KindSemantic, fmt.Sprintf("use of undeclared variable '%s'", e.Name))
			return e
		}
		e.Name = resolved
		return e
	case *ast.AssignExpr:
		if _, ok := e.Lvalue.(*ast.VariableExpr); !ok {
			r.addError(cerrors.KindSemantic, "invalid lvalue in assignment")
		}
		e.Lvalue = r.resolveExpression(e.Lvalue)
		e.Rhs = r.resolveExpression(e.Rhs)
		return e
	case *ast.ConditionalExpr:
		e.Cond = r.resolveExpression(e.Cond)
		e.Then = r.resolveExpression(e.Then)
		e.Else = r.resolveExpression(e.Else)
		return e
	case *ast.UnaryExpr:
		e.Val = r.resolveExpression(e.Val)
		return e
	case *ast.BinaryExpr:
		e.Left = r.resolveExpression(e.Left)
		e.Right = r.resolveExpression(e.Right)
		return e
	default:
		return expr
	}
}
