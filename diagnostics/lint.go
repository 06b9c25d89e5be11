package diagnostics

import (
	"fmt"

	"github.com/go-minic/minic/ast"
)

// LintLevel is the severity of a lint finding; unlike cerrors.Kind,
// lint findings never block compilation.
type LintLevel int

const (
	LintWarning LintLevel = iota
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single structural finding against an AST.
type LintIssue struct {
	Level   LintLevel
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("%s: %s [%s]", i.Level, i.Message, i.Code)
}

// Lint walks a program's AST looking for structural issues that do not
// block compilation: an if whose branches are both empty, and loops
// whose condition is a constant that can never be true.
func Lint(prog *ast.Program) []*LintIssue {
	var issues []*LintIssue
	for _, item := range prog.Function.Body {
		issues = append(issues, lintBlockItem(item)...)
	}
	return issues
}

func lintBlockItem(item ast.BlockItem) []*LintIssue {
	stmt, ok := item.(ast.Statement)
	if !ok {
		return nil
	}
	return lintStatement(stmt)
}

func lintStatement(stmt ast.Statement) []*LintIssue {
	var issues []*LintIssue
	switch s := stmt.(type) {
	case *ast.IfStmt:
		if isEmptyStatement(s.Then) && isEmptyStatement(s.Else) {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				Message: "if statement has no effect in either branch",
				Code:    "EMPTY_IF",
			})
		}
		issues = append(issues, lintStatement(s.Then)...)
		if s.Else != nil {
			issues = append(issues, lintStatement(s.Else)...)
		}

	case *ast.WhileStmt:
		if isAlwaysFalse(s.Cond) {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				Message: "while loop body is unreachable",
				Code:    "UNREACHABLE_LOOP",
			})
		}
		issues = append(issues, lintStatement(s.Body)...)

	case *ast.ForStmt:
		if s.Cond != nil && isAlwaysFalse(s.Cond) {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				Message: "for loop body is unreachable",
				Code:    "UNREACHABLE_LOOP",
			})
		}
		issues = append(issues, lintStatement(s.Body)...)

	case *ast.DoWhileStmt:
		issues = append(issues, lintStatement(s.Body)...)

	case *ast.CompoundStmt:
		for _, item := range s.Body {
			issues = append(issues, lintBlockItem(item)...)
		}
	}
	return issues
}

func isEmptyStatement(s ast.Statement) bool {
	if s == nil {
		return true
	}
	switch st := s.(type) {
	case *ast.NullStmt:
		return true
	case *ast.CompoundStmt:
		return len(st.Body) == 0
	default:
		return false
	}
}

func isAlwaysFalse(cond ast.Expression) bool {
	c, ok := cond.(*ast.ConstantExpr)
	return ok && c.Value == 0
}
