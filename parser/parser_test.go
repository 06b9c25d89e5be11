package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-minic/minic/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src, "t.c")
	require.NoError(t, err)
	return prog
}

func TestParseMinimalReturn(t *testing.T) {
	prog := mustParse(t, "int main(void) { return 2; }")
	require.Equal(t, "main", prog.Function.Name)
	require.Len(t, prog.Function.Body, 1)
	ret, ok := prog.Function.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	c, ok := ret.Value.(*ast.ConstantExpr)
	require.True(t, ok)
	assert.Equal(t, 2, c.Value)
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7  =>  ((1 + (2*3)) == 7)
	prog := mustParse(t, "int main(void) { return 1 + 2 * 3 == 7; }")
	ret := prog.Function.Body[0].(*ast.ReturnStmt)
	top, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Eq, top.Op)

	lhs, ok := top.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Add, lhs.Op)

	rhs, ok := lhs.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, rhs.Op)
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog := mustParse(t, "int main(void) { int a; int b; a = b = 3; return a; }")
	stmt := prog.Function.Body[2].(*ast.ExpressionStmt)
	assign, ok := stmt.Expr.(*ast.AssignExpr)
	require.True(t, ok)
	_, lvalueIsVar := assign.Lvalue.(*ast.VariableExpr)
	assert.True(t, lvalueIsVar)
	inner, ok := assign.Rhs.(*ast.AssignExpr)
	require.True(t, ok)
	_, innerLvalueIsVar := inner.Lvalue.(*ast.VariableExpr)
	assert.True(t, innerLvalueIsVar)
}

func TestUnaryChainParses(t *testing.T) {
	prog := mustParse(t, "int main(void) { return -(~(-(2))); }")
	ret := prog.Function.Body[0].(*ast.ReturnStmt)
	outer, ok := ret.Value.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Negate, outer.Op)
}

func TestConditionalExpression(t *testing.T) {
	prog := mustParse(t, "int main(void) { return 1 ? 2 : 3; }")
	ret := prog.Function.Body[0].(*ast.ReturnStmt)
	cond, ok := ret.Value.(*ast.ConditionalExpr)
	require.True(t, ok)
	assert.IsType(t, &ast.ConstantExpr{}, cond.Cond)
}

func TestForLoopWithDeclarationInit(t *testing.T) {
	src := `int main(void) {
		int s = 0;
		for (int i = 0; i < 5; i = i + 1) { if (i == 3) continue; s = s + i; }
		return s;
	}`
	prog := mustParse(t, src)
	forStmt, ok := prog.Function.Body[1].(*ast.ForStmt)
	require.True(t, ok)
	_, initIsDecl := forStmt.Init.(*ast.Declaration)
	assert.True(t, initIsDecl)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Post)
}

func TestMissingSemicolonIsParseError(t *testing.T) {
	_, err := Parse("int main(void) { return 2 }", "t.c")
	require.Error(t, err)
}

func TestDeterministicParse(t *testing.T) {
	src := "int main(void) { return 1 + 2 * 3; }"
	p1 := mustParse(t, src)
	p2 := mustParse(t, src)
	if diff := cmp.Diff(p1, p2); diff != "" {
		t.Fatalf("two parses of the same source diverged (-p1 +p2):\n%s", diff)
	}
}
