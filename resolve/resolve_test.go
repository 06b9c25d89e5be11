package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-minic/minic/ast"
	"github.com/go-minic/minic/parser"
)

func resolveSrc(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	prog, err := parser.Parse(src, "t.c")
	require.NoError(t, err)
	err = Resolve(prog)
	return prog, err
}

func TestRenamesToUniqueNames(t *testing.T) {
	prog, err := resolveSrc(t, "int main(void) { int x = 0; return x; }")
	require.NoError(t, err)
	decl := prog.Function.Body[0].(*ast.Declaration)
	ret := prog.Function.Body[1].(*ast.ReturnStmt)
	variable := ret.Value.(*ast.VariableExpr)
	assert.Equal(t, decl.Name, variable.Name)
	assert.NotEqual(t, "x", decl.Name)
}

func TestUndeclaredVariableIsSemanticError(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { return x; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use of undeclared variable 'x'")
}

func TestRedeclarationIsSemanticError(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { int x; int x; return 0; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redeclaration of 'x'")
}

func TestBreakOutsideLoopIsSemanticError(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { break; return 0; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'break' used outside of a loop")
}

func TestContinueOutsideLoopIsSemanticError(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { continue; return 0; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'continue' used outside of a loop")
}

func TestBreakInsideLoopIsFine(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { while (1) { break; } return 0; }")
	require.NoError(t, err)
}

func TestInvalidLvalueIsSemanticError(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { int x; 1 = x; return 0; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid lvalue in assignment")
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	prog, err := resolveSrc(t, "int main(void) { int x = 1; { int x = 2; } return x; }")
	require.NoError(t, err)
	outer := prog.Function.Body[0].(*ast.Declaration)
	compound := prog.Function.Body[1].(*ast.CompoundStmt)
	inner := compound.Body[0].(*ast.Declaration)
	assert.NotEqual(t, outer.Name, inner.Name)
}

func TestForLoopScopesInitVariable(t *testing.T) {
	_, err := resolveSrc(t, "int main(void) { for (int i = 0; i < 1; i = i + 1) { } return 0; }")
	require.NoError(t, err)
}

func TestResolutionIsIdempotent(t *testing.T) {
	prog, err := resolveSrc(t, "int main(void) { int x = 0; return x; }")
	require.NoError(t, err)
	// Re-running resolve on an already-resolved AST must not collide:
	// fresh suffixes are appended on top of the already-unique names.
	err = Resolve(prog)
	require.NoError(t, err)
}
