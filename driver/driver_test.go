package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-minic/minic/config"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func compileToAsm(t *testing.T, src string) (string, int) {
	t.Helper()
	path := writeSource(t, src)
	cfg := config.DefaultConfig()
	cfg.Codegen.FormatAsm = false
	res, code := Pipeline(path, Options{Stage: StageCodegen, Config: cfg})
	return res.Assembly, code
}

func TestS1MinimalReturn(t *testing.T) {
	asm, code := compileToAsm(t, "int main(void) { return 2; }")
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(asm, "$2"))
}

func TestS2UnaryChain(t *testing.T) {
	asm, code := compileToAsm(t, "int main(void) { return -(~(-(2))); }")
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(asm, "negl"))
	assert.True(t, strings.Contains(asm, "notl"))
}

func TestS3PrecedenceAndRelationals(t *testing.T) {
	asm, code := compileToAsm(t, "int main(void) { return 1 + 2 * 3 == 7; }")
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(asm, "sete"))
}

func TestS4ShortCircuitEmitsJumpIfZeroBeforeDivision(t *testing.T) {
	asm, code := compileToAsm(t, "int main(void) { int a = 0; return a && (1/a); }")
	require.Equal(t, 0, code)
	jzIdx := strings.Index(asm, "je\t")
	divIdx := strings.Index(asm, "idivl")
	require.GreaterOrEqual(t, jzIdx, 0)
	require.GreaterOrEqual(t, divIdx, 0)
	assert.Less(t, jzIdx, divIdx)
}

func TestS5ControlFlow(t *testing.T) {
	src := `int main(void) {
		int s = 0;
		for (int i = 0; i < 5; i = i + 1) { if (i == 3) continue; s = s + i; }
		return s;
	}`
	_, code := compileToAsm(t, src)
	assert.Equal(t, 0, code)
}

func TestS6SemanticErrorsExitNonZero(t *testing.T) {
	cases := []string{
		"int main(void) { return x; }",
		"int main(void) { int x; int x; return 0; }",
		"int main(void) { break; }",
	}
	for _, src := range cases {
		_, code := compileToAsm(t, src)
		assert.Equal(t, 1, code, src)
	}
}

func TestEndToEndDeterminism(t *testing.T) {
	src := "int main(void) { int s = 0; for (int i = 0; i < 5; i = i + 1) { if (i == 3) continue; s = s + i; } return s; }"
	asm1, code1 := compileToAsm(t, src)
	asm2, code2 := compileToAsm(t, src)
	require.Equal(t, 0, code1)
	require.Equal(t, 0, code2)
	assert.Equal(t, asm1, asm2)
}

func TestDumpTokensWritesFile(t *testing.T) {
	path := writeSource(t, "int main(void) { return 0; }")
	cfg := config.DefaultConfig()
	cfg.Diagnostics.DumpDir = t.TempDir()
	_, code := Pipeline(path, Options{Stage: StageLex, DumpTokens: true, Config: cfg})
	require.Equal(t, 0, code)

	entries, err := os.ReadDir(cfg.Diagnostics.DumpDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestEmitAsmOnlyWritesDotSFile(t *testing.T) {
	path := writeSource(t, "int main(void) { return 5; }")
	dir := filepath.Dir(path)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	cfg := config.DefaultConfig()
	cfg.Codegen.FormatAsm = false
	_, code := Pipeline(path, Options{EmitAsmOnly: true, Config: cfg})
	require.Equal(t, 0, code)

	_, err = os.Stat("prog.s")
	assert.NoError(t, err)
}
