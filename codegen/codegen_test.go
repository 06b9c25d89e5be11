package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-minic/minic/asmir"
	"github.com/go-minic/minic/parser"
	"github.com/go-minic/minic/resolve"
	"github.com/go-minic/minic/tacgen"
)

func genTac(t *testing.T, src string) *tacgen.Program {
	t.Helper()
	prog, err := parser.Parse(src, "t.c")
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(prog))
	return tacgen.Generate(prog)
}

func TestStackSizeIsMultipleOf16(t *testing.T) {
	tac := genTac(t, "int main(void) { int a = 1; int b = 2; int c = 3; return a + b + c; }")
	asm := Lower(tac)
	assert.Equal(t, 0, asm.Function.StackSize%16)
	assert.Greater(t, asm.Function.StackSize, 0)
}

func TestSlotAllocationCoversSourceOnlyVariables(t *testing.T) {
	// `x` has no initializer, so it only ever appears as the Return's
	// source operand, never as a dst; a scan that only visits
	// destinations would give it no slot and leave the frame empty.
	tac := genTac(t, "int main(void) { int x; return x; }")
	asm := Lower(tac)
	assert.Greater(t, asm.Function.StackSize, 0)
}

func TestNoMemToMemMov(t *testing.T) {
	tac := genTac(t, "int main(void) { int a = 1; int b = a; return b; }")
	asm := Lower(tac)
	for _, instr := range asm.Function.Instructions {
		if m, ok := instr.(*asmir.Mov); ok {
			assert.False(t, m.Src.IsMemory() && m.Dst.IsMemory(), "mem-to-mem Mov survived fix-up")
		}
	}
}

func TestNoImmediateCmpDestination(t *testing.T) {
	tac := genTac(t, "int main(void) { int a = 1; return a < 2; }")
	asm := Lower(tac)
	for _, instr := range asm.Function.Instructions {
		if c, ok := instr.(*asmir.Cmp); ok {
			assert.False(t, c.B.IsImmediate(), "Cmp destination operand is an immediate")
		}
	}
}

func TestSetCCUsesByteRegisterWhenDestIsRegister(t *testing.T) {
	r11 := asmir.SetCC{Cond: asmir.E, Dst: asmir.Reg(asmir.R11D)}
	assert.Equal(t, "%r11b", setCCDest(r11.Dst))
}

func TestEmitELFUsesDotLLabelsAndBareSymbol(t *testing.T) {
	tac := genTac(t, "int main(void) { if (1) { return 1; } return 0; }")
	asm := Generate(tac, ELF)
	assert.True(t, strings.Contains(asm, ".globl main"))
	assert.False(t, strings.Contains(asm, "_main"))
	assert.True(t, strings.Contains(asm, ".Lif_else"))
}

func TestEmitMachOUsesUnderscoreSymbolAndLLabels(t *testing.T) {
	tac := genTac(t, "int main(void) { if (1) { return 1; } return 0; }")
	asm := Generate(tac, MachO)
	assert.True(t, strings.Contains(asm, ".globl _main"))
	assert.False(t, strings.Contains(asm, ".L"))
}

func TestEmittedFunctionEndsWithLeaveRet(t *testing.T) {
	tac := genTac(t, "int main(void) { return 42; }")
	asm := Generate(tac, ELF)
	lines := strings.Split(strings.TrimRight(asm, "\n"), "\n")
	// The last line is the ELF .note.GNU-stack section directive that
	// Emit writes after the function body.
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "\tleave", lines[len(lines)-3])
	assert.Equal(t, "\tret", lines[len(lines)-2])
}

func TestShortCircuitProgramCompilesToJccChain(t *testing.T) {
	tac := genTac(t, "int main(void) { int a = 0; return a && (1/a); }")
	asm := Generate(tac, ELF)
	assert.True(t, strings.Contains(asm, "je\t.Land_false"))
}
