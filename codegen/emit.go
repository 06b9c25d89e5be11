package codegen

import (
	"fmt"
	"strings"

	"github.com/go-minic/minic/asmir"
)

// Emit renders a lowered assembly IR program as AT&T-syntax text for
// the given Target's object-file convention.
func Emit(prog *asmir.Program, target Target) string {
	var b strings.Builder
	fn := prog.Function
	symbol := target.GlobalSymbol(fn.Name)

	fmt.Fprintf(&b, "\t.globl %s\n", symbol)
	fmt.Fprintf(&b, "%s:\n", symbol)
	b.WriteString("\tpushq\t%rbp\n")
	b.WriteString("\tmovq\t%rsp, %rbp\n")
	if fn.StackSize > 0 {
		fmt.Fprintf(&b, "\tsubq\t$%d, %%rsp\n", fn.StackSize)
	}

	for _, instr := range fn.Instructions {
		emitInstr(&b, instr, target)
	}

	if target == MachO {
		b.WriteString("\t.subsections_via_symbols\n")
	} else {
		b.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")
	}
	return b.String()
}

func operandText(o asmir.Operand) string {
	switch o.Kind {
	case asmir.OperandImmediate:
		return fmt.Sprintf("$%d", o.Imm)
	case asmir.OperandRegister:
		return o.Reg.String()
	case asmir.OperandMemRbp:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	default:
		return "?"
	}
}

func emitInstr(b *strings.Builder, instr asmir.Instr, target Target) {
	switch i := instr.(type) {
	case *asmir.Mov:
		fmt.Fprintf(b, "\tmovl\t%s, %s\n", operandText(i.Src), operandText(i.Dst))
	case *asmir.Neg:
		fmt.Fprintf(b, "\tnegl\t%s\n", operandText(i.Dst))
	case *asmir.Not:
		fmt.Fprintf(b, "\tnotl\t%s\n", operandText(i.Dst))
	case *asmir.AddEcxEax:
		b.WriteString("\taddl\t%ecx, %eax\n")
	case *asmir.SubEaxEcx:
		b.WriteString("\tsubl\t%eax, %ecx\n")
	case *asmir.ImulEcxEax:
		b.WriteString("\timull\t%ecx, %eax\n")
	case *asmir.XchgEaxEcx:
		b.WriteString("\txchgl\t%eax, %ecx\n")
	case *asmir.Cltd:
		b.WriteString("\tcltd\n")
	case *asmir.IdivEcx:
		b.WriteString("\tidivl\t%ecx\n")
	case *asmir.MovEdxEax:
		b.WriteString("\tmovl\t%edx, %eax\n")
	case *asmir.Cmp:
		fmt.Fprintf(b, "\tcmpl\t%s, %s\n", operandText(i.A), operandText(i.B))
	case *asmir.SetCC:
		fmt.Fprintf(b, "\tset%s\t%s\n", i.Cond.Suffix(), setCCDest(i.Dst))
	case *asmir.Jmp:
		fmt.Fprintf(b, "\tjmp\t%s\n", target.LocalLabel(i.Label))
	case *asmir.JCC:
		fmt.Fprintf(b, "\tj%s\t%s\n", i.Cond.Suffix(), target.LocalLabel(i.Label))
	case *asmir.Label:
		fmt.Fprintf(b, "%s:\n", target.LocalLabel(i.Name))
	case *asmir.Ret:
		b.WriteString("\tleave\n")
		b.WriteString("\tret\n")
	}
}

// setCCDest renders a SetCC destination: an 8-bit sub-register name when
// the destination is a register, or the memory operand unchanged (a
// `movl $0` always precedes SetCC into a stack slot, per spec.md §4.5,
// so the byte write only ever touches the slot's low byte).
func setCCDest(o asmir.Operand) string {
	if o.Kind == asmir.OperandRegister {
		return o.Reg.Byte8()
	}
	return operandText(o)
}
