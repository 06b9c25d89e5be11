// Package codegen lowers TAC into the x86-64 assembly IR, applies
// mandatory operand fix-ups, and emits AT&T-syntax text, per spec.md §4.5.
package codegen

import (
	"github.com/go-minic/minic/asmir"
	"github.com/go-minic/minic/tacgen"
)

// slotAllocator assigns a fixed stack offset to every distinct TAC name
// the first time it is seen, scanning both destination and source
// operand positions (spec.md §9 calls out that a scan which only visits
// destinations is a known bug class to avoid).
type slotAllocator struct {
	offsets map[string]int
	order   []string
}

func newSlotAllocator() *slotAllocator {
	return &slotAllocator{offsets: make(map[string]int)}
}

func (s *slotAllocator) slot(name string) int {
	if off, ok := s.offsets[name]; ok {
		return off
	}
	off := -4 * (len(s.order) + 1)
	s.offsets[name] = off
	s.order = append(s.order, name)
	return off
}

// stackSize rounds the total slot bytes up to the next multiple of 16.
func (s *slotAllocator) stackSize() int {
	bytes := 4 * len(s.order)
	if bytes%16 != 0 {
		bytes += 16 - bytes%16
	}
	return bytes
}

// Lower translates a TAC function into an assembly IR function: every
// TacVal becomes an Operand, fix-ups are applied, and the stack frame
// size is computed from the instructions actually used.
func Lower(tac *tacgen.Program) *asmir.Program {
	slots := newSlotAllocator()
	preScanInstructions(tac.Function.Instructions, slots)

	l := &lowerer{slots: slots}
	for _, instr := range tac.Function.Instructions {
		l.lowerInstr(instr)
	}

	fn := &asmir.Function{
		Name:         tac.Function.Name,
		Instructions: fixupAll(l.out),
		StackSize:    slots.stackSize(),
	}
	return &asmir.Program{Function: fn}
}

// preScanInstructions visits every operand position — destinations and
// sources — so slot assignment order is stable and complete regardless
// of which operand a later optimization pass might touch first.
func preScanInstructions(instrs []tacgen.Instr, slots *slotAllocator) {
	visitVal := func(v tacgen.Val) {
		if v.Kind == tacgen.ValVar {
			slots.slot(v.Name)
		}
	}
	for _, instr := range instrs {
		switch in := instr.(type) {
		case *tacgen.UnaryInstr:
			visitVal(in.Src)
			slots.slot(in.Dst)
		case *tacgen.BinaryInstr:
			visitVal(in.Src1)
			visitVal(in.Src2)
			slots.slot(in.Dst)
		case *tacgen.CopyInstr:
			visitVal(in.Src)
			slots.slot(in.Dst)
		case *tacgen.JumpIfZeroInstr:
			visitVal(in.Cond)
		case *tacgen.JumpIfNotZeroInstr:
			visitVal(in.Cond)
		case *tacgen.ReturnInstr:
			visitVal(in.Val)
		}
	}
}

type lowerer struct {
	slots *slotAllocator
	out   []asmir.Instr
}

func (l *lowerer) emit(i asmir.Instr) {
	l.out = append(l.out, i)
}

func (l *lowerer) operand(v tacgen.Val) asmir.Operand {
	if v.Kind == tacgen.ValConst {
		return asmir.Imm(v.Const)
	}
	return asmir.Mem(l.slots.slot(v.Name))
}

func (l *lowerer) lowerInstr(instr tacgen.Instr) {
	switch in := instr.(type) {
	case *tacgen.UnaryInstr:
		l.lowerUnary(in)
	case *tacgen.BinaryInstr:
		l.lowerBinary(in)
	case *tacgen.CopyInstr:
		l.emit(&asmir.Mov{Src: l.operand(in.Src), Dst: asmir.Mem(l.slots.slot(in.Dst))})
	case *tacgen.JumpInstr:
		l.emit(&asmir.Jmp{Label: in.Target})
	case *tacgen.JumpIfZeroInstr:
		l.emit(&asmir.Cmp{A: asmir.Imm(0), B: l.operand(in.Cond)})
		l.emit(&asmir.JCC{Cond: asmir.E, Label: in.Target})
	case *tacgen.JumpIfNotZeroInstr:
		l.emit(&asmir.Cmp{A: asmir.Imm(0), B: l.operand(in.Cond)})
		l.emit(&asmir.JCC{Cond: asmir.NE, Label: in.Target})
	case *tacgen.LabelInstr:
		l.emit(&asmir.Label{Name: in.Name})
	case *tacgen.ReturnInstr:
		l.emit(&asmir.Mov{Src: l.operand(in.Val), Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Ret{})
	default:
		panic("codegen: unknown TAC instruction")
	}
}

func (l *lowerer) lowerUnary(in *tacgen.UnaryInstr) {
	src := l.operand(in.Src)
	dst := asmir.Mem(l.slots.slot(in.Dst))
	switch in.Op {
	case tacgen.Negate:
		l.emit(&asmir.Mov{Src: src, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Neg{Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Complement:
		l.emit(&asmir.Mov{Src: src, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Not{Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Not:
		// movl $0 into the full 32-bit slot first so the upper three
		// bytes are zero before `sete` writes the low byte (spec.md §9).
		l.emit(&asmir.Cmp{A: asmir.Imm(0), B: src})
		l.emit(&asmir.Mov{Src: asmir.Imm(0), Dst: dst})
		l.emit(&asmir.SetCC{Cond: asmir.E, Dst: dst})
	}
}

func (l *lowerer) lowerBinary(in *tacgen.BinaryInstr) {
	a := l.operand(in.Src1)
	b := l.operand(in.Src2)
	dst := asmir.Mem(l.slots.slot(in.Dst))

	switch in.Op {
	case tacgen.Add:
		l.emit(&asmir.Mov{Src: a, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: asmir.Reg(asmir.ECX)})
		l.emit(&asmir.Mov{Src: b, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.AddEcxEax{})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Sub:
		l.emit(&asmir.Mov{Src: a, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: asmir.Reg(asmir.ECX)})
		l.emit(&asmir.Mov{Src: b, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.SubEaxEcx{})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.ECX), Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Mul:
		l.emit(&asmir.Mov{Src: a, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: asmir.Reg(asmir.ECX)})
		l.emit(&asmir.Mov{Src: b, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.ImulEcxEax{})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Div:
		l.emit(&asmir.Mov{Src: a, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: b, Dst: asmir.Reg(asmir.ECX)})
		l.emit(&asmir.Cltd{})
		l.emit(&asmir.IdivEcx{})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	case tacgen.Rem:
		l.emit(&asmir.Mov{Src: a, Dst: asmir.Reg(asmir.EAX)})
		l.emit(&asmir.Mov{Src: b, Dst: asmir.Reg(asmir.ECX)})
		l.emit(&asmir.Cltd{})
		l.emit(&asmir.IdivEcx{})
		l.emit(&asmir.MovEdxEax{})
		l.emit(&asmir.Mov{Src: asmir.Reg(asmir.EAX), Dst: dst})
	default:
		l.lowerRelational(in.Op, a, b, dst)
	}
}

var relCond = map[tacgen.BinaryOp]asmir.Cond{
	tacgen.Eq: asmir.E,
	tacgen.Ne: asmir.NE,
	tacgen.Lt: asmir.L,
	tacgen.Le: asmir.LE,
	tacgen.Gt: asmir.G,
	tacgen.Ge: asmir.GE,
}

func (l *lowerer) lowerRelational(op tacgen.BinaryOp, a, b, dst asmir.Operand) {
	l.emit(&asmir.Cmp{A: b, B: a})
	l.emit(&asmir.Mov{Src: asmir.Imm(0), Dst: dst})
	l.emit(&asmir.SetCC{Cond: relCond[op], Dst: dst})
}
