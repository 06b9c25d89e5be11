package codegen

import "github.com/go-minic/minic/asmir"

// fixupAll rewrites the instruction stream so no instruction violates
// x86-64 addressing rules: Mov and Cmp each allow at most one memory
// operand, and Cmp's second operand may never be an immediate.
func fixupAll(in []asmir.Instr) []asmir.Instr {
	out := make([]asmir.Instr, 0, len(in))
	for _, instr := range in {
		out = append(out, fixupInstr(instr)...)
	}
	return out
}

func fixupInstr(instr asmir.Instr) []asmir.Instr {
	switch i := instr.(type) {
	case *asmir.Mov:
		if i.Src.IsMemory() && i.Dst.IsMemory() {
			return []asmir.Instr{
				&asmir.Mov{Src: i.Src, Dst: asmir.Reg(asmir.R11D)},
				&asmir.Mov{Src: asmir.Reg(asmir.R11D), Dst: i.Dst},
			}
		}
		return []asmir.Instr{i}

	case *asmir.Cmp:
		// Cmp{A, B} emits as `cmp A, B`; B may never be an immediate and
		// A and B may never both be memory.
		if i.B.IsImmediate() {
			return []asmir.Instr{
				&asmir.Mov{Src: i.B, Dst: asmir.Reg(asmir.R11D)},
				&asmir.Cmp{A: i.A, B: asmir.Reg(asmir.R11D)},
			}
		}
		if i.A.IsMemory() && i.B.IsMemory() {
			return []asmir.Instr{
				&asmir.Mov{Src: i.A, Dst: asmir.Reg(asmir.R10D)},
				&asmir.Cmp{A: asmir.Reg(asmir.R10D), B: i.B},
			}
		}
		return []asmir.Instr{i}

	default:
		return []asmir.Instr{instr}
	}
}
