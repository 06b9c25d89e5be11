// Package diagnostics provides optional, non-blocking reports over a
// compiled program: a TAC cross-reference table and an AST lint pass.
// Neither report affects compilation. The cross-reference table is
// written only by a txt-mode TAC dump; lint findings are printed to
// stderr on every run that reaches validation unless quiet is set.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/go-minic/minic/tacgen"
)

// Symbol is one TAC name (temporary or user variable) together with
// where it was defined and every instruction index that reads it.
type Symbol struct {
	Name       string
	DefinedAt  int // instruction index, -1 if never written
	ReadAt     []int
	IsConstant bool
}

// CrossReference walks a TAC function once and groups every name's
// reads and definitions by instruction index.
func CrossReference(fn *tacgen.Function) []*Symbol {
	symbols := map[string]*Symbol{}

	get := func(name string) *Symbol {
		if s, ok := symbols[name]; ok {
			return s
		}
		s := &Symbol{Name: name, DefinedAt: -1}
		symbols[name] = s
		return s
	}

	defineAt := func(name string, idx int) {
		get(name).DefinedAt = idx
	}
	readAt := func(v tacgen.Val, idx int) {
		if v.Kind != tacgen.ValVar {
			return
		}
		s := get(v.Name)
		s.ReadAt = append(s.ReadAt, idx)
	}

	for idx, instr := range fn.Instructions {
		switch in := instr.(type) {
		case *tacgen.UnaryInstr:
			readAt(in.Src, idx)
			defineAt(in.Dst, idx)
		case *tacgen.BinaryInstr:
			readAt(in.Src1, idx)
			readAt(in.Src2, idx)
			defineAt(in.Dst, idx)
		case *tacgen.CopyInstr:
			readAt(in.Src, idx)
			defineAt(in.Dst, idx)
		case *tacgen.JumpIfZeroInstr:
			readAt(in.Cond, idx)
		case *tacgen.JumpIfNotZeroInstr:
			readAt(in.Cond, idx)
		case *tacgen.ReturnInstr:
			readAt(in.Val, idx)
		}
	}

	names := lo.Keys(symbols)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) *Symbol { return symbols[name] })
}

// Report renders the cross-reference table as plain text, used to
// annotate `--dump-tacky` output in txt mode.
func Report(symbols []*Symbol) string {
	var b strings.Builder
	b.WriteString("TAC Cross-Reference\n")
	b.WriteString("====================\n\n")

	for _, s := range symbols {
		fmt.Fprintf(&b, "%-16s", s.Name)
		if s.DefinedAt < 0 {
			b.WriteString(" defined: (never)")
		} else {
			fmt.Fprintf(&b, " defined: instr %d", s.DefinedAt)
		}
		if len(s.ReadAt) == 0 {
			b.WriteString(", read: (never)\n")
			continue
		}
		reads := lo.Map(s.ReadAt, func(idx int, _ int) string { return fmt.Sprintf("%d", idx) })
		fmt.Fprintf(&b, ", read: %s\n", strings.Join(reads, ", "))
	}

	return b.String()
}
