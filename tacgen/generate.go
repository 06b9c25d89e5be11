package tacgen

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/go-minic/minic/ast"
)

// loopTargets is one entry in the break/continue target stack: where a
// `continue` and a `break` inside the current loop should jump to.
type loopTargets struct {
	continueLabel string
	breakLabel    string
}

type generator struct {
	fn           *Function
	tempCounter  int
	labelCounter int
	loopStack    []loopTargets
}

// Generate lowers a resolved AST into a TacProgram. The caller must have
// already run resolve.Resolve over prog.
func Generate(prog *ast.Program) *Program {
	g := &generator{fn: &Function{Name: prog.Function.Name}}
	for _, item := range prog.Function.Body {
		g.genBlockItem(item)
	}
	// The generator always appends a synthetic `Return 0` so the
	// instruction stream ends with a Return even if the source omitted
	// one (spec.md §4.4).
	g.emit(&ReturnInstr{Val: ConstVal(0)})
	return &Program{Function: g.fn}
}

func (g *generator) emit(i Instr) {
	g.fn.Instructions = append(g.fn.Instructions, i)
}

func (g *generator) newTemp() string {
	name := fmt.Sprintf("t%d", g.tempCounter)
	g.tempCounter++
	return name
}

func (g *generator) newLabel(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, g.labelCounter)
	g.labelCounter++
	return name
}

// currentLoop returns the innermost enclosing loop's targets. It is
// only called after the resolver has guaranteed break/continue are
// nested inside a loop, via lo.Last's safety against an empty stack.
func (g *generator) currentLoop() loopTargets {
	target, ok := lo.Last(g.loopStack)
	if !ok {
		// Unreachable: resolve.Resolve rejects break/continue outside a loop.
		return loopTargets{}
	}
	return target
}

func (g *generator) pushLoop(t loopTargets) {
	g.loopStack = append(g.loopStack, t)
}

func (g *generator) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func (g *generator) genBlockItem(item ast.BlockItem) {
	switch it := item.(type) {
	case *ast.Declaration:
		g.genDeclaration(it)
	case ast.Statement:
		g.genStatement(it)
	}
}

func (g *generator) genDeclaration(decl *ast.Declaration) {
	if decl.Init == nil {
		return
	}
	v := g.genExpr(decl.Init)
	g.emit(&CopyInstr{Src: v, Dst: decl.Name})
}

func (g *generator) genStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		v := g.genExpr(s.Value)
		g.emit(&ReturnInstr{Val: v})

	case *ast.ExpressionStmt:
		g.genExpr(s.Expr)

	case *ast.NullStmt:
		// no emission

	case *ast.IfStmt:
		g.genIf(s)

	case *ast.CompoundStmt:
		for _, item := range s.Body {
			g.genBlockItem(item)
		}

	case *ast.WhileStmt:
		g.genWhile(s)

	case *ast.DoWhileStmt:
		g.genDoWhile(s)

	case *ast.ForStmt:
		g.genFor(s)

	case *ast.BreakStmt:
		g.emit(&JumpInstr{Target: g.currentLoop().breakLabel})

	case *ast.ContinueStmt:
		g.emit(&JumpInstr{Target: g.currentLoop().continueLabel})
	}
}

func (g *generator) genIf(s *ast.IfStmt) {
	cond := g.genExpr(s.Cond)
	elseLabel := g.newLabel("if_else")
	endLabel := g.newLabel("if_end")
	g.emit(&JumpIfZeroInstr{Cond: cond, Target: elseLabel})
	g.genStatement(s.Then)
	g.emit(&JumpInstr{Target: endLabel})
	g.emit(&LabelInstr{Name: elseLabel})
	if s.Else != nil {
		g.genStatement(s.Else)
	}
	g.emit(&LabelInstr{Name: endLabel})
}

func (g *generator) genWhile(s *ast.WhileStmt) {
	startLabel := g.newLabel("while_start")
	breakLabel := g.newLabel("while_brk")
	g.emit(&LabelInstr{Name: startLabel})
	cond := g.genExpr(s.Cond)
	g.emit(&JumpIfZeroInstr{Cond: cond, Target: breakLabel})
	g.pushLoop(loopTargets{continueLabel: startLabel, breakLabel: breakLabel})
	g.genStatement(s.Body)
	g.popLoop()
	g.emit(&JumpInstr{Target: startLabel})
	g.emit(&LabelInstr{Name: breakLabel})
}

func (g *generator) genDoWhile(s *ast.DoWhileStmt) {
	startLabel := g.newLabel("do_start")
	continueLabel := g.newLabel("do_cont")
	breakLabel := g.newLabel("do_brk")
	g.emit(&LabelInstr{Name: startLabel})
	g.pushLoop(loopTargets{continueLabel: continueLabel, breakLabel: breakLabel})
	g.genStatement(s.Body)
	g.popLoop()
	g.emit(&LabelInstr{Name: continueLabel})
	cond := g.genExpr(s.Cond)
	g.emit(&JumpIfNotZeroInstr{Cond: cond, Target: startLabel})
	g.emit(&LabelInstr{Name: breakLabel})
}

func (g *generator) genFor(s *ast.ForStmt) {
	switch init := s.Init.(type) {
	case *ast.Declaration:
		g.genDeclaration(init)
	case *ast.ExpressionStmt:
		g.genExpr(init.Expr)
	}

	topLabel := g.newLabel("for_top")
	continueLabel := g.newLabel("for_cont")
	breakLabel := g.newLabel("for_brk")

	g.emit(&LabelInstr{Name: topLabel})
	if s.Cond != nil {
		cond := g.genExpr(s.Cond)
		g.emit(&JumpIfZeroInstr{Cond: cond, Target: breakLabel})
	}
	g.pushLoop(loopTargets{continueLabel: continueLabel, breakLabel: breakLabel})
	g.genStatement(s.Body)
	g.popLoop()
	g.emit(&LabelInstr{Name: continueLabel})
	if s.Post != nil {
		g.genExpr(s.Post)
	}
	g.emit(&JumpInstr{Target: topLabel})
	g.emit(&LabelInstr{Name: breakLabel})
}

func (g *generator) genExpr(expr ast.Expression) Val {
	switch e := expr.(type) {
	case *ast.ConstantExpr:
		return ConstVal(e.Value)

	case *ast.VariableExpr:
		return VarVal(e.Name)

	case *ast.UnaryExpr:
		src := g.genExpr(e.Val)
		dst := g.newTemp()
		g.emit(&UnaryInstr{Op: convertUnary(e.Op), Src: src, Dst: dst})
		return VarVal(dst)

	case *ast.BinaryExpr:
		return g.genBinary(e)

	case *ast.AssignExpr:
		lvalue := e.Lvalue.(*ast.VariableExpr)
		rhs := g.genExpr(e.Rhs)
		g.emit(&CopyInstr{Src: rhs, Dst: lvalue.Name})
		return VarVal(lvalue.Name)

	case *ast.ConditionalExpr:
		return g.genConditional(e)

	default:
		panic(fmt.Sprintf("tacgen: unknown expression node %T", expr))
	}
}

func (g *generator) genBinary(e *ast.BinaryExpr) Val {
	switch e.Op {
	case ast.And:
		return g.genAnd(e)
	case ast.Or:
		return g.genOr(e)
	default:
		// Left-to-right evaluation order, per spec.md §4.4.
		v1 := g.genExpr(e.Left)
		v2 := g.genExpr(e.Right)
		dst := g.newTemp()
		g.emit(&BinaryInstr{Op: convertBinary(e.Op), Src1: v1, Src2: v2, Dst: dst})
		return VarVal(dst)
	}
}

func (g *generator) genAnd(e *ast.BinaryExpr) Val {
	falseLabel := g.newLabel("and_false")
	endLabel := g.newLabel("and_end")
	result := g.newTemp()

	v1 := g.genExpr(e.Left)
	g.emit(&JumpIfZeroInstr{Cond: v1, Target: falseLabel})
	v2 := g.genExpr(e.Right)
	g.emit(&JumpIfZeroInstr{Cond: v2, Target: falseLabel})
	g.emit(&CopyInstr{Src: ConstVal(1), Dst: result})
	g.emit(&JumpInstr{Target: endLabel})
	g.emit(&LabelInstr{Name: falseLabel})
	g.emit(&CopyInstr{Src: ConstVal(0), Dst: result})
	g.emit(&LabelInstr{Name: endLabel})
	return VarVal(result)
}

func (g *generator) genOr(e *ast.BinaryExpr) Val {
	trueLabel := g.newLabel("or_true")
	endLabel := g.newLabel("or_end")
	result := g.newTemp()

	v1 := g.genExpr(e.Left)
	g.emit(&JumpIfNotZeroInstr{Cond: v1, Target: trueLabel})
	v2 := g.genExpr(e.Right)
	g.emit(&JumpIfNotZeroInstr{Cond: v2, Target: trueLabel})
	g.emit(&CopyInstr{Src: ConstVal(0), Dst: result})
	g.emit(&JumpInstr{Target: endLabel})
	g.emit(&LabelInstr{Name: trueLabel})
	g.emit(&CopyInstr{Src: ConstVal(1), Dst: result})
	g.emit(&LabelInstr{Name: endLabel})
	return VarVal(result)
}

func (g *generator) genConditional(e *ast.ConditionalExpr) Val {
	elseLabel := g.newLabel("cond_else")
	endLabel := g.newLabel("cond_end")
	result := g.newTemp()

	cond := g.genExpr(e.Cond)
	g.emit(&JumpIfZeroInstr{Cond: cond, Target: elseLabel})
	thenVal := g.genExpr(e.Then)
	g.emit(&CopyInstr{Src: thenVal, Dst: result})
	g.emit(&JumpInstr{Target: endLabel})
	g.emit(&LabelInstr{Name: elseLabel})
	elseVal := g.genExpr(e.Else)
	g.emit(&CopyInstr{Src: elseVal, Dst: result})
	g.emit(&LabelInstr{Name: endLabel})
	return VarVal(result)
}

func convertUnary(op ast.UnaryOp) UnaryOp {
	switch op {
	case ast.Negate:
		return Negate
	case ast.Complement:
		return Complement
	case ast.Not:
		return Not
	default:
		panic("tacgen: unknown unary op")
	}
}

func convertBinary(op ast.BinaryOp) BinaryOp {
	switch op {
	case ast.Add:
		return Add
	case ast.Sub:
		return Sub
	case ast.Mul:
		return Mul
	case ast.Div:
		return Div
	case ast.Rem:
		return Rem
	case ast.Eq:
		return Eq
	case ast.Ne:
		return Ne
	case ast.Lt:
		return Lt
	case ast.Le:
		return Le
	case ast.Gt:
		return Gt
	case ast.Ge:
		return Ge
	default:
		panic("tacgen: unknown binary op")
	}
}
