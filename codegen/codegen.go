package codegen

import "github.com/go-minic/minic/tacgen"

// Generate runs the full backend: lowering, operand fix-ups, and text
// emission, producing the final assembly source for target.
func Generate(tac *tacgen.Program, target Target) string {
	prog := Lower(tac)
	return Emit(prog, target)
}
