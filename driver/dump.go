package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-minic/minic/ast"
	"github.com/go-minic/minic/config"
	"github.com/go-minic/minic/diagnostics"
	"github.com/go-minic/minic/tacgen"
	"github.com/go-minic/minic/token"
)

func dumpPath(cfg *config.Config, base, suffix, ext string) (string, error) {
	dir := cfg.Diagnostics.DumpDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("cannot create dump directory %s: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s", base, suffix, ext)), nil
}

func writeDump(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("cannot write dump %s: %w", path, err)
	}
	return nil
}

func dumpTokens(cfg *config.Config, base string, tokens []token.Token) error {
	path, err := dumpPath(cfg, base, "tokens", "txt")
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, tok := range tokens {
		fmt.Fprintln(&b, tok.String())
	}
	return writeDump(path, b.String())
}

func dumpAST(cfg *config.Config, base string, prog *ast.Program, format DumpFormat) error {
	switch format {
	case DumpJSON:
		path, err := dumpPath(cfg, base, "ast", "json")
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(prog, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot marshal ast: %w", err)
		}
		return writeDump(path, string(data))

	case DumpDOT:
		path, err := dumpPath(cfg, base, "ast", "dot")
		if err != nil {
			return err
		}
		return writeDump(path, astDOT(prog))

	default:
		path, err := dumpPath(cfg, base, "ast", "txt")
		if err != nil {
			return err
		}
		return writeDump(path, fmt.Sprintf("%#v\n", prog))
	}
}

func dumpTacky(cfg *config.Config, base string, tac *tacgen.Program, format DumpFormat) error {
	switch format {
	case DumpJSON:
		path, err := dumpPath(cfg, base, "tacky", "json")
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(tac, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot marshal tac: %w", err)
		}
		return writeDump(path, string(data))

	default:
		path, err := dumpPath(cfg, base, "tacky", "txt")
		if err != nil {
			return err
		}
		symbols := diagnostics.CrossReference(tac.Function)
		content := fmt.Sprintf("%#v\n\n%s", tac, diagnostics.Report(symbols))
		return writeDump(path, content)
	}
}

// astDOT renders a minimal Graphviz DOT tree of a program's block items,
// intended for quick visual inspection rather than full fidelity.
func astDOT(prog *ast.Program) string {
	var b strings.Builder
	counter := 0
	next := func() int {
		counter++
		return counter
	}

	b.WriteString("digraph AST {\n")
	root := next()
	fmt.Fprintf(&b, "  n%d [label=\"Function %s\"];\n", root, prog.Function.Name)
	for _, item := range prog.Function.Body {
		dotBlockItem(&b, item, root, next)
	}
	b.WriteString("}\n")
	return b.String()
}

func dotBlockItem(b *strings.Builder, item ast.BlockItem, parent int, next func() int) {
	id := next()
	fmt.Fprintf(b, "  n%d [label=\"%T\"];\n", id, item)
	fmt.Fprintf(b, "  n%d -> n%d;\n", parent, id)
}
