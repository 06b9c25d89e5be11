// Package driver orchestrates the compiler's pipeline stages: lex,
// parse, validate (resolve), tacky (TAC generation), and codegen,
// matching spec.md §6's mutually exclusive stage flags.
package driver

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/asmfmt"

	"github.com/go-minic/minic/ast"
	"github.com/go-minic/minic/codegen"
	"github.com/go-minic/minic/config"
	"github.com/go-minic/minic/diagnostics"
	"github.com/go-minic/minic/lexer"
	"github.com/go-minic/minic/parser"
	"github.com/go-minic/minic/resolve"
	"github.com/go-minic/minic/tacgen"
	"github.com/go-minic/minic/token"
)

// Stage names the last pipeline stage to run. The zero value, StageFull,
// runs every stage and then assembles and links the result.
type Stage int

const (
	StageFull Stage = iota
	StageLex
	StageParse
	StageValidate
	StageTacky
	StageCodegen
)

// DumpFormat selects how a dump is rendered.
type DumpFormat string

const (
	DumpText DumpFormat = "txt"
	DumpJSON DumpFormat = "json"
	DumpDOT  DumpFormat = "dot"
)

// Options controls one Pipeline invocation, mirroring the CLI flags in
// spec.md §6.
type Options struct {
	Stage        Stage
	EmitAsmOnly  bool // -S: write the .s file instead of invoking the assembler
	DumpTokens   bool
	DumpAST      DumpFormat // "" means not requested
	DumpTacky    DumpFormat // "" means not requested
	Quiet        bool
	Run          bool
	Config       *config.Config
}

// Result carries whatever artifacts a Pipeline run produced, for tests
// and for cmd/minic to report on.
type Result struct {
	Tokens   []token.Token
	Program  *ast.Program
	Tac      *tacgen.Program
	Assembly string
	ExitCode int
}

// Pipeline runs the compiler over the source file at path according to
// opts, writing any requested dump files under opts.Config's dump_dir
// and, unless a partial Stage was requested, assembling and optionally
// running the result. It returns the compiler's own exit code: 0 on
// success, 1 on any compiler error. When opts.Run is set and the build
// succeeds, it returns the produced program's exit code instead.
func Pipeline(path string, opts Options) (res Result, exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "minic: internal error: %v\n", r)
			exitCode = 1
		}
	}()

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	source, err := os.ReadFile(path) // #nosec G304 -- path is the user-provided input file
	if err != nil {
		fmt.Fprintf(os.Stderr, "minic: cannot read %s: %v\n", path, err)
		return res, 1
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	tokens, err := lexer.TokenizeAll(string(source), path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "minic:", err)
		return res, 1
	}
	res.Tokens = tokens
	if opts.DumpTokens {
		if err := dumpTokens(cfg, base, tokens); err != nil {
			fmt.Fprintln(os.Stderr, "minic:", err)
			return res, 1
		}
	}
	if opts.Stage == StageLex {
		return res, 0
	}

	prog, err := parser.Parse(string(source), path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "minic:", err)
		return res, 1
	}
	res.Program = prog
	if opts.DumpAST != "" {
		if err := dumpAST(cfg, base, prog, opts.DumpAST); err != nil {
			fmt.Fprintln(os.Stderr, "minic:", err)
			return res, 1
		}
	}
	if opts.Stage == StageParse {
		return res, 0
	}

	if err := resolve.Resolve(prog); err != nil {
		fmt.Fprintln(os.Stderr, "minic:", err)
		return res, 1
	}
	if !opts.Quiet {
		for _, issue := range diagnostics.Lint(prog) {
			fmt.Fprintln(os.Stderr, "minic:", issue.String())
		}
	}
	if opts.Stage == StageValidate {
		return res, 0
	}

	tac := tacgen.Generate(prog)
	res.Tac = tac
	if opts.DumpTacky != "" {
		if err := dumpTacky(cfg, base, tac, opts.DumpTacky); err != nil {
			fmt.Fprintln(os.Stderr, "minic:", err)
			return res, 1
		}
	}
	if opts.Stage == StageTacky {
		return res, 0
	}

	target := resolveTarget(cfg)
	asm := codegen.Generate(tac, target)
	if cfg.Codegen.FormatAsm {
		if formatted, err := asmfmt.Format(strings.NewReader(asm)); err == nil {
			asm = string(formatted)
		}
	}
	res.Assembly = asm

	if opts.EmitAsmOnly || opts.Stage == StageCodegen {
		outPath := base + ".s"
		if err := os.WriteFile(outPath, []byte(asm), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "minic: cannot write %s: %v\n", outPath, err)
			return res, 1
		}
		return res, 0
	}

	binPath := base + ".out"
	if err := assemble(cfg, asm, binPath); err != nil {
		fmt.Fprintln(os.Stderr, "minic:", err)
		return res, 1
	}

	if opts.Run {
		code, err := runBinary(binPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "minic:", err)
			return res, 1
		}
		fmt.Printf("Program exited with code %d\n", code)
		res.ExitCode = code
		return res, code
	}

	return res, 0
}

func resolveTarget(cfg *config.Config) codegen.Target {
	switch cfg.TargetOS() {
	case "macho":
		return codegen.MachO
	default:
		return codegen.ELF
	}
}

// assemble pipes asm to a child `cc` process per spec.md §6's argument
// contract, producing the binary at binPath.
func assemble(cfg *config.Config, asm, binPath string) error {
	args := []string{"-x", "assembler", "-", "-o", binPath}
	if runtime.GOOS == "darwin" {
		args = append(args, "-arch", "x86_64")
	} else {
		args = append(args, cfg.Codegen.AssemblerArgs...)
	}

	cmd := exec.Command(cfg.Codegen.Assembler, args...) // #nosec G204 -- assembler binary comes from trusted config
	cmd.Stdin = strings.NewReader(asm)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("assembler failed: %w: %s", err, stderr.String())
	}
	return nil
}

// runBinary spawns the produced executable and returns its exit code.
func runBinary(binPath string) (int, error) {
	abs, err := filepath.Abs(binPath)
	if err != nil {
		return 0, fmt.Errorf("cannot resolve %s: %w", binPath, err)
	}
	cmd := exec.Command(abs) // #nosec G204 -- abs is the binary this process just built
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("cannot run %s: %w", binPath, err)
}
