// Command minic is a small C subset compiler producing x86-64 assembly,
// the sole package main of the module; all orchestration lives in
// the driver package.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/go-minic/minic/config"
	"github.com/go-minic/minic/driver"
)

var (
	flagLex       bool
	flagParse     bool
	flagValidate  bool
	flagTacky     bool
	flagCodegen   bool
	flagEmitAsm   bool
	flagDumpToken bool
	flagDumpAST   string
	flagDumpTacky string
	flagQuiet     bool
	flagRun       bool
	flagConfig    string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minic <input.c>",
		Short: "A small C subset compiler targeting x86-64 AT&T assembly",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}

	cmd.Flags().BoolVar(&flagLex, "lex", false, "stop after lexing")
	cmd.Flags().BoolVar(&flagParse, "parse", false, "stop after parsing")
	cmd.Flags().BoolVar(&flagValidate, "validate", false, "stop after semantic validation")
	cmd.Flags().BoolVar(&flagTacky, "tacky", false, "stop after TAC generation")
	cmd.Flags().BoolVar(&flagCodegen, "codegen", false, "stop after assembly generation")
	cmd.Flags().BoolVarP(&flagEmitAsm, "S", "S", false, "emit assembly (.s) instead of linking a binary")
	cmd.Flags().BoolVar(&flagDumpToken, "dump-tokens", false, "dump the token stream")
	cmd.Flags().StringVar(&flagDumpAST, "dump-ast", "", "dump the AST (txt|json|dot)")
	cmd.Flags().Lookup("dump-ast").NoOptDefVal = "txt"
	cmd.Flags().StringVar(&flagDumpTacky, "dump-tacky", "", "dump the TAC (txt|json)")
	cmd.Flags().Lookup("dump-tacky").NoOptDefVal = "txt"
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress non-fatal lint diagnostics")
	cmd.Flags().BoolVar(&flagRun, "run", false, "run the produced binary after a successful build")
	cmd.Flags().StringVar(&flagConfig, "config", "", "path to a minic.toml configuration file")

	cmd.MarkFlagsMutuallyExclusive("lex", "parse", "validate", "tacky", "codegen")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := driver.Options{
		Stage:       stageFromFlags(),
		EmitAsmOnly: flagEmitAsm,
		DumpTokens:  flagDumpToken,
		DumpAST:     driver.DumpFormat(flagDumpAST),
		DumpTacky:   driver.DumpFormat(flagDumpTacky),
		Quiet:       flagQuiet || cfg.Driver.Quiet,
		Run:         flagRun || cfg.Driver.RunAfterBuild,
		Config:      cfg,
	}

	_, exitCode := driver.Pipeline(args[0], opts)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFrom(flagConfig)
	}
	return config.Load()
}

func stageFromFlags() driver.Stage {
	switch {
	case flagLex:
		return driver.StageLex
	case flagParse:
		return driver.StageParse
	case flagValidate:
		return driver.StageValidate
	case flagTacky:
		return driver.StageTacky
	case flagCodegen:
		return driver.StageCodegen
	default:
		return driver.StageFull
	}
}
