// Command toyc compiles a ToyC source file (or reparses an IR text
// file) down to RISC-V32 assembly, following the pipeline lexer ->
// parser -> irgen -> riscv, with the intermediate stages available for
// inspection via debug flags.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/ir"
	"github.com/kmanley/toyc/pkg/irgen"
	"github.com/kmanley/toyc/pkg/irtext"
	"github.com/kmanley/toyc/pkg/lexer"
	"github.com/kmanley/toyc/pkg/parser"
	"github.com/kmanley/toyc/pkg/riscv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Mode flags, one variable per --flag, matching the teacher's
// dParse/dAsm-style boolean-per-flag pattern.
var (
	astFlag   bool
	irFlag    bool
	asmFlag   bool
	allFlag   bool
	outputArg string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "toyc [file]",
		Short:         "toyc compiles ToyC source to RISC-V32 assembly",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return compile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&astFlag, "ast", false, "print the AST")
	rootCmd.Flags().BoolVar(&irFlag, "ir", false, "print LLVM IR text")
	rootCmd.Flags().BoolVar(&asmFlag, "asm", false, "print RISC-V assembly (default when no mode flag)")
	rootCmd.Flags().BoolVar(&allFlag, "all", false, "print all three")
	rootCmd.Flags().StringVarP(&outputArg, "output", "o", "", "write assembly to FILE")

	return rootCmd
}

// compile drives the whole pipeline for one input file and writes
// whatever the mode flags request to out.
func compile(filename string, out, errOut io.Writer) error {
	prog, mod, err := loadInput(filename, errOut)
	if err != nil {
		return err
	}

	printAST, printIR, printAsm := astFlag, irFlag, asmFlag
	if allFlag {
		printAST, printIR, printAsm = true, true, true
	}
	if !printAST && !printIR && !printAsm {
		printAsm = true
	}

	first := true
	sep := func() {
		if !first {
			fmt.Fprintln(out)
		}
		first = false
	}

	if printAST {
		sep()
		if prog == nil {
			fmt.Fprintf(errOut, "toyc: ast: %s has no AST, it was read as IR text\n", filename)
			return errNoAST
		}
		ast.NewPrinter(out).PrintProgram(prog)
	}

	if printIR {
		sep()
		fmt.Fprint(out, mod.String())
	}

	if printAsm {
		sep()
		asm := riscv.New().Generate(mod)
		fmt.Fprint(out, asm)
		if outputArg != "" {
			if err := os.WriteFile(outputArg, []byte(asm), 0o644); err != nil {
				fmt.Fprintf(errOut, "toyc: write %s: %v\n", outputArg, err)
				return err
			}
		}
	}

	return nil
}

var errNoAST = fmt.Errorf("no AST available for IR text input")

// loadInput reads filename and builds an ir.Module for it. Source files
// (any extension other than .ll) are lexed, parsed, and lowered through
// irgen; .ll files are reparsed directly by irtext, in which case prog
// is nil since no ToyC AST was ever built.
func loadInput(filename string, errOut io.Writer) (*ast.Program, *ir.Module, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "toyc: read %s: %v\n", filename, err)
		return nil, nil, err
	}

	name := moduleName(filename)

	if strings.HasSuffix(filename, ".ll") {
		mod := irtext.Parse(string(content))
		return nil, mod, nil
	}

	l := lexer.New(string(content))
	p := parser.New(l)
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return nil, nil, fmt.Errorf("parsing failed with %d errors", len(p.Errors()))
	}

	mod := irgen.New().BuildModule(prog, name, filename)
	return prog, mod, nil
}

// moduleName derives a module identifier from an input path: the base
// name with its extension stripped.
func moduleName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
