package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/danielcimento/yacc/internal/codegen"
	"github.com/danielcimento/yacc/internal/diag"
	"github.com/danielcimento/yacc/internal/parser"
	"github.com/danielcimento/yacc/internal/scope"
	"github.com/danielcimento/yacc/internal/token"
	"github.com/danielcimento/yacc/internal/utils"
)

var Description = strings.ReplaceAll(`
Yacc compiles a small C-like expression language to GNU-assembler Intel-syntax
x86-64, targeting a single entry function 'main' whose exit value is the
result of the last evaluated top-level expression.
`, "\n", " ")

var Yacc = cli.New(Description).
	WithArg(cli.NewArg("input", "The source file to be compiled").AsOptional()).
	WithOption(cli.NewOption("test", "Runs the internal self-tests of the utility containers and scope logic").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if _, enabled := options["test"]; enabled {
		return runSelfTests()
	}

	if len(args) < 1 {
		diag.Report(os.Stderr, diag.New(diag.External, "no input file given, use --help"))
		return diag.External.ExitCode()
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		diag.Report(os.Stderr, diag.New(diag.External, "cannot read input file: %s", err))
		return diag.External.ExitCode()
	}

	asm, diagErr := Compile(source, os.Stderr)
	if diagErr != nil {
		diag.Report(os.Stderr, diagErr)
		return diagErr.Kind.ExitCode()
	}

	fmt.Fprint(os.Stdout, asm)
	return 0
}

// Compile runs the full Lexer -> (ScopeBuilder, Parser) -> CodeGen
// pipeline over source and returns the generated assembly text. The scope
// tree is built before parsing so that a mismatched brace is always
// reported as the Scope error spec §7 categorizes it as, rather than
// surfacing through whichever pipeline stage happens to see it first. Non-
// fatal diagnostics (an unterminated block comment, a break/continue
// outside any loop) are printed to warnOut as they are discovered; any
// fatal condition short-circuits the pipeline and is returned as a
// *diag.Error.
func Compile(source []byte, warnOut *os.File) (string, *diag.Error) {
	lexer, err := token.NewLexer(bytes.NewReader(source))
	if err != nil {
		return "", err.(*diag.Error)
	}

	tokens, tokErr := lexer.Tokenize()
	if tokErr != nil {
		return "", tokErr.(*diag.Error)
	}
	for _, w := range lexer.Warnings() {
		diag.Warn(warnOut, "%s", w)
	}

	scopeRoot, scopeErr := scope.NewBuilder().Build(tokens)
	if scopeErr != nil {
		return "", scopeErr.(*diag.Error)
	}

	p := parser.New(tokens)
	tree, parseErr := p.ParseProgram()
	if parseErr != nil {
		return "", parseErr.(*diag.Error)
	}

	gen := codegen.New(tree, scopeRoot)
	out, genErr := gen.Generate()
	if genErr != nil {
		return "", genErr.(*diag.Error)
	}
	for _, w := range gen.Warnings() {
		diag.Warn(warnOut, "%s", w)
	}

	return out, nil
}

func runSelfTests() int {
	if err := utils.RunSelfTests(); err != nil {
		fmt.Fprintf(os.Stderr, "self-test failed: %s\n", err)
		return diag.External.ExitCode()
	}
	if err := scope.RunSelfTests(); err != nil {
		fmt.Fprintf(os.Stderr, "self-test failed: %s\n", err)
		return diag.External.ExitCode()
	}
	fmt.Fprintln(os.Stdout, "all self-tests passed")
	return 0
}

func main() { os.Exit(Yacc.Run(os.Args, os.Stdout)) }
