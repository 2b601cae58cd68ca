package codegen

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/danielcimento/yacc/internal/ast"
	"github.com/danielcimento/yacc/internal/diag"
	"github.com/danielcimento/yacc/internal/parser"
	"github.com/danielcimento/yacc/internal/scope"
	"github.com/danielcimento/yacc/internal/token"
)

func compile(t *testing.T, src string) (string, error) {
	t.Helper()
	lexer, err := token.NewLexer(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	toks, err := lexer.Tokenize()
	if err != nil {
		return "", err
	}

	tree, err := parser.New(toks).ParseProgram()
	if err != nil {
		return "", err
	}

	scopeRoot, err := scope.NewBuilder().Build(toks)
	if err != nil {
		return "", err
	}

	return New(tree, scopeRoot).Generate()
}

func mustCompile(t *testing.T, src string) string {
	t.Helper()
	out, err := compile(t, src)
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	return out
}

// simulateStackDelta abstractly models the net stack-pointer delta over an
// instruction stream: `push` is -1, `pop` is +1 (in word units), matching
// invariant 1 from spec §8 ("the net stack delta from main: to ret is
// zero"). rbp/rsp frame bookkeeping (push rbp / pop rbp) is symmetric by
// construction and folds in the same way.
func simulateStackDelta(asm string) int {
	delta := 0
	for _, line := range strings.Split(asm, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "push"):
			delta--
		case strings.HasPrefix(line, "pop"):
			delta++
		}
	}
	return delta
}

func TestStackBalanceAcrossScenarios(t *testing.T) {
	scenarios := []string{
		"42;",
		"5 + 20 - 4;",
		"2 * (3 + 4);",
		"a = 3; b = 4; a * b;",
		"i = 0; while (i < 5) i = i + 1; i;",
		"x = 10; if (x == 10) x = 1; else x = 2; x;",
		"s = 0; for (i = 1; i <= 3; i = i + 1) s = s + i; s;",
	}
	for _, src := range scenarios {
		t.Run(src, func(t *testing.T) {
			asm := mustCompile(t, src)
			if delta := simulateStackDelta(asm); delta != 0 {
				t.Errorf("unbalanced stack for %q: net delta %d\n%s", src, delta, asm)
			}
		})
	}
}

func TestOutputStructure(t *testing.T) {
	asm := mustCompile(t, "1;")
	if !strings.HasPrefix(asm, ".intel_syntax noprefix\n.global main\nmain:\n") {
		t.Fatalf("unexpected header: %s", asm)
	}
	if !strings.HasSuffix(strings.TrimRight(asm, "\n"), "ret") {
		t.Fatalf("expected assembly to end in ret: %s", asm)
	}
}

func TestLabelCounterIsStrictlyIncreasing(t *testing.T) {
	asm := mustCompile(t, "if (1) 1; if (2) 2; if (3) 3;")
	re := regexp.MustCompile(`cond_f_(\d+):`)
	matches := re.FindAllStringSubmatch(asm, -1)
	if len(matches) != 3 {
		t.Fatalf("expected 3 cond_f_ labels, got %d: %v", len(matches), matches)
	}
	prev := -1
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("unexpected label suffix %q: %v", m[1], err)
		}
		if n <= prev {
			t.Fatalf("expected strictly increasing label ids, got %v", matches)
		}
		prev = n
	}
}

func TestModUsesFullWidthRemainder(t *testing.T) {
	asm := mustCompile(t, "7 % 2;")
	if strings.Contains(asm, "movzb rax, dl") {
		t.Fatalf("expected the full-width remainder fix, not the truncating original: %s", asm)
	}
	if !strings.Contains(asm, "mov rax, rdx") {
		t.Fatalf("expected 'mov rax, rdx' to surface the full remainder: %s", asm)
	}
}

func TestAssignToNonIdentifierIsCodegenError(t *testing.T) {
	_, err := compile(t, "(1+2) = 3;")
	if err == nil {
		t.Fatal("expected a codegen error assigning to a non-lvalue")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.Codegen {
		t.Fatalf("expected a *diag.Error of Kind Codegen, got %T: %v", err, err)
	}
}

func TestBreakOutsideLoopWarnsAndIsNoop(t *testing.T) {
	asm, err := compile(t, "break;")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if strings.Contains(asm, "jmp") {
		t.Fatalf("expected no jmp to be emitted for an unreachable break: %s", asm)
	}
}

func TestPlacesOnStackDispatch(t *testing.T) {
	cases := []struct {
		kind ast.Kind
		want bool
	}{
		{ast.Number, true},
		{ast.Add, true},
		{ast.Assign, true},
		{ast.Scope, false},
		{ast.While, false},
		{ast.If, false},
		{ast.For, false},
		{ast.Break, false},
		{ast.Continue, false},
		{ast.Noop, false},
	}
	for _, c := range cases {
		if got := ast.PlacesOnStack(c.kind); got != c.want {
			t.Errorf("PlacesOnStack(%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}
