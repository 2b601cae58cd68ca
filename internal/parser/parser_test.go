package parser

import (
	"strings"
	"testing"

	"github.com/danielcimento/yacc/internal/ast"
	"github.com/danielcimento/yacc/internal/token"
)

func parse(t *testing.T, src string) *ast.Node {
	t.Helper()
	lexer, err := token.NewLexer(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	toks, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	prog, err := New(toks).ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram(%q): %v", src, err)
	}
	return prog
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	lexer, err := token.NewLexer(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	toks, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	_, err = New(toks).ParseProgram()
	return err
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog := parse(t, "1 + 2 * 3;")
	add := prog.Statements[0]
	if add.Kind != ast.Add {
		t.Fatalf("expected top-level Add, got %v", add.Kind)
	}
	if add.Right.Kind != ast.Mul {
		t.Fatalf("expected '2 * 3' to bind tighter than '+', got %v", add.Right.Kind)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parse(t, "x = y = 1;")
	assign := prog.Statements[0]
	if assign.Kind != ast.Assign || assign.Left.Name != "x" {
		t.Fatalf("expected outer assign to 'x', got %+v", assign)
	}
	inner := assign.Right
	if inner.Kind != ast.Assign || inner.Left.Name != "y" {
		t.Fatalf("expected inner assign to 'y', got %+v", inner)
	}
}

func TestParseTernary(t *testing.T) {
	prog := parse(t, "a ? b : c;")
	node := prog.Statements[0]
	if node.Kind != ast.Ternary {
		t.Fatalf("expected Ternary, got %v", node.Kind)
	}
	if node.Left.Name != "a" || node.Middle.Name != "b" || node.Right.Name != "c" {
		t.Fatalf("unexpected ternary operands: %+v", node)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, "if (x) y; else z;")
	node := prog.Statements[0]
	if node.Kind != ast.If {
		t.Fatalf("expected If, got %v", node.Kind)
	}
	if node.Right.Kind != ast.Identifier || node.Right.Name != "z" {
		t.Fatalf("expected else branch 'z', got %+v", node.Right)
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	prog := parse(t, "if (x) y;")
	node := prog.Statements[0]
	if node.Right.Kind != ast.Noop {
		t.Fatalf("expected a Noop else branch, got %v", node.Right.Kind)
	}
}

func TestParseForWithEmptyClauses(t *testing.T) {
	prog := parse(t, "for (;;) x;")
	node := prog.Statements[0]
	if node.Kind != ast.For {
		t.Fatalf("expected For, got %v", node.Kind)
	}
	if node.Left.Kind != ast.Noop || node.Middle.Kind != ast.Noop || node.Right.Kind != ast.Noop {
		t.Fatalf("expected all empty For clauses to be Noop, got %+v", node)
	}
}

func TestParseBlockNesting(t *testing.T) {
	prog := parse(t, "{ x; { y; } }")
	block := prog.Statements[0]
	if block.Kind != ast.Scope || !block.Descend {
		t.Fatalf("expected a descending Scope, got %+v", block)
	}
	if len(block.Statements) != 2 {
		t.Fatalf("expected 2 statements in block, got %d", len(block.Statements))
	}
	inner := block.Statements[1]
	if inner.Kind != ast.Scope || !inner.Descend {
		t.Fatalf("expected nested block to be a descending Scope, got %+v", inner)
	}
}

func TestParsePreAndPostIncDec(t *testing.T) {
	prog := parse(t, "++x; x++; --x; x--;")
	wantKinds := []ast.Kind{ast.PreIncrement, ast.PostIncrement, ast.PreDecrement, ast.PostDecrement}
	for i, want := range wantKinds {
		if got := prog.Statements[i].Kind; got != want {
			t.Errorf("statement %d: got %v, want %v", i, got, want)
		}
	}
}

func TestParseErrorMissingSemicolon(t *testing.T) {
	if err := parseErr(t, "x = 1"); err == nil {
		t.Fatal("expected a parse error for a missing semicolon")
	}
}

func TestParseErrorUnclosedBlock(t *testing.T) {
	if err := parseErr(t, "{ x;"); err == nil {
		t.Fatal("expected a parse error for an unclosed block")
	}
}

func TestParseErrorMissingTernaryColon(t *testing.T) {
	if err := parseErr(t, "a ? b;"); err == nil {
		t.Fatal("expected a parse error for a ternary missing ':'")
	}
}

func TestParseErrorGotoRejected(t *testing.T) {
	if err := parseErr(t, "goto done;"); err == nil {
		t.Fatal("expected a parse error rejecting 'goto'")
	}
}

func TestParseErrorLabelRejected(t *testing.T) {
	if err := parseErr(t, "done: x;"); err == nil {
		t.Fatal("expected a parse error rejecting a label")
	}
}

func TestParseParenthesizedAssignment(t *testing.T) {
	// Deliberately more permissive than a precedence-12-only parenthesized
	// grammar: assignment is allowed inside parens.
	prog := parse(t, "(x = 1) + 2;")
	add := prog.Statements[0]
	if add.Kind != ast.Add {
		t.Fatalf("expected Add, got %v", add.Kind)
	}
	if add.Left.Kind != ast.Assign {
		t.Fatalf("expected parenthesized assign on the left, got %v", add.Left.Kind)
	}
}
