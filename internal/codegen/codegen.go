// Package codegen walks the AST in lock-step with the ScopeTree and emits
// GNU-assembler Intel-syntax x86-64, per spec §4.4.
package codegen

import (
	"fmt"
	"strings"

	"github.com/danielcimento/yacc/internal/ast"
	"github.com/danielcimento/yacc/internal/diag"
	"github.com/danielcimento/yacc/internal/scope"
)

// Generator is a tree-walking emitter. It maintains a monotonically
// increasing label counter shared across every generated label kind, and
// advances a cursor into the ScopeTree as it descends into Scope nodes.
type Generator struct {
	root      *ast.Node
	scopeRoot *scope.Scope

	labelCounter int
	lines        []string
	warnings     []string
}

// New returns a Generator for root (the synthetic top-level Scope node
// produced by the parser) and scopeRoot (the matching root of the
// independently built ScopeTree).
func New(root *ast.Node, scopeRoot *scope.Scope) *Generator {
	return &Generator{root: root, scopeRoot: scopeRoot}
}

// Warnings returns the non-fatal diagnostics raised during Generate (a
// break/continue with no enclosing loop).
func (g *Generator) Warnings() []string { return g.warnings }

func (g *Generator) emit(format string, args ...interface{}) {
	g.lines = append(g.lines, fmt.Sprintf(format, args...))
}

func (g *Generator) nextLabel() int {
	id := g.labelCounter
	g.labelCounter++
	return id
}

// Generate produces the full assembly text for the program: the fixed
// header, the outermost scope's prologue/body/epilogue, and a final ret.
// The last value-producing top-level expression's result is left in rax.
func (g *Generator) Generate() (string, error) {
	g.emit(".intel_syntax noprefix")
	g.emit(".global main")
	g.emit("main:")

	cur := g.scopeRoot
	if err := g.gen(g.root, &cur); err != nil {
		return "", err
	}

	g.emit("\tret")
	return strings.Join(g.lines, "\n") + "\n", nil
}

// gen dispatches first on arity, then on kind within each arity tier,
// mirroring the structure of the codegen this spec is grounded on.
func (g *Generator) gen(node *ast.Node, cur **scope.Scope) error {
	switch arity(node.Kind) {
	case 4:
		return g.genQuaternary(node, cur)
	case 3:
		return g.genTernary(node, cur)
	case 2:
		return g.genBinary(node, cur)
	case 1:
		return g.genUnary(node, cur)
	default:
		return g.genNullary(node, cur)
	}
}

func arity(kind ast.Kind) int {
	switch kind {
	case ast.For:
		return 4
	case ast.Ternary, ast.If:
		return 3
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod,
		ast.Equal, ast.NotEqual, ast.Less, ast.Greater, ast.LessEq, ast.GreaterEq,
		ast.Assign, ast.While, ast.DoWhile:
		return 2
	case ast.UnaryNeg, ast.UnaryPos, ast.UnaryBitComplement, ast.UnaryBoolNot,
		ast.PreIncrement, ast.PreDecrement, ast.PostIncrement, ast.PostDecrement:
		return 1
	default:
		return 0
	}
}

func (g *Generator) genNullary(node *ast.Node, cur **scope.Scope) error {
	switch node.Kind {
	case ast.Break:
		return g.genBreak(cur)
	case ast.Continue:
		return g.genContinue(cur)
	case ast.Noop:
		return nil
	case ast.Scope:
		return g.genScope(node, cur)
	case ast.Number:
		g.emit("\tpush %d", node.Val)
		return nil
	case ast.Identifier:
		if err := g.genLval(node, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tmov rax, [rax]")
		g.emit("\tpush rax")
		return nil
	default:
		return diag.New(diag.Codegen, "unexpected arity 0 for node kind %d", node.Kind)
	}
}

// genLval emits the address of an lvalue onto the stack. Only Identifier
// nodes are valid lvalues; anything else is a fatal Codegen error.
func (g *Generator) genLval(node *ast.Node, cur **scope.Scope) error {
	if node.Kind != ast.Identifier {
		return diag.New(diag.Codegen, "expected an lvalue, found node kind %d", node.Kind)
	}

	addr, err := (*cur).Resolve(node.Name)
	if err != nil {
		return err
	}

	g.emit("\tmov rax, rbp")
	for i := 0; i < addr.ScopesUp; i++ {
		g.emit("\tmov rax, [rax]")
	}
	g.emit("\tsub rax, %d", addr.Offset)
	g.emit("\tpush rax")
	return nil
}

func (g *Generator) genUnary(node *ast.Node, cur **scope.Scope) error {
	switch node.Kind {
	case ast.UnaryNeg:
		if err := g.gen(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tneg rax")
		g.emit("\tpush rax")
	case ast.UnaryPos:
		// Coerces an lvalue to an rvalue; otherwise a no-op.
		return g.gen(node.Middle, cur)
	case ast.UnaryBitComplement:
		if err := g.gen(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tnot rax")
		g.emit("\tpush rax")
	case ast.UnaryBoolNot:
		if err := g.gen(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tcmp rax, 0")
		g.emit("\tsete al")
		g.emit("\tmovzb rax, al")
		g.emit("\tpush rax")
	case ast.PreIncrement:
		if err := g.genLval(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tmov rdi, [rax]")
		g.emit("\tinc rdi")
		g.emit("\tmov [rax], rdi")
		g.emit("\tpush rdi")
	case ast.PreDecrement:
		if err := g.genLval(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tmov rdi, [rax]")
		g.emit("\tdec rdi")
		g.emit("\tmov [rax], rdi")
		g.emit("\tpush rdi")
	case ast.PostIncrement:
		if err := g.genLval(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tpush [rax]")
		g.emit("\tmov rdi, [rax]")
		g.emit("\tinc rdi")
		g.emit("\tmov [rax], rdi")
	case ast.PostDecrement:
		if err := g.genLval(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\tpush [rax]")
		g.emit("\tmov rdi, [rax]")
		g.emit("\tdec rdi")
		g.emit("\tmov [rax], rdi")
	default:
		return diag.New(diag.Codegen, "unknown unary operation: %d", node.Kind)
	}
	return nil
}

func (g *Generator) genBinary(node *ast.Node, cur **scope.Scope) error {
	switch node.Kind {
	case ast.Assign:
		if err := g.genLval(node.Left, cur); err != nil {
			return err
		}
		if err := g.gen(node.Right, cur); err != nil {
			return err
		}
		g.emit("\tpop rdi")
		g.emit("\tpop rax")
		g.emit("\tmov [rax], rdi")
		g.emit("\tpush rdi")
		return nil

	case ast.While:
		return g.genWhile(node, cur)

	case ast.DoWhile:
		return g.genDoWhile(node, cur)
	}

	if err := g.gen(node.Left, cur); err != nil {
		return err
	}
	if err := g.gen(node.Right, cur); err != nil {
		return err
	}
	g.emit("\tpop rdi")
	g.emit("\tpop rax")

	switch node.Kind {
	case ast.Mul:
		g.emit("\tmul rdi")
	case ast.Div:
		g.emit("\tmov rdx, 0")
		g.emit("\tdiv rdi")
	case ast.Mod:
		g.emit("\tmov rdx, 0")
		g.emit("\tdiv rdi")
		// Full-width remainder: the source this compiler is grounded on
		// narrows here with `movzb rax, dl`, silently truncating any
		// result outside [0,255]. We don't replicate that.
		g.emit("\tmov rax, rdx")
	case ast.Add:
		g.emit("\tadd rax, rdi")
	case ast.Sub:
		g.emit("\tsub rax, rdi")
	case ast.Equal:
		g.emit("\tcmp rdi, rax")
		g.emit("\tsete al")
		g.emit("\tmovzb rax, al")
	case ast.NotEqual:
		g.emit("\tcmp rdi, rax")
		g.emit("\tsetne al")
		g.emit("\tmovzb rax, al")
	case ast.GreaterEq:
		g.emit("\tcmp rax, rdi")
		g.emit("\tsetge al")
		g.emit("\tmovzb rax, al")
	case ast.LessEq:
		g.emit("\tcmp rax, rdi")
		g.emit("\tsetle al")
		g.emit("\tmovzb rax, al")
	case ast.Greater:
		g.emit("\tcmp rax, rdi")
		g.emit("\tsetg al")
		g.emit("\tmovzb rax, al")
	case ast.Less:
		g.emit("\tcmp rax, rdi")
		g.emit("\tsetl al")
		g.emit("\tmovzb rax, al")
	default:
		return diag.New(diag.Codegen, "unknown binary operation: %d", node.Kind)
	}
	g.emit("\tpush rax")
	return nil
}

func (g *Generator) genWhile(node *ast.Node, cur **scope.Scope) error {
	id := g.nextLabel()
	node.BreakLabel = fmt.Sprintf("wle_%d", id)
	node.ContinueLabel = fmt.Sprintf("wlb_%d", id)

	g.emit("wlb_%d:", id)
	if err := g.gen(node.Left, cur); err != nil {
		return err
	}
	g.emit("\tpop rax")
	g.emit("\ttest rax, rax")
	g.emit("\tjz wle_%d", id)

	node.Right.Parent = node
	if err := g.gen(node.Right, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Right.Kind) {
		g.emit("\tpop rax")
	}
	g.emit("\tjmp wlb_%d", id)
	g.emit("wle_%d:", id)
	return nil
}

func (g *Generator) genDoWhile(node *ast.Node, cur **scope.Scope) error {
	id := g.nextLabel()
	node.BreakLabel = fmt.Sprintf("dwe_%d", id)
	node.ContinueLabel = fmt.Sprintf("dwc_%d", id)

	g.emit("dwb_%d:", id)
	node.Left.Parent = node
	if err := g.gen(node.Left, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Left.Kind) {
		g.emit("\tpop rax")
	}

	g.emit("dwc_%d:", id)
	if err := g.gen(node.Right, cur); err != nil {
		return err
	}
	g.emit("\tpop rax")
	g.emit("\ttest rax, rax")
	g.emit("\tjnz dwb_%d", id)
	g.emit("dwe_%d:", id)
	return nil
}

func (g *Generator) genTernary(node *ast.Node, cur **scope.Scope) error {
	id := g.nextLabel()
	switch node.Kind {
	case ast.Ternary:
		if err := g.gen(node.Left, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\ttest rax, rax")
		g.emit("\tjz cond_f_%d", id)
		if err := g.gen(node.Middle, cur); err != nil {
			return err
		}
		g.emit("\tjmp cond_end_%d", id)
		g.emit("cond_f_%d:", id)
		if err := g.gen(node.Right, cur); err != nil {
			return err
		}
		g.emit("cond_end_%d:", id)
		return nil

	case ast.If:
		if err := g.gen(node.Left, cur); err != nil {
			return err
		}
		g.emit("\tpop rax")
		g.emit("\ttest rax, rax")
		g.emit("\tjz cond_f_%d", id)
		if err := g.gen(node.Middle, cur); err != nil {
			return err
		}
		if ast.PlacesOnStack(node.Middle.Kind) {
			g.emit("\tpop rax")
		}
		g.emit("\tjmp cond_end_%d", id)
		g.emit("cond_f_%d:", id)
		if err := g.gen(node.Right, cur); err != nil {
			return err
		}
		if ast.PlacesOnStack(node.Right.Kind) {
			g.emit("\tpop rax")
		}
		g.emit("cond_end_%d:", id)
		return nil

	default:
		return diag.New(diag.Codegen, "unknown ternary operation: %d", node.Kind)
	}
}

func (g *Generator) genQuaternary(node *ast.Node, cur **scope.Scope) error {
	if node.Kind != ast.For {
		return diag.New(diag.Codegen, "unknown quaternary operation: %d", node.Kind)
	}

	id := g.nextLabel()
	node.BreakLabel = fmt.Sprintf("fle_%d", id)
	node.ContinueLabel = fmt.Sprintf("flc_%d", id)

	if err := g.gen(node.Left, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Left.Kind) {
		g.emit("\tpop rax")
	}

	g.emit("flc_%d:", id)
	if err := g.gen(node.Middle, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Middle.Kind) {
		g.emit("\tpop rax")
		g.emit("\ttest rax, rax")
		g.emit("\tjz fle_%d", id)
	}

	node.Extra.Parent = node
	if err := g.gen(node.Extra, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Extra.Kind) {
		g.emit("\tpop rax")
	}

	if err := g.gen(node.Right, cur); err != nil {
		return err
	}
	if ast.PlacesOnStack(node.Right.Kind) {
		g.emit("\tpop rax")
	}

	g.emit("\tjmp flc_%d", id)
	g.emit("fle_%d:", id)
	return nil
}

func (g *Generator) genScope(node *ast.Node, cur **scope.Scope) error {
	if node.Descend {
		next, err := (*cur).NextChild()
		if err != nil {
			return err
		}
		*cur = next
	}

	if node.Parent != nil {
		switch node.Parent.Kind {
		case ast.While, ast.DoWhile, ast.For:
			(*cur).BreakLabel = node.Parent.BreakLabel
			(*cur).ContinueLabel = node.Parent.ContinueLabel
		}
	}

	g.emit("\tpush rbp")
	g.emit("\tmov rbp, rsp")
	g.emit("\tsub rsp, %d", (*cur).NumLocals()*8)

	for _, stmt := range node.Statements {
		if err := g.gen(stmt, cur); err != nil {
			return err
		}
		if ast.PlacesOnStack(stmt.Kind) {
			g.emit("\tpop rax")
		}
	}

	g.emit("\tmov rsp, rbp")
	g.emit("\tpop rbp")

	if node.Descend {
		parent := (*cur).Parent
		*cur = parent
		parent.Advance()
	}
	return nil
}

// genBreak and genContinue walk the runtime scope chain upward, counting
// every frame that must be torn down before jumping: the scope the break
// itself executes in always counts (its frame is live), plus one more for
// each additional ancestor climbed to find a scope carrying the label. If
// no enclosing loop exists, this is a warning, not a fatal error, and the
// statement is treated as a no-op.
func (g *Generator) genBreak(cur **scope.Scope) error {
	s := *cur
	framesToUnwind := 1
	for s.BreakLabel == "" {
		if s.Parent == nil {
			g.warnings = append(g.warnings, "could not find a loop to break from, treating as a no-op")
			return nil
		}
		s = s.Parent
		framesToUnwind++
	}
	for i := 0; i < framesToUnwind; i++ {
		g.emit("\tmov rsp, rbp")
		g.emit("\tpop rbp")
	}
	g.emit("\tjmp %s", s.BreakLabel)
	return nil
}

func (g *Generator) genContinue(cur **scope.Scope) error {
	s := *cur
	framesToUnwind := 1
	for s.ContinueLabel == "" {
		if s.Parent == nil {
			g.warnings = append(g.warnings, "could not find a loop to continue from, treating as a no-op")
			return nil
		}
		s = s.Parent
		framesToUnwind++
	}
	for i := 0; i < framesToUnwind; i++ {
		g.emit("\tmov rsp, rbp")
		g.emit("\tpop rbp")
	}
	g.emit("\tjmp %s", s.ContinueLabel)
	return nil
}
