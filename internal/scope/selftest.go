package scope

import (
	"fmt"

	"github.com/danielcimento/yacc/internal/token"
)

// RunSelfTests exercises scope-tree construction and resolution for the
// CLI's `-test` flag, alongside utils.RunSelfTests.
func RunSelfTests() error {
	if err := testBuildAndResolve(); err != nil {
		return err
	}
	if err := testMismatchedBraces(); err != nil {
		return err
	}
	if err := testIdempotentDeclaration(); err != nil {
		return err
	}
	return nil
}

func testBuildAndResolve() error {
	// a; { b; }
	toks := []token.Token{
		{Kind: token.IDENT, Name: "a"},
		{Kind: token.SEMI},
		{Kind: token.LBRACE},
		{Kind: token.IDENT, Name: "b"},
		{Kind: token.SEMI},
		{Kind: token.RBRACE},
		{Kind: token.EOF},
	}

	root, err := NewBuilder().Build(toks)
	if err != nil {
		return fmt.Errorf("scope build: %w", err)
	}
	if root.NumLocals() != 1 {
		return fmt.Errorf("scope build: expected 1 local in root, got %d", root.NumLocals())
	}
	if len(root.Children) != 1 {
		return fmt.Errorf("scope build: expected 1 child scope, got %d", len(root.Children))
	}

	child, err := root.NextChild()
	if err != nil {
		return fmt.Errorf("scope build: %w", err)
	}
	if child.NumLocals() != 1 {
		return fmt.Errorf("scope build: expected 1 local in child, got %d", child.NumLocals())
	}

	addr, err := child.Resolve("a")
	if err != nil {
		return fmt.Errorf("scope resolve: %w", err)
	}
	if addr.ScopesUp != 1 {
		return fmt.Errorf("scope resolve: expected 'a' 1 scope up, got %d", addr.ScopesUp)
	}

	if _, err := child.Resolve("nope"); err == nil {
		return fmt.Errorf("scope resolve: expected error resolving undeclared variable")
	}
	return nil
}

func testMismatchedBraces() error {
	unopened := []token.Token{{Kind: token.RBRACE}, {Kind: token.EOF}}
	if _, err := NewBuilder().Build(unopened); err == nil {
		return fmt.Errorf("scope build: expected error on unexpected '}'")
	}

	unclosed := []token.Token{{Kind: token.LBRACE}, {Kind: token.EOF}}
	if _, err := NewBuilder().Build(unclosed); err == nil {
		return fmt.Errorf("scope build: expected error on missing '}'")
	}
	return nil
}

func testIdempotentDeclaration() error {
	toks := []token.Token{
		{Kind: token.IDENT, Name: "a"},
		{Kind: token.IDENT, Name: "a"},
		{Kind: token.IDENT, Name: "b"},
		{Kind: token.EOF},
	}
	root, err := NewBuilder().Build(toks)
	if err != nil {
		return fmt.Errorf("scope build: %w", err)
	}
	if root.NumLocals() != 2 {
		return fmt.Errorf("scope build: expected 2 locals after redeclaring 'a', got %d", root.NumLocals())
	}
	return nil
}
