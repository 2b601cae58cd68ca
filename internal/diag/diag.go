// Package diag defines the compiler's typed error taxonomy and renders
// diagnostics to a writer with severity-colored prefixes.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Kind partitions fatal diagnostics into the five disjoint categories the
// compiler can raise. Each maps to a distinct process exit code.
type Kind int

const (
	Tokenize Kind = iota + 1
	Parse
	Scope
	Codegen
	External
)

// ExitCode is the process exit status associated with a Kind, per spec.
func (k Kind) ExitCode() int {
	switch k {
	case Tokenize:
		return 1
	case Parse:
		return 2
	case Codegen:
		return 3
	case Scope:
		return 4
	case External:
		return 5
	default:
		return 5
	}
}

func (k Kind) String() string {
	switch k {
	case Tokenize:
		return "tokenize error"
	case Parse:
		return "parse error"
	case Scope:
		return "scope error"
	case Codegen:
		return "codegen error"
	case External:
		return "external error"
	default:
		return "error"
	}
}

// Error is a fatal, typed compiler diagnostic. Exactly one Kind applies; the
// process exits with Kind.ExitCode() once an Error reaches the CLI layer.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// New builds an *Error of the given Kind with a printf-style message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	errColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
)

// Report prints a fatal Error to w, prefixed in red with its kind.
func Report(w io.Writer, err *Error) {
	errColor.Fprint(w, "error: ")
	fmt.Fprintf(w, "%s: %s\n", err.Kind, err.Message)
}

// Warn prints a non-fatal diagnostic to w, prefixed in yellow. Used for the
// two carve-outs the spec keeps non-fatal: an unterminated block comment at
// EOF, and a break/continue with no enclosing loop.
func Warn(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprint(w, "warning: ")
	fmt.Fprintf(w, format+"\n", args...)
}
