package enclosing

import (
	"context"

	"github.com/RohanNethala/enclosing/internal/runtime"
	"github.com/RohanNethala/enclosing/internal/syntax"
)

// Public type aliases for the internal tree and backend types. These are Go
// type aliases (=), so no conversion is needed at the package boundary.

type Backend = syntax.Backend
type Node = syntax.Node
type Span = syntax.Span
type SyntaxError = syntax.SyntaxError
type Strategy = syntax.Strategy
type Predicate = runtime.Predicate

const (
	Widest    = syntax.Widest
	Narrowest = syntax.Narrowest
)

// LineRange is a 1-indexed, inclusive range of lines, as in a diff hunk.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the range is well formed: 1 <= Start <= End.
func (r LineRange) Valid() bool {
	return r.Start >= 1 && r.Start <= r.End
}

// EnclosingContext describes the construct found for a LineRange. It is a
// copy; the parsed tree is discarded once the query returns.
type EnclosingContext struct {
	Kind      string `json:"type"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// ValidationResult is the outcome of a dry-run parse. Error is empty when
// Valid is true.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// Parser is the per-language capability the dispatcher selects by file.
type Parser interface {
	FindEnclosingContext(ctx context.Context, source string, r LineRange) *EnclosingContext
	Validate(ctx context.Context, source string) ValidationResult
}

// Compile-time check: *PythonParser satisfies Parser.
var _ Parser = (*PythonParser)(nil)
