// Package runtime hosts the in-process machinery: the tree-sitter Python
// backend and the embedded Risor VM used for node eligibility predicates.
package runtime

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// Predicate is a Risor expression deciding whether a containing node is
// eligible. It sees three globals: kind (string), start_line and end_line
// (int), and must evaluate to a bool.
type Predicate struct {
	source string
	label  string
}

// NewPredicate compiles source by evaluating it once against a sample node,
// rejecting syntax errors and non-bool results up front.
func NewPredicate(ctx context.Context, source string) (*Predicate, error) {
	return newPredicate(ctx, source, "<inline>")
}

// LoadPredicate reads a .risor file from disk and compiles it like
// NewPredicate.
func LoadPredicate(ctx context.Context, path string) (*Predicate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading predicate %s: %w", path, err)
	}
	return newPredicate(ctx, string(data), path)
}

func newPredicate(ctx context.Context, source, label string) (*Predicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("runtime: predicate %s is empty", label)
	}
	p := &Predicate{source: source, label: label}
	if _, err := p.Eval(ctx, "module", 1, 1); err != nil {
		return nil, err
	}
	return p, nil
}

// Source returns the expression text.
func (p *Predicate) Source() string {
	return p.source
}

// Eval runs the predicate for one node.
func (p *Predicate) Eval(ctx context.Context, kind string, startLine, endLine int) (bool, error) {
	result, err := risor.Eval(ctx, p.source,
		risor.WithGlobal("kind", object.NewString(kind)),
		risor.WithGlobal("start_line", object.NewInt(int64(startLine))),
		risor.WithGlobal("end_line", object.NewInt(int64(endLine))),
	)
	if err != nil {
		return false, fmt.Errorf("runtime: predicate %s: %w", p.label, err)
	}

	b, ok := result.(*object.Bool)
	if !ok {
		return false, fmt.Errorf("runtime: predicate %s returned %s, want bool", p.label, result.Type())
	}
	return b.Value(), nil
}
