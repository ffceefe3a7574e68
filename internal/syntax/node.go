// Package syntax holds the backend-neutral tree shape produced by parse
// backends and the enclosing-span reduction run over it.
package syntax

import (
	"context"
	"fmt"
)

// Span is an inclusive, 1-indexed line range occupied by a construct.
type Span struct {
	Start int
	End   int
}

// Width returns End - Start. A single-line construct has width 0.
func (s Span) Width() int {
	return s.End - s.Start
}

// Contains reports whether the line range [start, end] lies fully inside s.
func (s Span) Contains(start, end int) bool {
	return s.Start <= start && end <= s.End
}

// Node is one construct of a parsed file. Span is nil for constructs that
// carry no line information (the module root, expression contexts, ...).
type Node struct {
	Kind     string
	Span     *Span
	Children []*Node
}

// Walk visits n and all of its descendants in pre-order. Returning false
// from fn stops the walk.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			return
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Backend turns source text into a tree. Implementations return a
// *SyntaxError when the text does not parse and any other error when the
// parser itself could not be run.
type Backend interface {
	Name() string
	Parse(ctx context.Context, src []byte) (*Node, error)
}

// SyntaxError reports input that does not conform to the grammar.
// Line and Column are 1-indexed; zero means unknown.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s (line %d, column %d)", e.Msg, e.Line, e.Column)
	case e.Line > 0:
		return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
	default:
		return e.Msg
	}
}
