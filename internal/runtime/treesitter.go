package runtime

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/RohanNethala/enclosing/internal/syntax"
)

// TreeSitter parses Python in-process with the tree-sitter grammar. The
// grammar accepts some input CPython rejects, such as Python 2 print
// statements or a block with no indented body, so a nil error here means
// "tree-sitter found no ERROR node", not "the interpreter would accept it".
type TreeSitter struct{}

// NewTreeSitter returns the in-process tree-sitter backend.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Name implements syntax.Backend.
func (*TreeSitter) Name() string { return "treesitter" }

// Parse implements syntax.Backend. Only named nodes are kept. The root
// module node gets no span, like Python's ast.Module, so a query is never
// answered with "the whole file".
func (*TreeSitter) Parse(ctx context.Context, src []byte) (*syntax.Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("runtime: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, diagnose(root)
	}

	out := convert(root)
	out.Span = nil
	return out, nil
}

func convert(n *sitter.Node) *syntax.Node {
	sp := spanOf(n)
	out := &syntax.Node{Kind: n.Type(), Span: &sp}

	count := int(n.NamedChildCount())
	if count == 0 {
		return out
	}
	out.Children = make([]*syntax.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := n.NamedChild(i); child != nil {
			out.Children = append(out.Children, convert(child))
		}
	}
	return out
}

// spanOf converts tree-sitter's 0-based points to 1-based lines. A node
// ending at column 0 of a later row stops on the previous line.
func spanOf(n *sitter.Node) syntax.Span {
	start, end := n.StartPoint(), n.EndPoint()
	sp := syntax.Span{Start: int(start.Row) + 1, End: int(end.Row) + 1}
	if end.Column == 0 && end.Row > start.Row {
		sp.End--
	}
	return sp
}

// diagnose reports the first ERROR or missing node in pre-order.
func diagnose(root *sitter.Node) *syntax.SyntaxError {
	bad := firstError(root)
	if bad == nil {
		return &syntax.SyntaxError{Msg: "invalid syntax"}
	}

	pt := bad.StartPoint()
	serr := &syntax.SyntaxError{
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		Msg:    "invalid syntax",
	}
	if bad.IsMissing() {
		serr.Msg = fmt.Sprintf("missing %q", bad.Type())
	}
	return serr
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}
