package syntax

import "fmt"

// Strategy selects among the nodes whose span contains a query range.
type Strategy int

const (
	// Widest picks the containing node with the largest span.
	Widest Strategy = iota
	// Narrowest picks the containing node with the smallest span.
	Narrowest
)

func (s Strategy) String() string {
	switch s {
	case Widest:
		return "widest"
	case Narrowest:
		return "narrowest"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "widest" / "narrowest" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "widest":
		return Widest, nil
	case "narrowest":
		return Narrowest, nil
	default:
		return Widest, fmt.Errorf("syntax: unknown strategy %q (want widest|narrowest)", name)
	}
}

// Enclosing returns the node under root whose span contains [start, end],
// chosen by strategy. Only nodes with a span that pass accept (when non-nil)
// are eligible. Among equal widths the first node in pre-order wins.
// Returns nil when start < 1, start > end, or nothing qualifies.
func Enclosing(root *Node, start, end int, strategy Strategy, accept func(*Node) bool) *Node {
	if start < 1 || start > end {
		return nil
	}

	var best *Node
	Walk(root, func(n *Node) bool {
		if n.Span == nil || !n.Span.Contains(start, end) {
			return true
		}
		if accept != nil && !accept(n) {
			return true
		}
		if best == nil || better(strategy, n.Span.Width(), best.Span.Width()) {
			best = n
		}
		return true
	})
	return best
}

func better(strategy Strategy, candidate, current int) bool {
	if strategy == Narrowest {
		return candidate < current
	}
	return candidate > current
}
