// Package pyast parses Python with CPython's own ast module by running the
// interpreter as a subprocess. Source goes over stdin and arguments are
// passed as argv entries, never through a shell.
package pyast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/RohanNethala/enclosing/internal/syntax"
	"github.com/RohanNethala/enclosing/scripts"
)

// DefaultInterpreter is looked up on PATH when no interpreter is configured.
const DefaultInterpreter = "python3"

// Backend runs scripts/python/astdump.py under a Python interpreter.
type Backend struct {
	interpreter string
	script      string
}

// Option configures a Backend.
type Option func(*Backend)

// WithInterpreter sets the Python executable. Empty keeps the default.
func WithInterpreter(path string) Option {
	return func(b *Backend) {
		if path != "" {
			b.interpreter = path
		}
	}
}

// New returns a Backend running the embedded dump script.
func New(opts ...Option) *Backend {
	b := &Backend{
		interpreter: DefaultInterpreter,
		script:      scripts.ASTDump,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements syntax.Backend.
func (*Backend) Name() string { return "python" }

// Interpreter returns the configured Python executable.
func (b *Backend) Interpreter() string { return b.interpreter }

// Parse implements syntax.Backend. Node kinds are ast class names.
func (b *Backend) Parse(ctx context.Context, src []byte) (*syntax.Node, error) {
	out, err := b.run(ctx, "walk", src)
	if err != nil {
		return nil, err
	}
	return decode(out)
}

// Check parses src and discards the tree. A source that does not parse
// yields a *syntax.SyntaxError carrying CPython's message.
func (b *Backend) Check(ctx context.Context, src []byte) error {
	out, err := b.run(ctx, "check", src)
	if err != nil {
		return err
	}

	line := strings.TrimSpace(string(out))
	switch {
	case line == "Valid":
		return nil
	case strings.HasPrefix(line, "Invalid: "):
		return &syntax.SyntaxError{Msg: strings.TrimPrefix(line, "Invalid: ")}
	default:
		return fmt.Errorf("pyast: unexpected check output %q", line)
	}
}

func (b *Backend) run(ctx context.Context, mode string, src []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, b.interpreter, "-c", b.script, mode)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pyast: %s %s: %w: %s", b.interpreter, mode, err, msg)
		}
		return nil, fmt.Errorf("pyast: %s %s: %w", b.interpreter, mode, err)
	}
	return stdout.Bytes(), nil
}

// lastLine returns the final non-empty line of a traceback.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

type dump struct {
	Nodes  []dumpNode `json:"nodes"`
	Error  *string    `json:"error"`
	Line   int        `json:"line"`
	Column int        `json:"column"`
}

type dumpNode struct {
	Kind   string `json:"kind"`
	Start  *int   `json:"start"`
	End    *int   `json:"end"`
	Parent int    `json:"parent"`
}

// decode rebuilds the tree from the flat pre-order list written by the
// dump script. Every parent index must precede its child.
func decode(data []byte) (*syntax.Node, error) {
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("pyast: decoding dump: %w", err)
	}
	if d.Error != nil {
		return nil, &syntax.SyntaxError{Line: d.Line, Column: d.Column, Msg: *d.Error}
	}
	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("pyast: dump contains no nodes")
	}

	nodes := make([]*syntax.Node, len(d.Nodes))
	for i, dn := range d.Nodes {
		n := &syntax.Node{Kind: dn.Kind}
		if dn.Start != nil && dn.End != nil {
			n.Span = &syntax.Span{Start: *dn.Start, End: *dn.End}
		}
		nodes[i] = n

		if i == 0 {
			if dn.Parent != -1 {
				return nil, fmt.Errorf("pyast: root node has parent %d", dn.Parent)
			}
			continue
		}
		if dn.Parent < 0 || dn.Parent >= i {
			return nil, fmt.Errorf("pyast: node %d has out-of-order parent %d", i, dn.Parent)
		}
		parent := nodes[dn.Parent]
		parent.Children = append(parent.Children, n)
	}
	return nodes[0], nil
}
