package enclosing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/RohanNethala/enclosing/internal/pyast"
	"github.com/RohanNethala/enclosing/internal/runtime"
	"github.com/RohanNethala/enclosing/internal/syntax"
)

// PythonParser answers enclosing-context and validation queries for Python
// source. It holds configuration only and is safe for concurrent use.
type PythonParser struct {
	backend   Backend
	strategy  Strategy
	kinds     []string
	predicate *Predicate
	logger    *slog.Logger
}

// Option configures a PythonParser.
type Option func(*PythonParser)

// WithBackend sets the parse backend. The default is PythonBackend with
// python3 from PATH.
func WithBackend(b Backend) Option {
	return func(p *PythonParser) {
		if b != nil {
			p.backend = b
		}
	}
}

// WithStrategy chooses between the widest (default) and narrowest
// containing node.
func WithStrategy(s Strategy) Option {
	return func(p *PythonParser) {
		p.strategy = s
	}
}

// WithKinds restricts eligible nodes to the given kinds. No kinds means no
// restriction.
func WithKinds(kinds ...string) Option {
	return func(p *PythonParser) {
		p.kinds = append([]string(nil), kinds...)
	}
}

// WithPredicate adds a Risor eligibility predicate, applied after WithKinds.
func WithPredicate(pred *Predicate) Option {
	return func(p *PythonParser) {
		p.predicate = pred
	}
}

// WithLogger sets the logger receiving absorbed failures. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *PythonParser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPythonParser creates a PythonParser. Without options it parses with
// CPython's ast module and returns the widest containing node.
func NewPythonParser(opts ...Option) *PythonParser {
	p := &PythonParser{
		backend:  PythonBackend(""),
		strategy: Widest,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Backend returns the configured parse backend.
func (p *PythonParser) Backend() Backend {
	return p.backend
}

// FindEnclosingContext parses source and returns the node whose span
// contains r, chosen by the configured strategy. It returns nil when r is
// not a valid range, when nothing contains it, or when parsing fails for any
// reason.
func (p *PythonParser) FindEnclosingContext(ctx context.Context, source string, r LineRange) (ec *EnclosingContext) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("enclosing: find panicked",
				slog.String("backend", p.backend.Name()),
				slog.Any("panic", rec))
			ec = nil
		}
	}()

	if !r.Valid() {
		p.logger.Debug("enclosing: invalid line range",
			slog.Int("start", r.Start), slog.Int("end", r.End))
		return nil
	}

	started := time.Now()
	root, err := p.backend.Parse(ctx, []byte(source))
	if err != nil {
		p.logger.Warn("enclosing: error parsing Python file",
			slog.String("backend", p.backend.Name()),
			slog.String("error", err.Error()))
		return nil
	}

	node := syntax.Enclosing(root, r.Start, r.End, p.strategy, p.accept(ctx))
	p.logger.Debug("enclosing: find",
		slog.String("backend", p.backend.Name()),
		slog.String("strategy", p.strategy.String()),
		slog.Int("start", r.Start),
		slog.Int("end", r.End),
		slog.Bool("found", node != nil),
		slog.Duration("elapsed", time.Since(started)))
	if node == nil {
		return nil
	}
	return &EnclosingContext{
		Kind:      node.Kind,
		StartLine: node.Span.Start,
		EndLine:   node.Span.End,
	}
}

func (p *PythonParser) accept(ctx context.Context) func(*Node) bool {
	kinds := syntax.KindSet(p.kinds...)
	if kinds == nil && p.predicate == nil {
		return nil
	}
	return func(n *Node) bool {
		if kinds != nil && !kinds(n) {
			return false
		}
		if p.predicate == nil {
			return true
		}
		ok, err := p.predicate.Eval(ctx, n.Kind, n.Span.Start, n.Span.End)
		if err != nil {
			p.logger.Debug("enclosing: predicate failed",
				slog.String("kind", n.Kind),
				slog.String("error", err.Error()))
			return false
		}
		return ok
	}
}

// checker is implemented by backends with a cheaper parse-only mode.
type checker interface {
	Check(ctx context.Context, src []byte) error
}

// Validate parses source without keeping the tree. A backend that cannot be
// run is reported the same way as invalid source; only the message tells
// them apart.
func (p *PythonParser) Validate(ctx context.Context, source string) (res ValidationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("enclosing: validate panicked",
				slog.String("backend", p.backend.Name()),
				slog.Any("panic", rec))
			res = ValidationResult{Valid: false, Error: fmt.Sprint(rec)}
		}
	}()

	var err error
	if c, ok := p.backend.(checker); ok {
		err = c.Check(ctx, []byte(source))
	} else {
		_, err = p.backend.Parse(ctx, []byte(source))
	}
	if err == nil {
		return ValidationResult{Valid: true}
	}

	p.logger.Debug("enclosing: validation failed",
		slog.String("backend", p.backend.Name()),
		slog.String("error", err.Error()))
	return ValidationResult{Valid: false, Error: diagnostic(err)}
}

// diagnostic renders err without the "Invalid: " framing some parsers add.
func diagnostic(err error) string {
	msg := err.Error()
	var serr *SyntaxError
	if errors.As(err, &serr) {
		msg = serr.Error()
	}
	msg = strings.TrimSpace(strings.TrimPrefix(msg, "Invalid: "))
	if msg == "" {
		return "Unknown error"
	}
	return msg
}

// TreeSitterBackend returns the in-process tree-sitter backend. Its grammar
// is more lenient than CPython: Python 2 print statements, a missing
// indented block or del f() all parse. Use it when speed matters more than
// agreeing with the interpreter.
func TreeSitterBackend() Backend {
	return runtime.NewTreeSitter()
}

// PythonBackend returns a backend running CPython's ast module through
// interpreter, or python3 from PATH when interpreter is empty.
func PythonBackend(interpreter string) Backend {
	return pyast.New(pyast.WithInterpreter(interpreter))
}

// NewBackend returns the backend registered under name: "python" (the
// default) or "treesitter".
func NewBackend(name, interpreter string) (Backend, error) {
	switch name {
	case "", "python":
		return PythonBackend(interpreter), nil
	case "treesitter":
		return TreeSitterBackend(), nil
	default:
		return nil, fmt.Errorf("enclosing: unknown backend %q (want python|treesitter)", name)
	}
}

// ParseStrategy maps "widest" or "narrowest" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	return syntax.ParseStrategy(name)
}

// NewPredicate compiles a Risor eligibility expression over the globals
// kind, start_line and end_line.
func NewPredicate(ctx context.Context, source string) (*Predicate, error) {
	return runtime.NewPredicate(ctx, source)
}

// CompoundKinds returns the definition and compound-statement kinds of both
// backends, for use with WithKinds.
func CompoundKinds() []string {
	return append([]string(nil), syntax.CompoundKinds...)
}

// LanguageForFile reports whether path names a Python file by extension.
func LanguageForFile(path string) (string, bool) {
	return runtime.LanguageForFile(path)
}

// LoadPredicate reads a Risor eligibility expression from a file.
func LoadPredicate(ctx context.Context, path string) (*Predicate, error) {
	return runtime.LoadPredicate(ctx, path)
}
