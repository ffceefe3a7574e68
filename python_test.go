package enclosing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// outerSource: one function on lines 1-10 with a for loop on lines 3-5.
const outerSource = `def outer(x):
    total = 0
    for i in range(x):
        total += i
        print(i)
    if total:
        pass
    y = total
    z = y
    return z
`

const brokenSource = "def broken(x:\n    return [x\n"

type stubBackend struct {
	node  *Node
	err   error
	panic bool
	calls int
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Parse(ctx context.Context, src []byte) (*Node, error) {
	s.calls++
	if s.panic {
		panic("backend exploded")
	}
	return s.node, s.err
}

type checkingStub struct {
	stubBackend
	checkErr error
}

func (c *checkingStub) Check(ctx context.Context, src []byte) error {
	return c.checkErr
}

// treeSitterParser parses in-process, so its tests need no interpreter.
func treeSitterParser(opts ...Option) *PythonParser {
	return NewPythonParser(append([]Option{WithBackend(TreeSitterBackend())}, opts...)...)
}

// --- FindEnclosingContext ---

func TestFind_InnerLineWidest(t *testing.T) {
	t.Parallel()
	p := treeSitterParser()

	got := p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 4, End: 4})
	require.NotNil(t, got)
	assert.Equal(t, EnclosingContext{Kind: "function_definition", StartLine: 1, EndLine: 10}, *got)
}

func TestFind_InnerLineNarrowestCompound(t *testing.T) {
	t.Parallel()
	p := treeSitterParser(WithStrategy(Narrowest), WithKinds(CompoundKinds()...))

	got := p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 4, End: 4})
	require.NotNil(t, got)
	assert.Equal(t, EnclosingContext{Kind: "for_statement", StartLine: 3, EndLine: 5}, *got)
}

func TestFind_InnerLineNarrowest(t *testing.T) {
	t.Parallel()
	p := treeSitterParser(WithStrategy(Narrowest))

	got := p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 4, End: 4})
	require.NotNil(t, got)
	assert.Equal(t, 4, got.StartLine)
	assert.Equal(t, 4, got.EndLine)
}

func TestFind_WholeFunction(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{Widest, Narrowest} {
		got := treeSitterParser(WithStrategy(s)).
			FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 1, End: 10})
		require.NotNil(t, got, s.String())
		assert.Equal(t, EnclosingContext{Kind: "function_definition", StartLine: 1, EndLine: 10}, *got)
	}
}

func TestFind_None(t *testing.T) {
	t.Parallel()
	p := treeSitterParser()
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		r      LineRange
	}{
		{"past end of file", outerSource, LineRange{Start: 11, End: 11}},
		{"far past end of file", outerSource, LineRange{Start: 500, End: 900}},
		{"start after end", outerSource, LineRange{Start: 5, End: 4}},
		{"zero start", outerSource, LineRange{Start: 0, End: 4}},
		{"syntax error", brokenSource, LineRange{Start: 1, End: 1}},
		{"empty file", "", LineRange{Start: 1, End: 1}},
		{"two top-level statements", "x = 1\ny = 2\n", LineRange{Start: 1, End: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Nil(t, p.FindEnclosingContext(ctx, tt.source, tt.r))
		})
	}
}

func TestFind_SingleLineFile(t *testing.T) {
	t.Parallel()

	got := treeSitterParser().FindEnclosingContext(context.Background(), "print('hi')\n", LineRange{Start: 1, End: 1})
	require.NotNil(t, got)
	assert.Equal(t, "expression_statement", got.Kind)
	assert.Equal(t, 1, got.StartLine)
	assert.Equal(t, 1, got.EndLine)
}

func TestFind_ResultContainsRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, s := range []Strategy{Widest, Narrowest} {
		p := treeSitterParser(WithStrategy(s))
		for start := 1; start <= 11; start++ {
			for end := start; end <= 11; end++ {
				got := p.FindEnclosingContext(ctx, outerSource, LineRange{Start: start, End: end})
				if got == nil {
					continue
				}
				assert.LessOrEqual(t, got.StartLine, start)
				assert.GreaterOrEqual(t, got.EndLine, end)
			}
		}
	}
}

func TestFind_NarrowestMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := treeSitterParser(WithStrategy(Narrowest))

	sub := p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 4, End: 4})
	wider := p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 4, End: 6})
	require.NotNil(t, sub)
	require.NotNil(t, wider)
	assert.GreaterOrEqual(t, wider.EndLine-wider.StartLine, sub.EndLine-sub.StartLine)
}

func TestFind_Predicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pred, err := NewPredicate(ctx, `kind == "for_statement" || kind == "function_definition"`)
	require.NoError(t, err)

	p := treeSitterParser(WithStrategy(Narrowest), WithPredicate(pred))
	got := p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 5, End: 5})
	require.NotNil(t, got)
	assert.Equal(t, EnclosingContext{Kind: "for_statement", StartLine: 3, EndLine: 5}, *got)

	got = p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 7, End: 7})
	require.NotNil(t, got)
	assert.Equal(t, "function_definition", got.Kind)
}

func TestFind_BackendErrorIsAbsorbed(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	stub := &stubBackend{err: errors.New("python3: executable file not found in $PATH")}
	p := NewPythonParser(WithBackend(stub), WithLogger(logger))

	assert.Nil(t, p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 1, End: 1}))
	assert.Equal(t, 1, stub.calls)
	assert.Contains(t, logs.String(), "error parsing Python file")
	assert.Contains(t, logs.String(), "executable file not found")
}

func TestFind_BackendPanicIsAbsorbed(t *testing.T) {
	t.Parallel()

	p := NewPythonParser(WithBackend(&stubBackend{panic: true}))
	assert.NotPanics(t, func() {
		assert.Nil(t, p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 1, End: 1}))
	})
}

func TestFind_InvalidRangeSkipsParse(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{}
	p := NewPythonParser(WithBackend(stub))
	assert.Nil(t, p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 3, End: 2}))
	assert.Zero(t, stub.calls)
}

func TestFind_Concurrent(t *testing.T) {
	t.Parallel()
	p := treeSitterParser(WithStrategy(Narrowest), WithKinds(CompoundKinds()...))

	results := make([]*EnclosingContext, 16)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		g.Go(func() error {
			results[i] = p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 4, End: 4})
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, "for_statement", got.Kind)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	t.Parallel()
	p := treeSitterParser()
	ctx := context.Background()

	assert.Equal(t, ValidationResult{Valid: true}, p.Validate(ctx, outerSource))
	assert.Equal(t, ValidationResult{Valid: true}, p.Validate(ctx, ""))

	res := p.Validate(ctx, brokenSource)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}

func TestValidate_Idempotent(t *testing.T) {
	t.Parallel()
	p := treeSitterParser()
	ctx := context.Background()

	assert.Equal(t, p.Validate(ctx, brokenSource), p.Validate(ctx, brokenSource))
	assert.Equal(t, p.Validate(ctx, outerSource), p.Validate(ctx, outerSource))
}

func TestValidate_PrefersChecker(t *testing.T) {
	t.Parallel()

	stub := &checkingStub{checkErr: &SyntaxError{Msg: "Invalid: invalid syntax (<unknown>, line 1)"}}
	res := NewPythonParser(WithBackend(stub)).Validate(context.Background(), "def (")
	assert.Equal(t, ValidationResult{Valid: false, Error: "invalid syntax (<unknown>, line 1)"}, res)
	assert.Zero(t, stub.calls)
}

func TestValidate_InvocationFailure(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{err: errors.New("fork/exec /usr/bin/python3: no such file or directory")}
	res := NewPythonParser(WithBackend(stub)).Validate(context.Background(), "x = 1\n")
	assert.False(t, res.Valid)
	assert.Equal(t, "fork/exec /usr/bin/python3: no such file or directory", res.Error)
}

func TestValidate_PanicIsAbsorbed(t *testing.T) {
	t.Parallel()

	res := NewPythonParser(WithBackend(&stubBackend{panic: true})).Validate(context.Background(), "x = 1\n")
	assert.False(t, res.Valid)
	assert.Equal(t, "backend exploded", res.Error)
}

func TestDiagnostic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "invalid syntax (line 2, column 5)", diagnostic(&SyntaxError{Line: 2, Column: 5, Msg: "invalid syntax"}))
	assert.Equal(t, "bad thing", diagnostic(errors.New("Invalid: bad thing")))
	assert.Equal(t, "Unknown error", diagnostic(errors.New("Invalid: ")))
}

// --- backend construction ---

func TestNewBackend(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("", "")
	require.NoError(t, err)
	assert.Equal(t, "python", b.Name())

	b, err = NewBackend("python", "/usr/local/bin/python3")
	require.NoError(t, err)
	assert.Equal(t, "python", b.Name())

	b, err = NewBackend("treesitter", "")
	require.NoError(t, err)
	assert.Equal(t, "treesitter", b.Name())

	_, err = NewBackend("jython", "")
	assert.Error(t, err)
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	lang, ok := LanguageForFile("pkg/module.py")
	assert.True(t, ok)
	assert.Equal(t, "python", lang)

	_, ok = LanguageForFile("main.go")
	assert.False(t, ok)
}

func TestLineRange_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, LineRange{Start: 1, End: 1}.Valid())
	assert.True(t, LineRange{Start: 2, End: 9}.Valid())
	assert.False(t, LineRange{Start: 0, End: 1}.Valid())
	assert.False(t, LineRange{Start: 4, End: 3}.Valid())
}

// --- CPython backend ---

// pythonParser returns a default parser, skipping when python3 is missing.
func pythonParser(t *testing.T, opts ...Option) *PythonParser {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not on PATH")
	}
	return NewPythonParser(opts...)
}

func TestPythonBackend_Scenarios(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := pythonParser(t)

	got := p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 4, End: 4})
	require.NotNil(t, got)
	assert.Equal(t, EnclosingContext{Kind: "FunctionDef", StartLine: 1, EndLine: 10}, *got)

	got = p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 1, End: 10})
	require.NotNil(t, got)
	assert.Equal(t, "FunctionDef", got.Kind)

	assert.Nil(t, p.FindEnclosingContext(ctx, outerSource, LineRange{Start: 11, End: 11}))
	assert.Nil(t, p.FindEnclosingContext(ctx, brokenSource, LineRange{Start: 1, End: 1}))
	assert.Nil(t, p.FindEnclosingContext(ctx, "", LineRange{Start: 1, End: 1}))

	assert.Equal(t, ValidationResult{Valid: true}, p.Validate(ctx, ""))
	res := p.Validate(ctx, brokenSource)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
	assert.NotContains(t, res.Error, "Invalid:")
}

func TestPythonBackend_NarrowestCompound(t *testing.T) {
	t.Parallel()
	p := pythonParser(t, WithStrategy(Narrowest), WithKinds(CompoundKinds()...))

	got := p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 4, End: 4})
	require.NotNil(t, got)
	assert.Equal(t, EnclosingContext{Kind: "For", StartLine: 3, EndLine: 5}, *got)
}

func TestPythonBackend_MissingInterpreter(t *testing.T) {
	t.Parallel()

	p := NewPythonParser(WithBackend(PythonBackend("/nonexistent/bin/python3")))

	assert.Nil(t, p.FindEnclosingContext(context.Background(), outerSource, LineRange{Start: 1, End: 1}))
	res := p.Validate(context.Background(), outerSource)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "/nonexistent/bin/python3")
}

func TestNewPythonParser_DefaultsToCPython(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "python", NewPythonParser().Backend().Name())
}

// rejectedSources parse with the tree-sitter grammar but not with CPython.
var rejectedSources = []struct {
	name   string
	source string
}{
	{"missing indented block", "if True:\npass\n"},
	{"print statement", "print \"hi\"\n"},
	{"exec statement", "exec \"x = 1\"\n"},
	{"delete call", "del f()\n"},
	{"top-level walrus", "x := 1\n"},
	{"unparenthesized generator argument", "f(x for x in y, 1)\n"},
	{"unexpected indent", "x = 1\n    y = 2\n"},
}

func TestDefaultParser_RejectsInvalidPython(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	parsers := map[string]*PythonParser{
		"default":  pythonParser(t),
		"explicit": pythonParser(t, WithBackend(PythonBackend(""))),
	}
	for pname, p := range parsers {
		for _, tt := range rejectedSources {
			t.Run(pname+"/"+tt.name, func(t *testing.T) {
				t.Parallel()

				res := p.Validate(ctx, tt.source)
				assert.False(t, res.Valid)
				assert.NotEmpty(t, res.Error)
				assert.NotContains(t, res.Error, "Invalid:")

				assert.Nil(t, p.FindEnclosingContext(ctx, tt.source, LineRange{Start: 1, End: 1}))
			})
		}
	}
}

func TestDefaultParser_Python2BodyHasNoContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := "def f():\n    print \"hi\"\n    return 1\n"

	assert.Nil(t, pythonParser(t).FindEnclosingContext(ctx, src, LineRange{Start: 2, End: 2}))

	res := pythonParser(t).Validate(ctx, src)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "print")
}

func TestTreeSitterBackend_Lenient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := treeSitterParser()

	assert.True(t, p.Validate(ctx, "if True:\npass\n").Valid)
	assert.True(t, p.Validate(ctx, "print \"hi\"\n").Valid)
}

func TestValidate_PanicIsLogged(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	p := NewPythonParser(WithBackend(&stubBackend{panic: true}), WithLogger(logger))

	res := p.Validate(context.Background(), "x = 1\n")
	assert.False(t, res.Valid)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "validate panicked")
	assert.Contains(t, logs.String(), "backend exploded")
}
