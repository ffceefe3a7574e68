// Package enclosing finds the syntactic construct of a Python file that
// encloses a line range, so a diff hunk can be labelled "inside function
// foo". It is one language adapter behind the [Parser] interface; picking
// an adapter per file is left to the caller.
//
// # Operations
//
// [PythonParser] implements two stateless queries:
//
//   - [PythonParser.FindEnclosingContext] parses the file and returns the
//     node whose line span contains the range, or nil.
//   - [PythonParser.Validate] reports whether the file parses, with the
//     parser's diagnostic when it does not.
//
// Neither returns an error. Unparseable input, a missing interpreter or a
// cancelled context all come back as "no context" or as an invalid
// [ValidationResult], and are logged through the configured [slog.Logger].
//
// # Backends
//
// Parsing goes through a [Backend]:
//
//   - [PythonBackend] (the default) runs CPython's ast module in a
//     subprocess, one per call. Kinds are ast class names such as
//     FunctionDef. Validity is exactly what the interpreter accepts.
//   - [TreeSitterBackend] parses in-process with the tree-sitter Python
//     grammar. Kinds are grammar types such as function_definition. It is
//     faster but lenient: Python 2 print statements, a block missing its
//     indented body or del f() all parse.
//
// In both, the module root carries no span, so an empty file or a range
// covering several top-level statements has no enclosing context.
//
// # Selection
//
// Among the nodes whose span contains the range, [Widest] (the default)
// returns the largest and [Narrowest] the smallest; the first node in
// pre-order wins ties. [WithKinds] and [WithPredicate] narrow the set of
// eligible nodes, the latter with a Risor expression:
//
//	pred, err := enclosing.NewPredicate(ctx, `end_line - start_line >= 2`)
//	p := enclosing.NewPythonParser(
//		enclosing.WithStrategy(enclosing.Narrowest),
//		enclosing.WithKinds(enclosing.CompoundKinds()...),
//		enclosing.WithPredicate(pred),
//	)
//	ec := p.FindEnclosingContext(ctx, src, enclosing.LineRange{Start: 4, End: 4})
package enclosing
