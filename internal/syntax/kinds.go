package syntax

// CompoundKinds lists the definition and compound-statement kinds of both
// backends: tree-sitter grammar types and CPython ast class names.
var CompoundKinds = []string{
	// tree-sitter
	"function_definition",
	"class_definition",
	"decorated_definition",
	"if_statement",
	"for_statement",
	"while_statement",
	"try_statement",
	"with_statement",
	"match_statement",

	// CPython ast
	"FunctionDef",
	"AsyncFunctionDef",
	"ClassDef",
	"If",
	"For",
	"AsyncFor",
	"While",
	"Try",
	"TryStar",
	"With",
	"AsyncWith",
	"Match",
}

// KindSet returns an accept func admitting only the given kinds.
// An empty list admits everything.
func KindSet(kinds ...string) func(*Node) bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(n *Node) bool {
		return set[n.Kind]
	}
}
