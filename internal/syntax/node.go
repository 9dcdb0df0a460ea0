// Package syntax parses Python source with tree-sitter and lowers the
// concrete tree into the small, closed set of statement kinds the symbol
// builder understands.
package syntax

// Kind is the closed set of statement kinds produced by Parse.
type Kind int

const (
	// KindOther is any statement the builder ignores.
	KindOther Kind = iota
	KindModule
	// KindBlock is a plain statement sequence.
	KindBlock
	// KindConditional holds the statements of every branch of an if or try
	// statement, flattened in source order.
	KindConditional
	KindClass
	KindFunction
	KindImportName
	KindImportFrom
	KindExprStmt
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindBlock:
		return "block"
	case KindConditional:
		return "conditional"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindImportName:
		return "import"
	case KindImportFrom:
		return "from-import"
	case KindExprStmt:
		return "expression"
	}
	return "other"
}

// Node is a lowered statement.
type Node struct {
	Kind Kind
	// Type is the tree-sitter node type the statement was lowered from.
	Type string
	Line int

	// Name is set for classes and functions.
	Name string
	// Children holds body statements for modules, blocks, conditionals and
	// classes. Function bodies are not lowered.
	Children []*Node
	// Params is set for functions.
	Params []Param
	// Imports is set for both import kinds, one per bound name.
	Imports []Import
	// Targets lists the names an expression statement assigns.
	Targets []string
}

// Param is one function parameter.
type Param struct {
	Name       string
	Stars      int
	HasDefault bool
}

// Import describes one name bound by an import statement.
type Import struct {
	// Name is the identifier bound in the enclosing scope.
	Name string
	// Path is the full dotted path the name refers to. For from-imports it
	// is the module path followed by the imported name.
	Path []string
	// Aliased reports an explicit "as" clause.
	Aliased bool
	// Level counts the leading dots of a relative from-import.
	Level int
	// Source is the module path of a from-import as written, dots included.
	Source string
}
