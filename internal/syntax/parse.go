package syntax

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse parses Python source and returns the lowered module. Syntax errors
// do not fail the parse: tree-sitter recovers and the damaged statements are
// lowered as KindOther.
func Parse(ctx context.Context, src []byte) (*Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	l := lowerer{src: src}
	return &Node{
		Kind:     KindModule,
		Type:     root.Type(),
		Line:     1,
		Children: l.statements(root),
	}, nil
}

// ParseFile reads and parses the file at path.
func ParseFile(ctx context.Context, path string) (*Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("syntax: reading %s: %w", path, err)
	}
	return Parse(ctx, src)
}

// lowerer converts tree-sitter nodes into Nodes. All strings are copied out
// of the source so the result outlives the tree.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.src)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// statements lowers every named child of a module or block.
func (l *lowerer) statements(n *sitter.Node) []*Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, l.statement(child))
	}
	return out
}

func (l *lowerer) statement(n *sitter.Node) *Node {
	switch n.Type() {
	case "class_definition":
		return &Node{
			Kind:     KindClass,
			Type:     n.Type(),
			Line:     line(n),
			Name:     l.text(n.ChildByFieldName("name")),
			Children: l.statements(n.ChildByFieldName("body")),
		}

	case "function_definition":
		return &Node{
			Kind:   KindFunction,
			Type:   n.Type(),
			Line:   line(n),
			Name:   l.text(n.ChildByFieldName("name")),
			Params: l.params(n.ChildByFieldName("parameters")),
		}

	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil {
			return l.statement(def)
		}

	case "import_statement":
		return &Node{
			Kind:    KindImportName,
			Type:    n.Type(),
			Line:    line(n),
			Imports: l.importNames(n),
		}

	case "import_from_statement", "future_import_statement":
		return &Node{
			Kind:    KindImportFrom,
			Type:    n.Type(),
			Line:    line(n),
			Imports: l.importFrom(n),
		}

	case "expression_statement":
		var targets []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			targets = l.assignTargets(n.NamedChild(i), targets)
		}
		return &Node{
			Kind:    KindExprStmt,
			Type:    n.Type(),
			Line:    line(n),
			Targets: targets,
		}

	case "if_statement", "try_statement":
		return &Node{
			Kind:     KindConditional,
			Type:     n.Type(),
			Line:     line(n),
			Children: l.branches(n),
		}

	case "block":
		return &Node{
			Kind:     KindBlock,
			Type:     n.Type(),
			Line:     line(n),
			Children: l.statements(n),
		}
	}
	return &Node{Kind: KindOther, Type: n.Type(), Line: line(n)}
}

// branchClauses are the clause nodes of if and try statements that carry a
// block of their own.
var branchClauses = map[string]bool{
	"elif_clause":         true,
	"else_clause":         true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
}

// branches flattens the blocks of every branch in source order.
func (l *lowerer) branches(n *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch {
		case child.Type() == "block":
			out = append(out, l.statements(child)...)
		case branchClauses[child.Type()]:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if sub := child.NamedChild(j); sub.Type() == "block" {
					out = append(out, l.statements(sub)...)
				}
			}
		}
	}
	return out
}

func (l *lowerer) params(n *sitter.Node) []Param {
	if n == nil {
		return nil
	}
	var out []Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if p, ok := l.param(n.NamedChild(i)); ok {
			out = append(out, p)
		}
	}
	return out
}

func (l *lowerer) param(n *sitter.Node) (Param, bool) {
	switch n.Type() {
	case "identifier", "tuple_pattern":
		return Param{Name: l.text(n)}, true
	case "typed_parameter":
		// The name is the first named child; it may itself be a splat.
		if first := n.NamedChild(0); first != nil {
			return l.param(first)
		}
	case "default_parameter", "typed_default_parameter":
		p, ok := l.param(n.ChildByFieldName("name"))
		p.HasDefault = true
		return p, ok
	case "list_splat_pattern":
		if id := n.NamedChild(0); id != nil {
			return Param{Name: l.text(id), Stars: 1}, true
		}
	case "dictionary_splat_pattern":
		if id := n.NamedChild(0); id != nil {
			return Param{Name: l.text(id), Stars: 2}, true
		}
	}
	// keyword_separator, positional_separator, comments.
	return Param{}, false
}

func (l *lowerer) dotted(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	if n.Type() != "dotted_name" {
		return []string{l.text(n)}
	}
	var segs []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		segs = append(segs, l.text(n.NamedChild(i)))
	}
	return segs
}

func (l *lowerer) importNames(n *sitter.Node) []Import {
	var out []Import
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			path := l.dotted(child)
			if len(path) == 0 {
				continue
			}
			out = append(out, Import{Name: path[0], Path: path})
		case "aliased_import":
			path := l.dotted(child.ChildByFieldName("name"))
			alias := l.text(child.ChildByFieldName("alias"))
			if len(path) == 0 || alias == "" {
				continue
			}
			out = append(out, Import{Name: alias, Path: path, Aliased: true})
		}
	}
	return out
}

func (l *lowerer) importFrom(n *sitter.Node) []Import {
	var (
		module []string
		level  int
		source string
		first  = 1
	)
	if n.Type() == "future_import_statement" {
		module = []string{"__future__"}
		source = "__future__"
		first = 0
	} else {
		mod := n.ChildByFieldName("module_name")
		if mod == nil {
			return nil
		}
		source = l.text(mod)
		if mod.Type() == "relative_import" {
			level = len(source) - len(strings.TrimLeft(source, "."))
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				if sub := mod.NamedChild(i); sub.Type() == "dotted_name" {
					module = l.dotted(sub)
				}
			}
		} else {
			module = l.dotted(mod)
		}
	}

	var out []Import
	for i := first; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		var (
			name    []string
			bound   string
			aliased bool
		)
		switch child.Type() {
		case "dotted_name", "identifier":
			name = l.dotted(child)
			if len(name) > 0 {
				bound = name[len(name)-1]
			}
		case "aliased_import":
			name = l.dotted(child.ChildByFieldName("name"))
			bound = l.text(child.ChildByFieldName("alias"))
			aliased = true
		default:
			// wildcard_import, comments.
			continue
		}
		if len(name) == 0 || bound == "" {
			continue
		}
		path := make([]string, 0, len(module)+len(name))
		path = append(path, module...)
		path = append(path, name...)
		out = append(out, Import{
			Name:    bound,
			Path:    path,
			Aliased: aliased,
			Level:   level,
			Source:  source,
		})
	}
	return out
}

// assignTargets appends the names bound by an assignment. Right-hand sides
// are only inspected for chained assignments.
func (l *lowerer) assignTargets(n *sitter.Node, acc []string) []string {
	switch n.Type() {
	case "assignment":
		acc = l.patternNames(n.ChildByFieldName("left"), acc)
		if right := n.ChildByFieldName("right"); right != nil && right.Type() == "assignment" {
			acc = l.assignTargets(right, acc)
		}
	case "augmented_assignment":
		acc = l.patternNames(n.ChildByFieldName("left"), acc)
	}
	return acc
}

func (l *lowerer) patternNames(n *sitter.Node, acc []string) []string {
	if n == nil {
		return acc
	}
	switch n.Type() {
	case "identifier":
		return append(acc, l.text(n))
	case "attribute":
		// obj.attr = ... binds attr.
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return append(acc, l.text(attr))
		}
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list",
		"tuple", "list", "parenthesized_expression", "list_splat_pattern", "list_splat":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			acc = l.patternNames(n.NamedChild(i), acc)
		}
	}
	return acc
}
