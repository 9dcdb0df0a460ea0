// Package symtab holds the nested symbol tables produced by the builder and
// consumed by the completion query.
package symtab

import "sort"

// Kind identifies how a name was introduced into a table.
type Kind int

const (
	KindClass Kind = iota
	KindFunction
	KindVariable
	KindImport
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindImport:
		return "import"
	case KindBuiltin:
		return "builtin"
	}
	return "unknown"
}

// Entry is one of *Class, *Function, *Variable, *Import or *Builtin.
type Entry interface {
	Kind() Kind
	// Tag is the kind label shown next to a completion candidate.
	Tag() string
	// Members returns the nested table, or nil for entries without one.
	Members() Table

	clone() Entry
}

// Class is a class definition; Members holds the names bound in its body.
type Class struct {
	Table Table
}

// Function is a function definition with its rendered parameter signature.
// Function bodies are never indexed.
type Function struct {
	Signature string
}

// Variable is a name bound by an assignment.
type Variable struct{}

// Import is a name bound by an import statement. Source is empty for plain
// imports and holds the dotted module path for from-imports. Resolved is
// empty when the target could not be found or the budget ran out.
type Import struct {
	Source   string
	Resolved Table
}

// Builtin is an attribute of a built-in module.
type Builtin struct{}

func (*Class) Kind() Kind    { return KindClass }
func (*Function) Kind() Kind { return KindFunction }
func (*Variable) Kind() Kind { return KindVariable }
func (*Import) Kind() Kind   { return KindImport }
func (*Builtin) Kind() Kind  { return KindBuiltin }

func (*Class) Tag() string      { return "Class" }
func (f *Function) Tag() string { return f.Signature }
func (*Variable) Tag() string   { return "Variable" }
func (*Builtin) Tag() string    { return "builtin" }

func (i *Import) Tag() string {
	if i.Source == "" {
		return "Import"
	}
	return "Import " + i.Source
}

func (c *Class) Members() Table  { return c.Table }
func (*Function) Members() Table { return nil }
func (*Variable) Members() Table { return nil }
func (i *Import) Members() Table { return i.Resolved }
func (*Builtin) Members() Table  { return nil }

func (c *Class) clone() Entry    { return &Class{Table: c.Table.Clone()} }
func (f *Function) clone() Entry { return &Function{Signature: f.Signature} }
func (*Variable) clone() Entry   { return &Variable{} }
func (i *Import) clone() Entry   { return &Import{Source: i.Source, Resolved: i.Resolved.Clone()} }
func (*Builtin) clone() Entry    { return &Builtin{} }

// Table maps identifiers to entries. A later Set on the same key replaces
// the earlier entry.
type Table map[string]Entry

// New returns an empty table.
func New() Table {
	return make(Table)
}

// Set binds name to e, replacing any previous binding.
func (t Table) Set(name string, e Entry) {
	t[name] = e
}

// Get returns the entry bound to name.
func (t Table) Get(name string) (Entry, bool) {
	e, ok := t[name]
	return e, ok
}

// Descend returns the member table of the entry bound to name, or an empty
// table when the name is absent or the entry has no members.
func (t Table) Descend(name string) Table {
	e, ok := t[name]
	if !ok {
		return New()
	}
	if m := e.Members(); m != nil {
		return m
	}
	return New()
}

// Walk descends one level per segment. It never fails: a missing segment
// yields an empty table.
func (t Table) Walk(path []string) Table {
	cur := t
	if cur == nil {
		cur = New()
	}
	for _, seg := range path {
		cur = cur.Descend(seg)
	}
	return cur
}

// Keys returns the bound names in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy sharing no entries or tables with t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k, e := range t {
		out[k] = e.clone()
	}
	return out
}

// MergeImport binds name to imp. When name is already bound to an *Import,
// imp's resolved keys are added to the existing table instead: the result is
// the union of both, and on a key collision imp's entry wins.
func (t Table) MergeImport(name string, imp *Import) {
	existing, ok := t[name].(*Import)
	if !ok {
		t[name] = imp
		return
	}
	if existing.Resolved == nil {
		existing.Resolved = New()
	}
	for k, e := range imp.Resolved {
		existing.Resolved[k] = e
	}
	existing.Source = imp.Source
}

// Len counts entries recursively, including nested member tables.
func (t Table) Len() int {
	n := 0
	for _, e := range t {
		n++
		n += e.Members().Len()
	}
	return n
}
