package pycompleter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pycompleter/internal/symtab"
)

func exampleTable() symtab.Table {
	return symtab.Table{
		"Foo": &symtab.Class{Table: symtab.Table{
			"bar":   &symtab.Function{Signature: "(self,x,[y])"},
			"baz":   &symtab.Variable{},
			"Bingo": &symtab.Class{Table: symtab.New()},
		}},
		"z":    &symtab.Variable{},
		"os":   &symtab.Import{Resolved: symtab.Table{"path": &symtab.Import{Resolved: symtab.New()}}},
		"dump": &symtab.Import{Source: "json", Resolved: symtab.New()},
		"sys":  &symtab.Import{Resolved: symtab.Table{"argv": &symtab.Builtin{}}},
	}
}

func TestComplete_PathAndPartial(t *testing.T) {
	t.Parallel()
	got := Complete(exampleTable(), []string{"Foo"}, "b")

	assert.Equal(t, []Completion{
		{Label: "bar\t(self,x,[y])", Insert: "bar"},
		{Label: "baz\tVariable", Insert: "baz"},
	}, got)
}

func TestComplete_TopLevelSortedByName(t *testing.T) {
	t.Parallel()
	got := Complete(exampleTable(), nil, "")

	var inserts []string
	for _, c := range got {
		inserts = append(inserts, c.Insert)
	}
	assert.Equal(t, []string{"Foo", "dump", "os", "sys", "z"}, inserts)
	assert.Equal(t, "Foo\tClass", got[0].Label)
	assert.Equal(t, "dump\tImport json", got[1].Label)
	assert.Equal(t, "os\tImport", got[2].Label)
}

func TestComplete_CaseSensitivePrefix(t *testing.T) {
	t.Parallel()
	got := Complete(exampleTable(), []string{"Foo"}, "B")

	require.Len(t, got, 1)
	assert.Equal(t, "Bingo", got[0].Insert)
}

func TestComplete_BuiltinTag(t *testing.T) {
	t.Parallel()
	got := Complete(exampleTable(), []string{"sys"}, "")
	assert.Equal(t, []Completion{{Label: "argv\tbuiltin", Insert: "argv"}}, got)
}

func TestComplete_NeverFails(t *testing.T) {
	t.Parallel()
	tbl := exampleTable()

	for _, path := range [][]string{
		{"missing"},
		{"z"},
		{"Foo", "bar"},
		{"Foo", "Bingo"},
		{"os", "path", "deeper", "still"},
	} {
		got := Complete(tbl, path, "")
		assert.NotNil(t, got, "%v", path)
		assert.Empty(t, got, "%v", path)
	}

	assert.Empty(t, Complete(nil, []string{"x"}, "y"))
	assert.Empty(t, Complete(tbl, nil, "nothing-matches"))
}

func TestLookup(t *testing.T) {
	t.Parallel()
	tbl := exampleTable()

	e, ok := Lookup(tbl, []string{"Foo", "bar"})
	require.True(t, ok)
	assert.Equal(t, "(self,x,[y])", e.Tag())

	e, ok = Lookup(tbl, []string{"os", "path"})
	require.True(t, ok)
	assert.Equal(t, symtab.KindImport, e.Kind())

	_, ok = Lookup(tbl, []string{"Foo", "missing"})
	assert.False(t, ok)
	_, ok = Lookup(tbl, nil)
	assert.False(t, ok)
}
