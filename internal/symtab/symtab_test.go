package symtab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry Entry
		want  string
	}{
		{&Class{}, "Class"},
		{&Function{Signature: "(self,x,[y])"}, "(self,x,[y])"},
		{&Variable{}, "Variable"},
		{&Import{}, "Import"},
		{&Import{Source: "os.path"}, "Import os.path"},
		{&Builtin{}, "builtin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.entry.Tag(), "%T", tt.entry)
	}
}

func TestSet_LastWriteWins(t *testing.T) {
	t.Parallel()
	tbl := New()
	tbl.Set("z", &Variable{})
	tbl.Set("z", &Function{Signature: "()"})

	require.Len(t, tbl, 1)
	e, ok := tbl.Get("z")
	require.True(t, ok)
	assert.Equal(t, KindFunction, e.Kind())
}

func TestWalk_MissingSegmentsYieldEmpty(t *testing.T) {
	t.Parallel()
	tbl := Table{
		"Foo": &Class{Table: Table{"bar": &Function{Signature: "(self)"}}},
		"z":   &Variable{},
	}

	assert.Contains(t, tbl.Walk([]string{"Foo"}), "bar")
	assert.Empty(t, tbl.Walk([]string{"Foo", "bar"}))
	assert.Empty(t, tbl.Walk([]string{"z"}))
	assert.Empty(t, tbl.Walk([]string{"missing", "deeper"}))
	assert.Empty(t, Table(nil).Walk([]string{"x"}))
}

func TestClone_SharesNothing(t *testing.T) {
	t.Parallel()
	inner := Table{"sep": &Variable{}}
	orig := Table{
		"os": &Import{Resolved: Table{"path": &Import{Resolved: inner}}},
	}

	cp := orig.Clone()
	if diff := cmp.Diff(orig, cp); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	cp.Walk([]string{"os", "path"}).Set("join", &Function{Signature: "(a,*p)"})
	assert.NotContains(t, inner, "join")
	assert.NotSame(t, orig["os"], cp["os"])
}

func TestMergeImport_UnionsKeys(t *testing.T) {
	t.Parallel()
	tbl := New()
	tbl.MergeImport("a", &Import{Resolved: Table{"b": &Import{Resolved: New()}}})
	tbl.MergeImport("a", &Import{Resolved: Table{"c": &Import{Resolved: New()}}})

	require.Len(t, tbl, 1)
	assert.Equal(t, []string{"b", "c"}, tbl.Descend("a").Keys())
}

func TestMergeImport_CollisionLaterWins(t *testing.T) {
	t.Parallel()
	tbl := New()
	tbl.MergeImport("a", &Import{Resolved: Table{"b": &Import{Resolved: Table{"x": &Variable{}}}}})
	tbl.MergeImport("a", &Import{Resolved: Table{"b": &Import{Resolved: Table{"y": &Variable{}}}}})

	assert.Equal(t, []string{"y"}, tbl.Walk([]string{"a", "b"}).Keys())
}

func TestMergeImport_ReplacesNonImport(t *testing.T) {
	t.Parallel()
	tbl := Table{"a": &Variable{}}
	tbl.MergeImport("a", &Import{Resolved: Table{"b": &Builtin{}}})

	assert.Equal(t, KindImport, tbl["a"].Kind())
	assert.Equal(t, []string{"b"}, tbl.Descend("a").Keys())
}

func TestLen_CountsNested(t *testing.T) {
	t.Parallel()
	tbl := Table{
		"Foo": &Class{Table: Table{"bar": &Function{}, "baz": &Variable{}}},
		"z":   &Variable{},
	}
	assert.Equal(t, 4, tbl.Len())
}
