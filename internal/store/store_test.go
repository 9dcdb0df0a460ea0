package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pycompleter/internal/symtab"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testFile(path string) *File {
	return &File{
		Path:            path,
		Hash:            ContentHash([]byte(path)),
		LanguageVersion: "3.8",
		Budget:          1,
		BuiltAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func sampleTable() symtab.Table {
	return symtab.Table{
		"Foo": &symtab.Class{Table: symtab.Table{
			"bar": &symtab.Function{Signature: "(self,x,[y])"},
			"Nested": &symtab.Class{Table: symtab.Table{
				"deep": &symtab.Variable{},
			}},
		}},
		"z":  &symtab.Variable{},
		"os": &symtab.Import{Resolved: symtab.Table{"getcwd": &symtab.Function{Signature: "()"}}},
		"sys": &symtab.Import{Resolved: symtab.Table{
			"path": &symtab.Builtin{},
			"argv": &symtab.Builtin{},
		}},
		"helper":  &symtab.Import{Source: "..pkg.util", Resolved: symtab.New()},
		"Empty":   &symtab.Class{Table: symtab.New()},
		"missing": &symtab.Import{Resolved: symtab.New()},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "symbols"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("x = 1\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, ContentHash([]byte("x = 1\n")))
	assert.NotEqual(t, a, ContentHash([]byte("x = 2\n")))
}

// =============================================================================
// Snapshots
// =============================================================================

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := testFile("/project/main.py")
	want := sampleTable()

	require.NoError(t, s.SaveSnapshot(f, want))
	require.Positive(t, f.ID)

	gotFile, got, err := s.LoadSnapshot("/project/main.py")
	require.NoError(t, err)
	require.NotNil(t, gotFile)
	assert.Equal(t, f.ID, gotFile.ID)
	assert.Equal(t, f.Hash, gotFile.Hash)
	assert.Equal(t, "3.8", gotFile.LanguageVersion)
	assert.Equal(t, 1, gotFile.Budget)
	assert.True(t, f.BuiltAt.Equal(gotFile.BuiltAt))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f, tbl, err := s.LoadSnapshot("/nope.py")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Nil(t, tbl)
}

func TestSnapshot_ReplacesPrevious(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.SaveSnapshot(testFile("/p/a.py"), sampleTable()))
	require.NoError(t, s.SaveSnapshot(testFile("/p/a.py"), symtab.Table{"only": &symtab.Variable{}}))

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)

	syms, err := s.SymbolsByFile(files[0].ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "only", syms[0].Name)

	var total int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&total))
	assert.Equal(t, 1, total, "old symbols must be removed")
}

func TestSnapshot_SymbolRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := testFile("/p/main.py")
	require.NoError(t, s.SaveSnapshot(f, sampleTable()))

	syms, err := s.SymbolsByName("bar")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	bar := syms[0]
	assert.Equal(t, "function", bar.Kind)
	assert.Equal(t, "(self,x,[y])", bar.Tag)
	assert.Equal(t, 1, bar.Depth)
	require.NotNil(t, bar.ParentSymbolID)

	foo, err := s.SymbolsByName("Foo")
	require.NoError(t, err)
	require.Len(t, foo, 1)
	assert.Equal(t, foo[0].ID, *bar.ParentSymbolID)
	assert.Nil(t, foo[0].ParentSymbolID)

	children, err := s.SymbolChildren(foo[0].ID)
	require.NoError(t, err)
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Nested", "bar"}, names)

	imports, err := s.SymbolsByKind("import")
	require.NoError(t, err)
	assert.Len(t, imports, 4)

	helper, err := s.SymbolsByName("helper")
	require.NoError(t, err)
	require.Len(t, helper, 1)
	assert.Equal(t, "Import ..pkg.util", helper[0].Tag)
}

func TestFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for _, p := range []string{"/p/z.py", "/p/a.py", "/p/m.py"} {
		require.NoError(t, s.SaveSnapshot(testFile(p), symtab.New()))
	}

	files, err := s.Files()
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"/p/a.py", "/p/m.py", "/p/z.py"}, paths)

	byID, err := s.FileByID(files[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "/p/m.py", byID.Path)

	none, err := s.FileByID(9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := testFile("/p/gone.py")
	require.NoError(t, s.SaveSnapshot(f, sampleTable()))

	require.NoError(t, s.DeleteFileData(f.ID))

	got, err := s.FileByPath("/p/gone.py")
	require.NoError(t, err)
	assert.Nil(t, got)
	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestLoadSnapshot_UnknownKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := testFile("/p/bad.py")
	require.NoError(t, s.SaveSnapshot(f, symtab.Table{"x": &symtab.Variable{}}))
	_, err := s.db.Exec("UPDATE symbols SET kind = 'mystery' WHERE file_id = ?", f.ID)
	require.NoError(t, err)

	_, _, err = s.LoadSnapshot("/p/bad.py")
	require.ErrorContains(t, err, "unknown kind")
}

func TestDeleteSnapshot(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(testFile("/p/a.py"), sampleTable()))
	require.NoError(t, s.SaveSnapshot(testFile("/p/b.py"), sampleTable()))

	ok, err := s.DeleteSnapshot("/p/a.py")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteSnapshot("/p/a.py")
	require.NoError(t, err)
	assert.False(t, ok, "already gone")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/p/b.py", files[0].Path)
}
