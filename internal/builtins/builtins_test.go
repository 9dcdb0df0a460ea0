package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jward/pycompleter/internal/symtab"
)

func TestDefaultManifest_Parses(t *testing.T) {
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(defaultManifestYAML, &raw), "manifest.yaml must be valid YAML")

	m, err := Default()
	require.NoError(t, err)
	for _, name := range []string{"builtins", "sys", "time", "itertools", "gc", "posix"} {
		assert.True(t, m.IsBuiltin(name, ""), name)
	}
}

func TestLookup_FiltersPrivateNames(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	names, ok := m.Lookup("sys", "3.8")
	require.True(t, ok)
	assert.Contains(t, names, "path")
	assert.Contains(t, names, "argv")
	for _, n := range names {
		assert.NotEqual(t, '_', rune(n[0]), "private name %q leaked", n)
	}
	assert.IsIncreasing(t, names)
}

func TestLookup_VersionGating(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	old, ok := m.Lookup("time", "3.6")
	require.True(t, ok)
	assert.Contains(t, old, "clock")
	assert.NotContains(t, old, "time_ns")

	recent, ok := m.Lookup("time", "3.8")
	require.True(t, ok)
	assert.NotContains(t, recent, "clock")
	assert.Contains(t, recent, "time_ns")

	latest, ok := m.Lookup("itertools", "")
	require.True(t, ok)
	assert.Contains(t, latest, "pairwise")
}

func TestLookup_UnknownModule(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	_, ok := m.Lookup("numpy", "3.8")
	assert.False(t, ok)
	assert.False(t, m.IsBuiltin("os", "3.8"), "os is a source module, not compiled in")
}

func TestIsBuiltin_Since(t *testing.T) {
	m, err := Parse([]byte(`
modules:
  fresh:
    since: "3.9"
    names: [a]
`))
	require.NoError(t, err)

	assert.False(t, m.IsBuiltin("fresh", "3.8"))
	assert.True(t, m.IsBuiltin("fresh", "3.9"))
	assert.True(t, m.IsBuiltin("fresh", "3.10.4"))
	assert.True(t, m.IsBuiltin("fresh", ""))
}

func TestTable_BindsBuiltinEntries(t *testing.T) {
	m, err := Parse([]byte(`
modules:
  mini:
    names: [alpha, beta, _hidden]
`))
	require.NoError(t, err)

	tbl, ok := m.Table("mini", "3.8")
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta"}, tbl.Keys())
	assert.Equal(t, symtab.KindBuiltin, tbl["alpha"].Kind())
}

func TestParse_RejectsBadVersions(t *testing.T) {
	_, err := Parse([]byte(`
modules:
  broken:
    names: [a]
    added:
      "three": [b]
`))
	require.Error(t, err)

	_, err = Parse([]byte("modules: [not, a, map]"))
	require.Error(t, err)
}
