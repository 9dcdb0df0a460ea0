package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv("PYCOMPLETER_LANGUAGE_VERSION", "")
	t.Setenv("PYCOMPLETER_PATH", "")
	t.Setenv("PYCOMPLETER_LOG_LEVEL", "")
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	assert.Equal(t, "3.6", cfg.LanguageVersionOrDefault())
	assert.Equal(t, 1, cfg.BudgetOrDefault())
	assert.Equal(t, "warn", cfg.Log.LevelOrDefault())
	assert.Empty(t, cfg.SearchRoots)
	assert.Empty(t, cfg.Path)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, `
language_version = "3.8"
search_roots = ["vendor", "/opt/lib/python3.8"]
recursion_budget = 2
database = "index.db"
exclude = ["venv/**", "*_test.py"]

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "3.8", cfg.LanguageVersionOrDefault())
	assert.Equal(t, []string{filepath.Join(dir, "vendor"), "/opt/lib/python3.8"}, cfg.SearchRoots)
	assert.Equal(t, 2, cfg.BudgetOrDefault())
	assert.Equal(t, filepath.Join(dir, "index.db"), cfg.Database)
	assert.Equal(t, []string{"venv/**", "*_test.py"}, cfg.Exclude)
	assert.Equal(t, "debug", cfg.Log.LevelOrDefault())
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_ZeroBudgetIsKept(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, t.TempDir(), "recursion_budget = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.BudgetOrDefault())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "not found")

	_, err = Load(writeConfig(t, t.TempDir(), "language_version = \n"))
	require.ErrorContains(t, err, "parse")

	_, err = Load(writeConfig(t, t.TempDir(), "colour = \"blue\"\n"))
	require.ErrorContains(t, err, "unknown keys: colour")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, t.TempDir(), `
language_version = "three"
recursion_budget = -1
search_roots = [""]
exclude = ["[venv"]

[log]
level = "loud"
`))
	require.Error(t, err)
	for _, want := range []string{"language_version", "recursion_budget", "search_roots[0]", "invalid exclude pattern", "log.level"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestEnvOverrides(t *testing.T) {
	extra := t.TempDir()
	t.Setenv("PYCOMPLETER_LANGUAGE_VERSION", "3.11")
	t.Setenv("PYCOMPLETER_PATH", extra)
	t.Setenv("PYCOMPLETER_LOG_LEVEL", "info")

	cfg, err := Load(writeConfig(t, t.TempDir(), `
language_version = "3.8"
search_roots = ["/first"]
`))
	require.NoError(t, err)
	assert.Equal(t, "3.11", cfg.LanguageVersion)
	assert.Equal(t, []string{"/first", extra}, cfg.SearchRoots)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFind_WalksUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok := Find(nested)
	require.True(t, ok)
	assert.Equal(t, want, got)

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, want, cfg.Path)
}

func TestDiscover_NoFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if _, ok := Find(dir); ok {
		t.Skipf("a %s exists above the temp dir", FileName)
	}

	cfg, err := Discover(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "3.6", cfg.LanguageVersionOrDefault())
}
