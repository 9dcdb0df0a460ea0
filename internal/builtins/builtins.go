// Package builtins answers which module names refer to modules compiled into
// the interpreter and which attributes they export. The answers come from a
// manifest shipped with the binary rather than from a live interpreter.
package builtins

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jward/pycompleter/internal/symtab"
)

//go:embed manifest.yaml
var defaultManifestYAML []byte

type manifestFile struct {
	Modules map[string]moduleSpec `yaml:"modules"`
}

type moduleSpec struct {
	Since   string              `yaml:"since"`
	Names   []string            `yaml:"names"`
	Added   map[string][]string `yaml:"added"`
	Removed map[string][]string `yaml:"removed"`
}

// Manifest maps built-in module names to the attributes they export.
//
// Safe for concurrent use; immutable after Parse.
type Manifest struct {
	modules map[string]moduleSpec
}

var (
	defaultManifest     *Manifest
	defaultManifestOnce sync.Once
	defaultManifestErr  error
)

// Default returns the embedded manifest, parsed once and cached.
func Default() (*Manifest, error) {
	defaultManifestOnce.Do(func() {
		defaultManifest, defaultManifestErr = Parse(defaultManifestYAML)
	})
	return defaultManifest, defaultManifestErr
}

// Parse decodes a manifest from YAML.
func Parse(data []byte) (*Manifest, error) {
	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("builtins: parse manifest: %w", err)
	}
	if f.Modules == nil {
		f.Modules = make(map[string]moduleSpec)
	}
	for name, spec := range f.Modules {
		if spec.Since != "" {
			if _, ok := parseVersion(spec.Since); !ok {
				return nil, fmt.Errorf("builtins: module %s: invalid since version %q", name, spec.Since)
			}
		}
		for _, group := range []map[string][]string{spec.Added, spec.Removed} {
			for v := range group {
				if _, ok := parseVersion(v); !ok {
					return nil, fmt.Errorf("builtins: module %s: invalid version key %q", name, v)
				}
			}
		}
	}
	return &Manifest{modules: f.Modules}, nil
}

// IsBuiltin reports whether module is compiled into the interpreter for the
// given language version. An empty or unparseable version means the newest.
func (m *Manifest) IsBuiltin(module, version string) bool {
	spec, ok := m.modules[module]
	if !ok {
		return false
	}
	if spec.Since == "" {
		return true
	}
	since, _ := parseVersion(spec.Since)
	return !versionOf(version).less(since)
}

// Lookup returns the sorted public attribute names of module for the given
// language version.
func (m *Manifest) Lookup(module, version string) ([]string, bool) {
	if !m.IsBuiltin(module, version) {
		return nil, false
	}
	spec := m.modules[module]
	v := versionOf(version)

	names := make(map[string]bool, len(spec.Names))
	for _, n := range spec.Names {
		names[n] = true
	}
	for at, group := range spec.Added {
		if ver, _ := parseVersion(at); !v.less(ver) {
			for _, n := range group {
				names[n] = true
			}
		}
	}
	for at, group := range spec.Removed {
		if ver, _ := parseVersion(at); !v.less(ver) {
			for _, n := range group {
				delete(names, n)
			}
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		if strings.HasPrefix(n, "_") {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, true
}

// Table returns a fresh table binding every public attribute of module to
// a Builtin entry.
func (m *Manifest) Table(module, version string) (symtab.Table, bool) {
	names, ok := m.Lookup(module, version)
	if !ok {
		return nil, false
	}
	t := symtab.New()
	for _, n := range names {
		t.Set(n, &symtab.Builtin{})
	}
	return t, true
}

type version struct {
	major, minor int
}

// newest sorts after every real version.
var newest = version{major: 1 << 30}

func (v version) less(o version) bool {
	if v.major != o.major {
		return v.major < o.major
	}
	return v.minor < o.minor
}

func versionOf(s string) version {
	if v, ok := parseVersion(s); ok {
		return v
	}
	return newest
}

// parseVersion accepts "3", "3.8" and "3.8.10"; the patch level is ignored.
func parseVersion(s string) (version, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || parts[0] == "" {
		return version{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return version{}, false
	}
	v := version{major: major}
	if len(parts) > 1 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			return version{}, false
		}
		v.minor = minor
	}
	return v, true
}
