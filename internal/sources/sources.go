// Package sources turns command-line file arguments into the Python files to
// build: plain paths, directories searched recursively, and doublestar
// patterns such as "src/**/*.py", minus exclude patterns.
package sources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jward/pycompleter/internal/syntax"
)

// pattern finds module and stub files below a directory.
const pattern = "**/*.{py,pyi}"

// Set selects source files.
type Set struct {
	// Excludes are doublestar patterns. A file is excluded when any trailing
	// run of its path components matches, so "venv/**" drops every file
	// below any venv directory and "*_test.py" drops test files anywhere.
	Excludes []string
}

// ValidateExcludes reports every malformed pattern.
func ValidateExcludes(patterns []string) error {
	var errs []error
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q", p))
		}
	}
	return errors.Join(errs...)
}

// Expand resolves args to absolute file paths, sorted and without
// duplicates. A file named explicitly is kept whatever its extension; files
// found through a directory or a pattern must be Python sources. Every argument has
// to match at least one file.
func (s Set) Expand(args []string) ([]string, error) {
	if err := ValidateExcludes(s.Excludes); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", path, err)
		}
		if !seen[abs] && !s.Excluded(abs) {
			seen[abs] = true
			out = append(out, abs)
		}
		return nil
	}

	for _, arg := range args {
		matches, err := s.match(arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s Set) match(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		return s.walk(arg)
	case err == nil:
		return []string{arg}, nil
	}

	matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", arg, err)
	}
	var out []string
	for _, m := range matches {
		if isSource(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Under returns every wanted source file below dirs, absolute and sorted.
// Unlike Expand it is not an error for a directory to hold no sources.
func (s Set) Under(dirs ...string) ([]string, error) {
	if err := ValidateExcludes(s.Excludes); err != nil {
		return nil, err
	}
	var out []string
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", dir, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		found, err := s.walk(abs)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			if !s.Excluded(path) {
				out = append(out, path)
			}
		}
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}

// walk returns every source file below dir.
func (s Set) walk(dir string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", dir, err)
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = filepath.Join(dir, filepath.FromSlash(name))
	}
	return out, nil
}

// Excluded reports whether path matches one of the exclude patterns.
func (s Set) Excluded(path string) bool {
	if len(s.Excludes) == 0 {
		return false
	}
	parts := strings.Split(strings.Trim(filepath.ToSlash(path), "/"), "/")
	for i := range parts {
		suffix := strings.Join(parts[i:], "/")
		for _, p := range s.Excludes {
			if doublestar.MatchUnvalidated(p, suffix) {
				return true
			}
		}
	}
	return false
}

// Wanted reports whether a file seen by the watcher should be rebuilt.
func (s Set) Wanted(path string) bool {
	return isSource(path) && !s.Excluded(path)
}

func isSource(path string) bool {
	_, ok := syntax.LanguageForFile(path)
	return ok
}
