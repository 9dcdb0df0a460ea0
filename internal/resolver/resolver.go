// Package resolver maps dotted import paths to the symbol tables they refer
// to, either from the built-in module manifest or by locating and building
// the backing source file.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jward/pycompleter/internal/builtins"
	"github.com/jward/pycompleter/internal/symtab"
	"github.com/jward/pycompleter/internal/syntax"
)

// Request describes one import to resolve.
type Request struct {
	// Path is the full dotted path, module segments followed by the
	// imported name for from-imports.
	Path []string
	// Level is the number of leading dots of a relative import; 0 for
	// absolute imports.
	Level int
	// Budget is the number of import levels that may still be followed.
	Budget int
	// FileDir is the directory of the importing file, empty when the
	// importing source has no file identity.
	FileDir string
}

// Pipeline builds the table of a source file located by the resolver.
type Pipeline interface {
	BuildFile(ctx context.Context, path string, budget int) symtab.Table
}

// Config holds the resolver's inputs that are fixed for one build.
type Config struct {
	// Roots are the configured search roots, searched in order after the
	// importing file's own directory.
	Roots []string
	// Builtins recognizes modules compiled into the interpreter. Nil
	// disables builtin recognition.
	Builtins *builtins.Manifest
	// LanguageVersion selects which builtin names are visible.
	LanguageVersion string
	Logger          zerolog.Logger
}

// Resolver resolves import requests. It never fails; every unresolvable
// request yields an empty table.
type Resolver struct {
	cfg      Config
	pipeline Pipeline
}

// New returns a Resolver that builds located files through p.
func New(cfg Config, p Pipeline) *Resolver {
	return &Resolver{cfg: cfg, pipeline: p}
}

// Resolve returns a fresh table for req.
func (r *Resolver) Resolve(ctx context.Context, req Request) symtab.Table {
	if req.Budget <= 0 || len(req.Path) == 0 || ctx.Err() != nil {
		return symtab.New()
	}
	log := r.cfg.Logger.With().Str("import", strings.Join(req.Path, ".")).Int("level", req.Level).Logger()

	if req.Level == 0 && r.cfg.Builtins != nil {
		if t, ok := r.cfg.Builtins.Table(req.Path[0], r.cfg.LanguageVersion); ok {
			log.Debug().Msg("builtin module")
			return t.Walk(req.Path[1:])
		}
	}

	file, rest, ok := Locate(req.Path, r.searchRoots(req))
	if !ok {
		log.Debug().Msg("import not found")
		return symtab.New()
	}
	log.Debug().Str("file", file).Strs("rest", rest).Msg("import located")

	t := r.pipeline.BuildFile(ctx, file, req.Budget-1)
	if t == nil {
		return symtab.New()
	}
	return t.Walk(rest)
}

// searchRoots returns the directories to search for req, in priority order.
// Relative imports search only the importing file's package, level-1
// directories up.
func (r *Resolver) searchRoots(req Request) []string {
	if req.Level > 0 {
		if req.FileDir == "" {
			return nil
		}
		dir := req.FileDir
		for i := 1; i < req.Level; i++ {
			dir = filepath.Dir(dir)
		}
		return []string{dir}
	}

	roots := make([]string, 0, len(r.cfg.Roots)+1)
	seen := make(map[string]bool, len(r.cfg.Roots)+1)
	add := func(dir string) {
		if dir == "" {
			return
		}
		clean := filepath.Clean(dir)
		if seen[clean] {
			return
		}
		seen[clean] = true
		roots = append(roots, clean)
	}
	add(req.FileDir)
	for _, root := range r.cfg.Roots {
		add(root)
	}
	return roots
}

// Locate finds the source file backing path. Roots are tried in order; within
// a root the longest prefix of path wins, testing prefix.py before
// prefix/__init__.py. It returns the file and the segments left over after
// the matched prefix.
func Locate(path []string, roots []string) (string, []string, bool) {
	for _, root := range roots {
		for i := len(path); i > 0; i-- {
			base := filepath.Join(root, filepath.Join(path[:i]...))
			for _, candidate := range []string{
				base + syntax.SourceExt,
				filepath.Join(base, syntax.PackageIndex),
			} {
				if isFile(candidate) {
					return candidate, path[i:], true
				}
			}
		}
	}
	return "", nil, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
